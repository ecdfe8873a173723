package mpc

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	cerr "github.com/stanleykosi/cipher-stratego/internal/error"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// EventSink receives the public outcomes the bridge produces. The
// transport layer implements it to push events to both players and to
// the durable archive; tests implement it with channels.
type EventSink interface {
	OnShotResolved(game *ms.GameSession, shot ms.Shot, phase ms.GamePhase)
	OnBoardsRevealed(game *ms.GameSession, grids [2]ms.Grid)
}

type pendingEntry struct {
	gameUuid string
	kind     ms.ComputationKind
}

// Bridge manages the request/callback lifecycle with the confidential-
// computation service. Offsets are caller-chosen and must be unique
// process-wide while pending; the table below is the only shared state,
// and lookup-and-remove on delivery keeps each callback single-use.
type Bridge struct {
	mu      sync.Mutex
	pending map[uint64]pendingEntry

	gameManager *ms.GameManager
	service     Service
	sink        EventSink
}

func NewBridge(gameManager *ms.GameManager) *Bridge {
	return &Bridge{
		pending:     make(map[uint64]pendingEntry),
		gameManager: gameManager,
	}
}

// BindService and BindSink wire the two halves after construction; the
// transport layer that implements EventSink also holds the bridge, so
// neither can be a constructor argument of the other.
func (b *Bridge) BindService(s Service) {
	b.service = s
}

func (b *Bridge) BindSink(sink EventSink) {
	b.sink = sink
}

// reserveOffset claims a correlation offset before any session state is
// touched, so two concurrent requests can never share one. Rolled back
// if the session rejects the operation.
func (b *Bridge) reserveOffset(offset uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, prs := b.pending[offset]; prs {
		return cerr.ErrDuplicateOffset(offset)
	}
	b.pending[offset] = pendingEntry{}
	return nil
}

func (b *Bridge) commitOffset(offset uint64, gameUuid string, kind ms.ComputationKind) {
	b.mu.Lock()
	b.pending[offset] = pendingEntry{gameUuid: gameUuid, kind: kind}
	b.mu.Unlock()
}

func (b *Bridge) releaseOffset(offset uint64) {
	b.mu.Lock()
	delete(b.pending, offset)
	b.mu.Unlock()
}

// takeOffset is the lookup-and-remove of the callback path.
func (b *Bridge) takeOffset(offset uint64) (pendingEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, prs := b.pending[offset]
	if !prs || entry.gameUuid == "" {
		return pendingEntry{}, cerr.ErrUnknownOffset(offset)
	}
	delete(b.pending, offset)
	return entry, nil
}

// RequestCheckShot validates and suspends a fire-shot call, then submits
// the check-shot computation carrying the opponent's encrypted board row
// set and the public target coordinate. The session is turn-locked until
// Deliver resolves the offset.
func (b *Bridge) RequestCheckShot(game *ms.GameSession, callerUuid string, offset uint64, coord ms.Coord) error {
	if b.service == nil {
		return fmt.Errorf("no computation service bound")
	}

	if err := b.reserveOffset(offset); err != nil {
		return err
	}

	pending, target, err := game.BeginShot(callerUuid, offset, coord)
	if err != nil {
		b.releaseOffset(offset)
		return err
	}
	b.commitOffset(offset, game.Uuid(), ms.ComputationCheckShot)

	req := Request{
		Offset:    offset,
		Kind:      ms.ComputationCheckShot,
		Coord:     coord,
		HitsSoFar: pending.HitsSoFar,
		ShipCells: game.ShipCells(),
		Target:    target,
	}
	if err := b.service.Submit(req); err != nil {
		b.releaseOffset(offset)
		game.AbortPending(offset)
		return err
	}

	log.Info("check-shot computation submitted",
		"game", game.Uuid(), "offset", offset, "x", coord.X, "y", coord.Y)
	return nil
}

// RequestReveal submits the end-of-game reveal computation over both
// encrypted boards. Valid only once the session reached a terminal phase.
func (b *Bridge) RequestReveal(game *ms.GameSession, callerUuid string, offset uint64) error {
	if b.service == nil {
		return fmt.Errorf("no computation service bound")
	}

	if err := b.reserveOffset(offset); err != nil {
		return err
	}

	_, boards, err := game.BeginReveal(callerUuid, offset)
	if err != nil {
		b.releaseOffset(offset)
		return err
	}
	b.commitOffset(offset, game.Uuid(), ms.ComputationRevealBoards)

	req := Request{
		Offset: offset,
		Kind:   ms.ComputationRevealBoards,
		Boards: boards,
	}
	if err := b.service.Submit(req); err != nil {
		b.releaseOffset(offset)
		game.AbortPending(offset)
		return err
	}

	log.Info("reveal computation submitted", "game", game.Uuid(), "offset", offset)
	return nil
}

// Deliver is the callback entry point for the computation service. One
// delivery per offset: replays and spoofed offsets fail UnknownOffset.
// Restricting callers to the service's authenticated identity is the
// responsibility of whatever transport fronts this method.
func (b *Bridge) Deliver(res Result) error {
	entry, err := b.takeOffset(res.Offset)
	if err != nil {
		return err
	}
	if entry.kind != res.Kind {
		return fmt.Errorf("computation kind mismatch for offset %d: pending %s, delivered %s",
			res.Offset, entry.kind.String(), res.Kind.String())
	}

	game, err := b.gameManager.FindGame(entry.gameUuid)
	if err != nil {
		return err
	}

	switch res.Kind {
	case ms.ComputationCheckShot:
		shot, phase, err := game.ApplyShotResult(res.Offset, res.IsHit, res.ShipsRemaining)
		if err != nil {
			// Forfeit raced the computation; the result is dropped.
			log.Warn("shot result dropped", "game", game.Uuid(), "offset", res.Offset, "err", err)
			return err
		}
		log.Info("shot resolved",
			"game", game.Uuid(), "turn", game.TurnCounter(),
			"x", shot.Coord.X, "y", shot.Coord.Y,
			"result", shot.Result.String(), "ships_remaining", shot.ShipsRemaining,
			"phase", phase.String())
		b.sink.OnShotResolved(game, shot, phase)

	case ms.ComputationRevealBoards:
		if err := game.ApplyReveal(res.Offset); err != nil {
			log.Warn("reveal result dropped", "game", game.Uuid(), "offset", res.Offset, "err", err)
			return err
		}
		log.Info("boards revealed", "game", game.Uuid(), "offset", res.Offset)
		b.sink.OnBoardsRevealed(game, res.Grids)

	default:
		return fmt.Errorf("unknown computation kind delivered: %d", res.Kind)
	}
	return nil
}
