package stratego

import (
	"fmt"
	"sync"

	cerr "github.com/stanleykosi/cipher-stratego/internal/error"
)

// GameSession is the ledger-resident state of one match. All exported
// methods take the session lock: the transport and the computation
// callback run on different goroutines, and the turn-lock plus the
// at-most-one-pending-computation invariants are enforced under it.
type GameSession struct {
	mu sync.Mutex

	uuid string
	seed uint64

	// Slot 0 is the creator; slot 1 stays empty until Join succeeds.
	players [2]string

	phase       GamePhase
	turnCounter uint64

	boards          [2]EncryptedBoard
	boardsSubmitted [2]bool

	shotLog    []Shot
	shotLogCap int
	shipCells  uint8

	pending *PendingComputation
}

// SessionUuidFromSeed derives the session address from the player-chosen
// seed. Two creations with the same seed collide in the manager, exactly
// like a ledger account derived from the same seed would.
func SessionUuidFromSeed(seed uint64) string {
	return fmt.Sprintf("g-%016x", seed)
}

func NewGameSession(seed uint64, creatorUuid string, shotLogCap int, shipCells uint8) *GameSession {
	return &GameSession{
		uuid:       SessionUuidFromSeed(seed),
		seed:       seed,
		players:    [2]string{creatorUuid, ""},
		phase:      PhaseAwaitingPlayer,
		shotLog:    make([]Shot, 0, shotLogCap),
		shotLogCap: shotLogCap,
		shipCells:  shipCells,
	}
}

func (g *GameSession) Uuid() string {
	return g.uuid
}

func (g *GameSession) Seed() uint64 {
	return g.seed
}

func (g *GameSession) Phase() GamePhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *GameSession) TurnCounter() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turnCounter
}

func (g *GameSession) Players() [2]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players
}

func (g *GameSession) ShipCells() uint8 {
	return g.shipCells
}

// ShotLog returns a copy of the resolved-shot ledger in append order.
func (g *GameSession) ShotLog() []Shot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Shot, len(g.shotLog))
	copy(out, g.shotLog)
	return out
}

// Pending returns the outstanding computation, if any. Read-only queries
// stay allowed while a computation is in flight.
func (g *GameSession) Pending() (PendingComputation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return PendingComputation{}, false
	}
	return *g.pending, true
}

// Boards returns both encrypted board commitments, for the reveal request
// and for auditors. Ciphertexts are opaque, so sharing them is safe.
func (g *GameSession) Boards() [2]EncryptedBoard {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boards
}

// playerIndex resolves a caller identity to a slot, -1 if not a participant.
func (g *GameSession) playerIndex(playerUuid string) int {
	for i, p := range g.players {
		if p != "" && p == playerUuid {
			return i
		}
	}
	return -1
}

func (g *GameSession) PlayerIndex(playerUuid string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerIndex(playerUuid)
}

// OtherPlayer returns the opponent's uuid, empty if the caller is not a
// participant or the second slot is still open.
func (g *GameSession) OtherPlayer(playerUuid string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.playerIndex(playerUuid)
	if idx < 0 {
		return ""
	}
	return g.players[1-idx]
}

// Join seats the caller in slot 1 and opens board setup.
func (g *GameSession) Join(callerUuid string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := GatePhase(g.phase, OpJoin); err != nil {
		return err
	}
	if callerUuid == g.players[0] {
		return cerr.ErrSelfJoin(callerUuid)
	}
	if g.players[1] != "" {
		return cerr.ErrSlotOccupied()
	}

	g.players[1] = callerUuid
	g.phase = PhaseBoardSetup
	return nil
}

// SubmitBoard stores a player's encrypted commitment. Each player submits
// exactly once; when both have, play opens with player 1's turn. The
// returned flag reports whether this call started the game.
func (g *GameSession) SubmitBoard(callerUuid string, board EncryptedBoard) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := GatePhase(g.phase, OpSubmitBoard); err != nil {
		return false, err
	}
	idx := g.playerIndex(callerUuid)
	if idx < 0 {
		return false, cerr.ErrNotAParticipant(callerUuid)
	}
	if g.boardsSubmitted[idx] {
		return false, cerr.ErrAlreadySubmitted(callerUuid)
	}
	if err := board.validate(); err != nil {
		return false, err
	}

	g.boards[idx] = board
	g.boardsSubmitted[idx] = true

	if g.boardsSubmitted[0] && g.boardsSubmitted[1] {
		g.phase = PhaseP1Turn
		return true, nil
	}
	return false, nil
}

// BeginShot validates a fire-shot call and suspends the session behind
// the turn-lock. Resolution happens later, in ApplyShotResult, when the
// confidential computation delivers; until then no further shot or reveal
// is accepted. The target's encrypted board is returned for the request.
func (g *GameSession) BeginShot(callerUuid string, offset uint64, coord Coord) (PendingComputation, EncryptedBoard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := GatePhase(g.phase, OpFireShot); err != nil {
		return PendingComputation{}, EncryptedBoard{}, err
	}

	idx := g.playerIndex(callerUuid)
	if idx < 0 {
		return PendingComputation{}, EncryptedBoard{}, cerr.ErrNotAParticipant(callerUuid)
	}
	if g.phase != turnOf(idx) {
		return PendingComputation{}, EncryptedBoard{}, cerr.ErrNotYourTurn(callerUuid)
	}
	if g.pending != nil {
		return PendingComputation{}, EncryptedBoard{}, cerr.ErrComputationInProgress(g.pending.Offset)
	}
	if !coord.InBounds() {
		return PendingComputation{}, EncryptedBoard{}, fmt.Errorf("coordinate out of board bounds\tx: %d\ty: %d", coord.X, coord.Y)
	}

	for _, s := range g.shotLog {
		if s.Player == callerUuid && s.Coord == coord {
			return PendingComputation{}, EncryptedBoard{}, cerr.ErrDuplicateTarget(coord.X, coord.Y)
		}
	}
	if len(g.shotLog) >= g.shotLogCap {
		return PendingComputation{}, EncryptedBoard{}, cerr.ErrLedgerFull(g.shotLogCap)
	}

	targetIdx := 1 - idx
	pending := PendingComputation{
		Offset:    offset,
		Kind:      ComputationCheckShot,
		Coord:     coord,
		TargetIdx: targetIdx,
		HitsSoFar: g.hitsAgainst(targetIdx),
	}
	g.pending = &pending
	return pending, g.boards[targetIdx], nil
}

// hitsAgainst counts resolved hits on the given player's board. Only the
// opponent ever fires at it, so filtering by attacker identity suffices.
func (g *GameSession) hitsAgainst(targetIdx int) uint8 {
	attacker := g.players[1-targetIdx]
	var n uint8
	for _, s := range g.shotLog {
		if s.Player == attacker && s.Result == ShotHit {
			n++
		}
	}
	return n
}

// AbortPending unwinds a pending marker set by BeginShot or BeginReveal
// when the bridge refused the request (e.g. a process-wide duplicate
// offset). It is a no-op unless the offset matches.
func (g *GameSession) AbortPending(offset uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil && g.pending.Offset == offset {
		g.pending = nil
	}
}

// ApplyShotResult is the internal ledger-append transition driven by the
// computation callback: appends exactly one Shot, bumps the turn counter,
// clears the pending marker and either flips the turn or declares the
// winner when the target has no ship cells left.
func (g *GameSession) ApplyShotResult(offset uint64, isHit bool, shipsRemaining uint8) (Shot, GamePhase, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil || g.pending.Offset != offset || g.pending.Kind != ComputationCheckShot {
		return Shot{}, g.phase, cerr.ErrUnknownOffset(offset)
	}
	if err := GatePhase(g.phase, OpResolveShot); err != nil {
		// The game ended (forfeit) while the computation was in flight;
		// the result is dropped by the caller.
		g.pending = nil
		return Shot{}, g.phase, err
	}

	p := *g.pending
	attackerIdx := 1 - p.TargetIdx

	result := ShotMiss
	if isHit {
		result = ShotHit
	}
	shot := Shot{
		Player:         g.players[attackerIdx],
		Coord:          p.Coord,
		Result:         result,
		ShipsRemaining: shipsRemaining,
	}

	g.shotLog = append(g.shotLog, shot)
	g.turnCounter++
	g.pending = nil

	if shipsRemaining == 0 {
		g.phase = wonBy(attackerIdx)
	} else {
		g.phase = turnOf(p.TargetIdx)
	}
	return shot, g.phase, nil
}

// Forfeit ends the game early. During play the non-forfeiting player is
// declared winner; during board setup neither side has played, so the
// session closes as a draw. Any in-flight computation result is orphaned
// and will be dropped on delivery.
func (g *GameSession) Forfeit(callerUuid string) (GamePhase, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.playerIndex(callerUuid)
	if idx < 0 {
		return g.phase, cerr.ErrNotAParticipant(callerUuid)
	}

	if err := GatePhase(g.phase, OpForfeit); err != nil {
		return g.phase, err
	}
	if g.phase.IsTurn() {
		g.phase = wonBy(1 - idx)
	} else {
		g.phase = PhaseDraw
	}
	g.pending = nil
	return g.phase, nil
}

// BeginReveal starts the end-of-game audit computation over both boards.
// Valid only once a win or draw is reached; any participant may request it.
func (g *GameSession) BeginReveal(callerUuid string, offset uint64) (PendingComputation, [2]EncryptedBoard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.playerIndex(callerUuid)
	if idx < 0 {
		return PendingComputation{}, [2]EncryptedBoard{}, cerr.ErrNotAParticipant(callerUuid)
	}
	if err := GatePhase(g.phase, OpRequestReveal); err != nil {
		return PendingComputation{}, [2]EncryptedBoard{}, err
	}
	if g.pending != nil {
		return PendingComputation{}, [2]EncryptedBoard{}, cerr.ErrComputationInProgress(g.pending.Offset)
	}
	if !g.boardsSubmitted[0] || !g.boardsSubmitted[1] {
		return PendingComputation{}, [2]EncryptedBoard{}, cerr.ErrBoardsNotSubmitted()
	}

	pending := PendingComputation{Offset: offset, Kind: ComputationRevealBoards}
	g.pending = &pending
	return pending, g.boards, nil
}

// ApplyReveal closes the session after the reveal computation delivered
// both plaintext grids. The grids themselves are published by the caller;
// the ledger only records that the session is fully closed.
func (g *GameSession) ApplyReveal(offset uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil || g.pending.Offset != offset || g.pending.Kind != ComputationRevealBoards {
		return cerr.ErrUnknownOffset(offset)
	}
	if err := GatePhase(g.phase, OpResolveReveal); err != nil {
		return err
	}
	g.pending = nil
	g.phase = PhaseRevealed
	return nil
}
