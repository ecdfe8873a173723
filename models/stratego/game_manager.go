package stratego

import (
	"fmt"
	"sync"

	cerr "github.com/stanleykosi/cipher-stratego/internal/error"
)

const (
	// Capacity of the shot log. Deployment-tunable; this is only the
	// default when no option overrides it.
	DefaultShotLogCapacity = 64

	// Ship cells per board. The win condition triggers when every one of
	// the target's ship cells has been hit.
	DefaultShipCells uint8 = 16
)

type GameManager struct {
	games map[string]*GameSession
	mu    sync.RWMutex

	shotLogCap int
	shipCells  uint8
}

type GameManagerOption func(*GameManager) error

func NewGameManager(optFuncs ...GameManagerOption) *GameManager {
	gm := &GameManager{
		games:      make(map[string]*GameSession),
		shotLogCap: DefaultShotLogCapacity,
		shipCells:  DefaultShipCells,
	}
	for _, opt := range optFuncs {
		if err := opt(gm); err != nil {
			panic(err)
		}
	}
	return gm
}

func WithShotLogCapacity(capacity int) GameManagerOption {
	return func(gm *GameManager) error {
		if capacity <= 0 {
			return fmt.Errorf("shot log capacity must be positive, got: %d", capacity)
		}
		gm.shotLogCap = capacity
		return nil
	}
}

func WithShipCells(cells uint8) GameManagerOption {
	return func(gm *GameManager) error {
		if cells == 0 || int(cells) > BoardSize*BoardSize {
			return fmt.Errorf("ship cells must be in [1, %d], got: %d", BoardSize*BoardSize, cells)
		}
		gm.shipCells = cells
		return nil
	}
}

func (gm *GameManager) ShipCells() uint8 {
	return gm.shipCells
}

// CreateGame opens a new session derived from the player-chosen seed and
// seats the creator in slot 0. A live session with the same seed is a
// collision and rejected.
func (gm *GameManager) CreateGame(seed uint64, creatorUuid string) (*GameSession, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	key := SessionUuidFromSeed(seed)
	if _, prs := gm.games[key]; prs {
		return nil, cerr.ErrGameAlreadyExists(key)
	}

	game := NewGameSession(seed, creatorUuid, gm.shotLogCap, gm.shipCells)
	gm.games[key] = game
	return game, nil
}

func (gm *GameManager) FindGame(gameUuid string) (*GameSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, prs := gm.games[gameUuid]
	if !prs {
		return nil, cerr.ErrGameNotExists(gameUuid)
	}
	return game, nil
}

// TerminateGame drops a session from the manager. Called when both
// connections are gone or after the reveal closed the session.
func (gm *GameManager) TerminateGame(gameUuid string) {
	gm.mu.Lock()
	delete(gm.games, gameUuid)
	gm.mu.Unlock()
}
