package stratego

// ShotResult is the public outcome of a resolved shot.
type ShotResult uint8

const (
	ShotMiss ShotResult = 0
	ShotHit  ShotResult = 1
)

func (r ShotResult) String() string {
	if r == ShotHit {
		return "Hit"
	}
	return "Miss"
}

type Coord struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
}

func NewCoord(x, y uint8) Coord {
	return Coord{X: x, Y: y}
}

// InBounds reports whether the coordinate lies on the board.
func (c Coord) InBounds() bool {
	return c.X < BoardSize && c.Y < BoardSize
}

// Shot is one resolved entry of the public ledger. Immutable once
// appended; ShipsRemaining is the target's remaining ship cells after
// this shot, reported by the confidential computation.
type Shot struct {
	Player         string     `json:"player"`
	Coord          Coord      `json:"coord"`
	Result         ShotResult `json:"result"`
	ShipsRemaining uint8      `json:"ships_remaining"`
}

// ComputationKind distinguishes the two confidential computations the
// session may have in flight.
type ComputationKind uint8

const (
	ComputationCheckShot ComputationKind = iota
	ComputationRevealBoards
)

func (k ComputationKind) String() string {
	if k == ComputationRevealBoards {
		return "RevealBoards"
	}
	return "CheckShot"
}

// PendingComputation is the at-most-one outstanding request of a session.
// Offset is the caller-chosen correlation id; the public parameters here
// are what the callback needs to re-associate its result with the ledger.
type PendingComputation struct {
	Offset    uint64
	Kind      ComputationKind
	Coord     Coord
	TargetIdx int
	HitsSoFar uint8
}
