package stratego

import (
	cerr "github.com/stanleykosi/cipher-stratego/internal/error"
)

// GameOp enumerates the session operations the phase machine gates. The
// resolve ops are the callback-driven halves of their request ops.
type GameOp uint8

const (
	OpJoin GameOp = iota
	OpSubmitBoard
	OpFireShot
	OpResolveShot
	OpForfeit
	OpRequestReveal
	OpResolveReveal
)

func (op GameOp) String() string {
	switch op {
	case OpJoin:
		return "Join"
	case OpSubmitBoard:
		return "SubmitBoard"
	case OpFireShot:
		return "FireShot"
	case OpResolveShot:
		return "ResolveShot"
	case OpForfeit:
		return "Forfeit"
	case OpRequestReveal:
		return "RequestReveal"
	case OpResolveReveal:
		return "ResolveReveal"
	}
	return "Unknown"
}

// PhaseOps is the transition graph: the operations each phase admits.
// Successor phases are data dependent (a second board submit opens play,
// a shot can end the game), so the graph gates entry and the session
// methods compute the next phase. Exported so tests can walk the full
// phase by operation matrix.
var PhaseOps = map[GamePhase][]GameOp{
	PhaseAwaitingPlayer: {OpJoin},
	PhaseBoardSetup:     {OpSubmitBoard, OpForfeit},
	PhaseP1Turn:         {OpFireShot, OpResolveShot, OpForfeit},
	PhaseP2Turn:         {OpFireShot, OpResolveShot, OpForfeit},
	PhaseP1Won:          {OpRequestReveal, OpResolveReveal},
	PhaseP2Won:          {OpRequestReveal, OpResolveReveal},
	PhaseDraw:           {OpRequestReveal, OpResolveReveal},
	PhaseRevealed:       {},
}

// Allows reports whether op is on the transition graph in this phase.
func (p GamePhase) Allows(op GameOp) bool {
	for _, allowed := range PhaseOps[p] {
		if allowed == op {
			return true
		}
	}
	return false
}

// GatePhase is the phase gate every session method consults first. Most
// off-graph calls are an invalid phase; firing before both boards are in
// names the missing boards, and a reveal request before a result names
// the unfinished game.
func GatePhase(p GamePhase, op GameOp) error {
	if p.Allows(op) {
		return nil
	}
	switch op {
	case OpFireShot:
		if p == PhaseBoardSetup {
			return cerr.ErrBoardsNotSubmitted()
		}
	case OpRequestReveal:
		return cerr.ErrGameNotOver(p.String())
	}
	return cerr.ErrInvalidPhase(p.String())
}
