package stratego

// GamePhase is the state machine's current state. Player-facing operations
// are gated by phase first, identity second; every off-graph call is
// rejected with a coded error.
type GamePhase uint8

const (
	PhaseAwaitingPlayer GamePhase = iota
	PhaseBoardSetup
	PhaseP1Turn
	PhaseP2Turn
	PhaseP1Won
	PhaseP2Won
	PhaseDraw
	PhaseRevealed
)

func (p GamePhase) String() string {
	switch p {
	case PhaseAwaitingPlayer:
		return "AwaitingPlayer"
	case PhaseBoardSetup:
		return "BoardSetup"
	case PhaseP1Turn:
		return "P1Turn"
	case PhaseP2Turn:
		return "P2Turn"
	case PhaseP1Won:
		return "P1Won"
	case PhaseP2Won:
		return "P2Won"
	case PhaseDraw:
		return "Draw"
	case PhaseRevealed:
		return "Revealed"
	}
	return "Unknown"
}

// IsTurn reports whether the phase is one of the two in-play turn states.
func (p GamePhase) IsTurn() bool {
	return p == PhaseP1Turn || p == PhaseP2Turn
}

// IsTerminal reports whether the game has finished, by win, forfeit or draw.
// Revealed counts as terminal; it is the closing mark after the audit reveal.
func (p GamePhase) IsTerminal() bool {
	switch p {
	case PhaseP1Won, PhaseP2Won, PhaseDraw, PhaseRevealed:
		return true
	}
	return false
}

// turnOf maps a player slot to its turn phase.
func turnOf(playerIdx int) GamePhase {
	if playerIdx == 0 {
		return PhaseP1Turn
	}
	return PhaseP2Turn
}

// wonBy maps a player slot to its win phase.
func wonBy(playerIdx int) GamePhase {
	if playerIdx == 0 {
		return PhaseP1Won
	}
	return PhaseP2Won
}
