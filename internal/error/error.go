package error

import "fmt"

// Rejection codes for player-facing operations. Every failed call maps to
// exactly one of these; callers branch on Code(), not on message text.
const (
	CodeInvalidPhase uint8 = iota
	CodeGameNotOver
	CodeBoardsNotSubmitted
	CodeNotAParticipant
	CodeSelfJoin
	CodeNotYourTurn
	CodeSlotOccupied
	CodeAlreadySubmitted
	CodeDuplicateTarget
	CodeDuplicateOffset
	CodeLedgerFull
	CodeUnknownOffset
	CodeComputationInProgress
)

type GameError struct {
	code uint8
	desc string
}

func NewGameError(code uint8, desc string) GameError {
	return GameError{code: code, desc: desc}
}

func (g GameError) Error() string {
	return fmt.Sprintf("game error - code: %d\tdesc: %s", g.code, g.desc)
}

func (g GameError) Code() uint8 {
	return g.code
}

// CodeOf extracts the rejection code from an error returned by a game
// operation. The second return is false for plumbing errors that carry
// no code.
func CodeOf(err error) (uint8, bool) {
	ge, ok := err.(GameError)
	if !ok {
		return 0, false
	}
	return ge.Code(), true
}

func ErrInvalidPhase(phase string) error {
	return NewGameError(CodeInvalidPhase, fmt.Sprintf("operation not valid in phase %s", phase))
}

func ErrGameNotOver(phase string) error {
	return NewGameError(CodeGameNotOver, fmt.Sprintf("reveal requires a finished game, phase: %s", phase))
}

func ErrBoardsNotSubmitted() error {
	return NewGameError(CodeBoardsNotSubmitted, "both players must submit boards before play")
}

func ErrNotAParticipant(playerUuid string) error {
	return NewGameError(CodeNotAParticipant, fmt.Sprintf("caller is not a participant of this game, uuid: %s", playerUuid))
}

func ErrSelfJoin(playerUuid string) error {
	return NewGameError(CodeSelfJoin, fmt.Sprintf("creator cannot join their own game, uuid: %s", playerUuid))
}

func ErrNotYourTurn(playerUuid string) error {
	return NewGameError(CodeNotYourTurn, fmt.Sprintf("not this player's turn, uuid: %s", playerUuid))
}

func ErrSlotOccupied() error {
	return NewGameError(CodeSlotOccupied, "second player slot already taken")
}

func ErrAlreadySubmitted(playerUuid string) error {
	return NewGameError(CodeAlreadySubmitted, fmt.Sprintf("board already submitted by player, uuid: %s", playerUuid))
}

func ErrDuplicateTarget(x, y uint8) error {
	return NewGameError(CodeDuplicateTarget, fmt.Sprintf("cell already fired upon\tx: %d\ty: %d", x, y))
}

func ErrDuplicateOffset(offset uint64) error {
	return NewGameError(CodeDuplicateOffset, fmt.Sprintf("computation offset already pending: %d", offset))
}

func ErrLedgerFull(capacity int) error {
	return NewGameError(CodeLedgerFull, fmt.Sprintf("shot log is at capacity: %d", capacity))
}

func ErrUnknownOffset(offset uint64) error {
	return NewGameError(CodeUnknownOffset, fmt.Sprintf("no pending computation for offset: %d", offset))
}

func ErrComputationInProgress(offset uint64) error {
	return NewGameError(CodeComputationInProgress, fmt.Sprintf("a confidential computation is already pending, offset: %d", offset))
}

// Plumbing errors below carry no rejection code. They indicate a broken
// request or server state, not a rule violation.

func ErrGameNotExists(gameUuid string) error {
	return fmt.Errorf("game with this uuid does not exist, uuid: %s", gameUuid)
}

func ErrGameAlreadyExists(gameUuid string) error {
	return fmt.Errorf("game with this uuid already exists, uuid: %s", gameUuid)
}

func ErrSessionNotFound(sessionId string) error {
	return fmt.Errorf("session not found, id: %s", sessionId)
}

func ErrSessionIsNil(sessionId string) error {
	return fmt.Errorf("session exists but is nil, id: %s", sessionId)
}
