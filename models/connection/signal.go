package connection

const (
	CodeSessionID uint8 = iota
	CodeReceivedInvalidSessionID

	// Player-facing operations
	CodeCreateGame
	CodeJoinGame
	CodeSubmitBoard
	CodeFireShot
	CodeForfeit
	CodeRequestReveal

	// Events pushed by the server
	CodeStartGame
	CodeShotResolved
	CodeGameStateChanged
	CodeEndGame
	CodeBoardsRevealed

	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent

	CodeOtherPlayerDisconnected
	CodeOtherPlayerReconnected
	CodeOtherPlayerGracePeriod
)

type Signal struct {
	Code uint8 `json:"code"`
}

func NewSignal(code uint8) Signal {
	return Signal{Code: code}
}
