package connection

import (
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

type RespErr struct {
	ErrorDetails  string `json:"error_details"`
	Message       string `json:"message,omitempty"`
	GameErrorCode *uint8 `json:"game_error_code,omitempty"`
}

func NewRespErr(errorDetails, message string) *RespErr {
	return &RespErr{ErrorDetails: errorDetails, Message: message}
}

type RespSessionId struct {
	SessionID string `json:"session_id"`
}

type RespCreateGame struct {
	GameUuid   string `json:"game_uuid"`
	PlayerUuid string `json:"player_uuid"`
	Phase      string `json:"phase"`
}

type RespJoinGame struct {
	GameUuid   string    `json:"game_uuid"`
	PlayerUuid string    `json:"player_uuid"`
	Phase      string    `json:"phase"`
	Players    [2]string `json:"players"`
}

// RespSubmitBoard acks one submission. Started flips when the second
// board arrives; both players additionally receive CodeStartGame.
type RespSubmitBoard struct {
	GameUuid string `json:"game_uuid"`
	Phase    string `json:"phase"`
	Started  bool   `json:"started"`
}

// RespFireShot acks that the shot was accepted and is being resolved.
// The resolution itself arrives later as CodeShotResolved.
type RespFireShot struct {
	GameUuid string `json:"game_uuid"`
	Offset   uint64 `json:"offset"`
}

// RespShotResolved is pushed to both players when a confidential
// computation delivers. The result and ships-remaining are public; the
// board contents stay sealed.
type RespShotResolved struct {
	GameUuid       string `json:"game_uuid"`
	Player         string `json:"player"`
	X              uint8  `json:"x"`
	Y              uint8  `json:"y"`
	Result         string `json:"result"`
	ShipsRemaining uint8  `json:"ships_remaining"`
	Phase          string `json:"phase"`
	TurnCounter    uint64 `json:"turn_counter"`
}

type RespEndGame struct {
	GameUuid string `json:"game_uuid"`
	Phase    string `json:"phase"`
}

type RespRequestReveal struct {
	GameUuid string `json:"game_uuid"`
	Offset   uint64 `json:"offset"`
}

// RespBoardsRevealed publishes both plaintext grids after the reveal
// computation, together with the replay audit over the public shot log.
type RespBoardsRevealed struct {
	GameUuid      string     `json:"game_uuid"`
	Phase         string     `json:"phase"`
	Grids         [2]ms.Grid `json:"grids"`
	AuditClean    bool       `json:"audit_clean"`
	AuditFindings []string   `json:"audit_findings,omitempty"`
	ShotLog       []ms.Shot  `json:"shot_log"`
}
