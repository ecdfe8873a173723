package connection

type NoPayload bool

// Message is the envelope of every websocket frame in both directions.
// Code selects the operation or event; Error is set instead of Payload
// on rejections and carries the machine-readable game error code.
type Message[T any] struct {
	Code    uint8    `json:"code"`
	Payload T        `json:"payload,omitempty"`
	Error   *RespErr `json:"error,omitempty"`
}

func NewMessage[T any](code uint8) Message[T] {
	return Message[T]{Code: code}
}

func (m *Message[T]) AddPayload(payload T) {
	m.Payload = payload
}

func (m *Message[T]) AddError(errorDetails, message string) {
	m.Error = NewRespErr(errorDetails, message)
}

// AddGameError attaches a rejection with its taxonomy code so clients
// can branch without parsing message text.
func (m *Message[T]) AddGameError(code uint8, errorDetails string) {
	m.Error = NewRespErr(errorDetails, "")
	m.Error.GameErrorCode = &code
}
