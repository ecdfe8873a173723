package connection

// Incoming payloads. Every request that touches an existing game carries
// its uuid; the caller identity is the session id, never a field the
// client picks.

type ReqCreateGame struct {
	Seed uint64 `json:"seed"`
}

type ReqJoinGame struct {
	GameUuid string `json:"game_uuid"`
}

// ReqSubmitBoard carries the sealed commitment. Rows are the per-row
// ciphertexts, PublicKey the ephemeral X25519 public key, Nonce the
// base IV; sizes are validated server side before anything is stored.
type ReqSubmitBoard struct {
	GameUuid       string   `json:"game_uuid"`
	Rows           [][]byte `json:"rows"`
	PublicKey      []byte   `json:"public_key"`
	Nonce          []byte   `json:"nonce"`
	CommitmentRoot []byte   `json:"commitment_root"`
}

// ReqFireShot starts a shot resolution. Offset is the caller-chosen
// correlation id for the confidential computation; the client must not
// reuse one that is still in flight.
type ReqFireShot struct {
	GameUuid string `json:"game_uuid"`
	Offset   uint64 `json:"offset"`
	X        uint8  `json:"x"`
	Y        uint8  `json:"y"`
}

type ReqForfeit struct {
	GameUuid string `json:"game_uuid"`
}

type ReqRequestReveal struct {
	GameUuid string `json:"game_uuid"`
	Offset   uint64 `json:"offset"`
}
