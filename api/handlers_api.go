package api

import (
	"encoding/json"
	"fmt"

	cerr "github.com/stanleykosi/cipher-stratego/internal/error"
	mc "github.com/stanleykosi/cipher-stratego/models/connection"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
	"github.com/stanleykosi/cipher-stratego/mpc"
)

// Every incoming valid request has this structure. The caller identity
// is always the session id; it never comes from the payload.
type Request struct {
	payload []byte
}

func NewRequest(payload []byte) Request {
	return Request{payload: payload}
}

// addOpError attaches a rejection to the response, with its taxonomy
// code when the error carries one.
func addOpError[T any](msg *mc.Message[T], err error) {
	if code, ok := cerr.CodeOf(err); ok {
		msg.AddGameError(code, err.Error())
		return
	}
	msg.AddError(err.Error(), "")
}

func (r Request) HandleCreateGame(gameManager *ms.GameManager, sessionId string) (*ms.GameSession, mc.Message[mc.RespCreateGame]) {
	respMsg := mc.NewMessage[mc.RespCreateGame](mc.CodeCreateGame)

	var reqMsg mc.Message[mc.ReqCreateGame]
	if err := json.Unmarshal(r.payload, &reqMsg); err != nil {
		respMsg.AddError(err.Error(), "")
		return nil, respMsg
	}

	game, err := gameManager.CreateGame(reqMsg.Payload.Seed, sessionId)
	if err != nil {
		addOpError(&respMsg, err)
		return nil, respMsg
	}

	respMsg.AddPayload(mc.RespCreateGame{
		GameUuid:   game.Uuid(),
		PlayerUuid: sessionId,
		Phase:      game.Phase().String(),
	})
	return game, respMsg
}

func (r Request) HandleJoinGame(gameManager *ms.GameManager, sessionId string) (*ms.GameSession, mc.Message[mc.RespJoinGame]) {
	respMsg := mc.NewMessage[mc.RespJoinGame](mc.CodeJoinGame)

	var reqMsg mc.Message[mc.ReqJoinGame]
	if err := json.Unmarshal(r.payload, &reqMsg); err != nil {
		respMsg.AddError(err.Error(), "")
		return nil, respMsg
	}

	game, err := gameManager.FindGame(reqMsg.Payload.GameUuid)
	if err != nil {
		addOpError(&respMsg, err)
		return nil, respMsg
	}

	if err := game.Join(sessionId); err != nil {
		addOpError(&respMsg, err)
		return nil, respMsg
	}

	respMsg.AddPayload(mc.RespJoinGame{
		GameUuid:   game.Uuid(),
		PlayerUuid: sessionId,
		Phase:      game.Phase().String(),
		Players:    game.Players(),
	})
	return game, respMsg
}

func (r Request) HandleSubmitBoard(gameManager *ms.GameManager, sessionId string) (*ms.GameSession, bool, mc.Message[mc.RespSubmitBoard]) {
	respMsg := mc.NewMessage[mc.RespSubmitBoard](mc.CodeSubmitBoard)

	var reqMsg mc.Message[mc.ReqSubmitBoard]
	if err := json.Unmarshal(r.payload, &reqMsg); err != nil {
		respMsg.AddError(err.Error(), "")
		return nil, false, respMsg
	}

	game, err := gameManager.FindGame(reqMsg.Payload.GameUuid)
	if err != nil {
		addOpError(&respMsg, err)
		return nil, false, respMsg
	}

	board, err := boardFromReq(reqMsg.Payload)
	if err != nil {
		respMsg.AddError(err.Error(), "")
		return nil, false, respMsg
	}

	started, err := game.SubmitBoard(sessionId, board)
	if err != nil {
		addOpError(&respMsg, err)
		return nil, false, respMsg
	}

	respMsg.AddPayload(mc.RespSubmitBoard{
		GameUuid: game.Uuid(),
		Phase:    game.Phase().String(),
		Started:  started,
	})
	return game, started, respMsg
}

func (r Request) HandleFireShot(gameManager *ms.GameManager, bridge *mpc.Bridge, sessionId string) mc.Message[mc.RespFireShot] {
	respMsg := mc.NewMessage[mc.RespFireShot](mc.CodeFireShot)

	var reqMsg mc.Message[mc.ReqFireShot]
	if err := json.Unmarshal(r.payload, &reqMsg); err != nil {
		respMsg.AddError(err.Error(), "")
		return respMsg
	}

	game, err := gameManager.FindGame(reqMsg.Payload.GameUuid)
	if err != nil {
		addOpError(&respMsg, err)
		return respMsg
	}

	coord := ms.Coord{X: reqMsg.Payload.X, Y: reqMsg.Payload.Y}
	if err := bridge.RequestCheckShot(game, sessionId, reqMsg.Payload.Offset, coord); err != nil {
		addOpError(&respMsg, err)
		return respMsg
	}

	respMsg.AddPayload(mc.RespFireShot{GameUuid: game.Uuid(), Offset: reqMsg.Payload.Offset})
	return respMsg
}

func (r Request) HandleForfeit(gameManager *ms.GameManager, sessionId string) (*ms.GameSession, mc.Message[mc.RespEndGame]) {
	respMsg := mc.NewMessage[mc.RespEndGame](mc.CodeEndGame)

	var reqMsg mc.Message[mc.ReqForfeit]
	if err := json.Unmarshal(r.payload, &reqMsg); err != nil {
		respMsg.AddError(err.Error(), "")
		return nil, respMsg
	}

	game, err := gameManager.FindGame(reqMsg.Payload.GameUuid)
	if err != nil {
		addOpError(&respMsg, err)
		return nil, respMsg
	}

	phase, err := game.Forfeit(sessionId)
	if err != nil {
		addOpError(&respMsg, err)
		return nil, respMsg
	}

	respMsg.AddPayload(mc.RespEndGame{GameUuid: game.Uuid(), Phase: phase.String()})
	return game, respMsg
}

func (r Request) HandleRequestReveal(gameManager *ms.GameManager, bridge *mpc.Bridge, sessionId string) mc.Message[mc.RespRequestReveal] {
	respMsg := mc.NewMessage[mc.RespRequestReveal](mc.CodeRequestReveal)

	var reqMsg mc.Message[mc.ReqRequestReveal]
	if err := json.Unmarshal(r.payload, &reqMsg); err != nil {
		respMsg.AddError(err.Error(), "")
		return respMsg
	}

	game, err := gameManager.FindGame(reqMsg.Payload.GameUuid)
	if err != nil {
		addOpError(&respMsg, err)
		return respMsg
	}

	if err := bridge.RequestReveal(game, sessionId, reqMsg.Payload.Offset); err != nil {
		addOpError(&respMsg, err)
		return respMsg
	}

	respMsg.AddPayload(mc.RespRequestReveal{GameUuid: game.Uuid(), Offset: reqMsg.Payload.Offset})
	return respMsg
}

// boardFromReq validates the wire sizes of a sealed board and converts
// it to the fixed-size commitment the ledger stores.
func boardFromReq(req mc.ReqSubmitBoard) (ms.EncryptedBoard, error) {
	var board ms.EncryptedBoard

	if len(req.Rows) != ms.BoardSize {
		return board, fmt.Errorf("expected %d encrypted rows, got %d", ms.BoardSize, len(req.Rows))
	}
	for i, row := range req.Rows {
		if len(row) == 0 {
			return board, fmt.Errorf("encrypted row %d is empty", i)
		}
		board.Rows[i] = row
	}
	if len(req.PublicKey) != len(board.PublicKey) {
		return board, fmt.Errorf("expected %d-byte public key, got %d", len(board.PublicKey), len(req.PublicKey))
	}
	copy(board.PublicKey[:], req.PublicKey)

	if len(req.Nonce) != len(board.Nonce) {
		return board, fmt.Errorf("expected %d-byte nonce, got %d", len(board.Nonce), len(req.Nonce))
	}
	copy(board.Nonce[:], req.Nonce)

	board.CommitmentRoot = req.CommitmentRoot
	return board, nil
}
