package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/sqlc-dev/pqtype"

	"github.com/stanleykosi/cipher-stratego/db/sqlc"
	"github.com/stanleykosi/cipher-stratego/internal/merkle"
	mc "github.com/stanleykosi/cipher-stratego/models/connection"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
	"github.com/stanleykosi/cipher-stratego/mpc"
)

const (
	testWsUrl     = "ws://127.0.0.1:7171/stratego"
	testSeed      = uint64(9000)
	testShipCells = uint8(1)
	readTimeout   = time.Second * 5
)

var (
	HostConn      *websocket.Conn
	JoinConn      *websocket.Conn
	HostSessionID string
	JoinSessionID string
	testGameUuid  = ms.SessionUuidFromSeed(testSeed)
	testKey       *mpc.ServiceKey
	dialer        = websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
)

// noopQuerier keeps the archive and analytics paths callable without a
// database behind them.
type noopQuerier struct{}

func (noopQuerier) ArchiveGame(ctx context.Context, arg sqlc.ArchiveGameParams) error { return nil }
func (noopQuerier) ArchiveShot(ctx context.Context, arg sqlc.ArchiveShotParams) error { return nil }
func (noopQuerier) GetArchivedShots(ctx context.Context, gameUuid string) ([]sqlc.ShotArchive, error) {
	return nil, nil
}
func (noopQuerier) GetGamesCreatedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	return 0, nil
}
func (noopQuerier) GetRevealsRequestedCount(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	return 0, nil
}
func (noopQuerier) IncrementGamesCreatedCount(ctx context.Context, serverIp pqtype.Inet) error {
	return nil
}
func (noopQuerier) IncrementRevealsRequestedCount(ctx context.Context, serverIp pqtype.Inet) error {
	return nil
}

func TestMain(m *testing.M) {
	key, err := mpc.GenerateServiceKey()
	if err != nil {
		panic(err)
	}
	testKey = key

	go func() {
		sessionManager := mc.NewStrategoSessionManager()
		go sessionManager.CleanupPeriodically()

		gameManager := ms.NewGameManager(ms.WithShipCells(testShipCells))

		bridge := mpc.NewBridge(gameManager)
		service := mpc.NewLocalService(key)
		service.BindReceiver(bridge)
		bridge.BindService(service)

		rp := NewRequestProcessor(sessionManager, gameManager, bridge, noopQuerier{})
		bridge.BindSink(rp)

		mux := http.NewServeMux()
		mux.Handle("GET /stratego", rp)

		if err := http.ListenAndServe("127.0.0.1:7171", mux); err != nil {
			log.Error("test server stopped", "err", err)
			os.Exit(0)
		}
	}()

	// Give the server time to start
	time.Sleep(time.Second * 2)

	c, _, err := dialer.Dial(testWsUrl, nil)
	if err != nil {
		log.Error("host dial failed", "err", err)
		os.Exit(1)
	}
	HostConn = c

	var respSessionId mc.Message[mc.RespSessionId]
	_ = HostConn.ReadJSON(&respSessionId)
	HostSessionID = respSessionId.Payload.SessionID

	c2, _, err := dialer.Dial(testWsUrl, nil)
	if err != nil {
		log.Error("join dial failed", "err", err)
		os.Exit(1)
	}
	JoinConn = c2

	_ = JoinConn.ReadJSON(&respSessionId)
	JoinSessionID = respSessionId.Payload.SessionID

	os.Exit(m.Run())
}

// readUntilCode skips interleaved events until a frame with the wanted
// code arrives, returning its raw payload and error field.
func readUntilCode(t *testing.T, conn *websocket.Conn, code uint8) mc.Message[json.RawMessage] {
	t.Helper()
	deadline := time.Now().Add(readTimeout)
	_ = conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Time{})

	for {
		var msg mc.Message[json.RawMessage]
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading until code %d: %v", code, err)
		}
		if msg.Code == code {
			return msg
		}
	}
}

func payloadAs[T any](t *testing.T, msg mc.Message[json.RawMessage]) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func sealTestBoard(t *testing.T) mc.ReqSubmitBoard {
	t.Helper()

	var grid ms.Grid
	grid[0][0] = ms.CellShip
	if err := ms.ValidateGrid(grid, testShipCells); err != nil {
		t.Fatal(err)
	}

	board, err := mpc.SealBoard(grid, testKey.Public(), mpc.DefaultRowCipherBytes)
	if err != nil {
		t.Fatal(err)
	}

	req := mc.ReqSubmitBoard{
		GameUuid:       testGameUuid,
		PublicKey:      board.PublicKey[:],
		Nonce:          board.Nonce[:],
		CommitmentRoot: merkle.BuildBoardTree(grid).RootBytes(),
	}
	for _, row := range board.Rows {
		req.Rows = append(req.Rows, row)
	}
	return req
}

func TestInvalidSignal(t *testing.T) {
	if err := HostConn.WriteJSON(mc.NewMessage[mc.NoPayload](250)); err != nil {
		t.Fatal(err)
	}
	msg := readUntilCode(t, HostConn, mc.CodeInvalidSignal)
	if msg.Error == nil {
		t.Fatal("expected an error on an invalid signal")
	}
}

func TestCreateGame(t *testing.T) {
	req := mc.NewMessage[mc.ReqCreateGame](mc.CodeCreateGame)
	req.AddPayload(mc.ReqCreateGame{Seed: testSeed})
	if err := HostConn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	msg := readUntilCode(t, HostConn, mc.CodeCreateGame)
	if msg.Error != nil {
		t.Fatalf("create game rejected: %+v", msg.Error)
	}
	resp := payloadAs[mc.RespCreateGame](t, msg)
	if resp.GameUuid != testGameUuid {
		t.Fatalf("expected game uuid %s, got %s", testGameUuid, resp.GameUuid)
	}
	if resp.PlayerUuid != HostSessionID {
		t.Fatal("the caller identity must be the session id")
	}
}

func TestJoinGame(t *testing.T) {
	// Joining a game that does not exist
	badReq := mc.NewMessage[mc.ReqJoinGame](mc.CodeJoinGame)
	badReq.AddPayload(mc.ReqJoinGame{GameUuid: "g-nope"})
	if err := JoinConn.WriteJSON(badReq); err != nil {
		t.Fatal(err)
	}
	msg := readUntilCode(t, JoinConn, mc.CodeJoinGame)
	if msg.Error == nil {
		t.Fatal("expected a rejection for an unknown game uuid")
	}

	req := mc.NewMessage[mc.ReqJoinGame](mc.CodeJoinGame)
	req.AddPayload(mc.ReqJoinGame{GameUuid: testGameUuid})
	if err := JoinConn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	msg = readUntilCode(t, JoinConn, mc.CodeJoinGame)
	if msg.Error != nil {
		t.Fatalf("join rejected: %+v", msg.Error)
	}
	resp := payloadAs[mc.RespJoinGame](t, msg)
	if resp.Phase != ms.PhaseBoardSetup.String() {
		t.Fatalf("expected BoardSetup after join, got %s", resp.Phase)
	}

	// The creator is told the second seat is taken
	readUntilCode(t, HostConn, mc.CodeGameStateChanged)
}

func TestSubmitBoards(t *testing.T) {
	hostReq := mc.NewMessage[mc.ReqSubmitBoard](mc.CodeSubmitBoard)
	hostReq.AddPayload(sealTestBoard(t))
	if err := HostConn.WriteJSON(hostReq); err != nil {
		t.Fatal(err)
	}

	msg := readUntilCode(t, HostConn, mc.CodeSubmitBoard)
	if msg.Error != nil {
		t.Fatalf("host submit rejected: %+v", msg.Error)
	}
	if payloadAs[mc.RespSubmitBoard](t, msg).Started {
		t.Fatal("one board must not start the game")
	}

	joinReq := mc.NewMessage[mc.ReqSubmitBoard](mc.CodeSubmitBoard)
	joinReq.AddPayload(sealTestBoard(t))
	if err := JoinConn.WriteJSON(joinReq); err != nil {
		t.Fatal(err)
	}

	msg = readUntilCode(t, JoinConn, mc.CodeSubmitBoard)
	if msg.Error != nil {
		t.Fatalf("join submit rejected: %+v", msg.Error)
	}
	if !payloadAs[mc.RespSubmitBoard](t, msg).Started {
		t.Fatal("the second board must start the game")
	}

	readUntilCode(t, HostConn, mc.CodeStartGame)
	readUntilCode(t, JoinConn, mc.CodeStartGame)
}

func TestFireShotOutOfTurn(t *testing.T) {
	req := mc.NewMessage[mc.ReqFireShot](mc.CodeFireShot)
	req.AddPayload(mc.ReqFireShot{GameUuid: testGameUuid, Offset: 1, X: 0, Y: 0})
	if err := JoinConn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	msg := readUntilCode(t, JoinConn, mc.CodeFireShot)
	if msg.Error == nil || msg.Error.GameErrorCode == nil {
		t.Fatal("expected a coded rejection for firing out of turn")
	}
}

func TestFireShotResolvesAndEndsGame(t *testing.T) {
	req := mc.NewMessage[mc.ReqFireShot](mc.CodeFireShot)
	req.AddPayload(mc.ReqFireShot{GameUuid: testGameUuid, Offset: 2, X: 0, Y: 0})
	if err := HostConn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	ack := readUntilCode(t, HostConn, mc.CodeFireShot)
	if ack.Error != nil {
		t.Fatalf("fire shot rejected: %+v", ack.Error)
	}

	// Both players get the resolution pushed
	for _, conn := range []*websocket.Conn{HostConn, JoinConn} {
		msg := readUntilCode(t, conn, mc.CodeShotResolved)
		resolved := payloadAs[mc.RespShotResolved](t, msg)
		if resolved.Result != ms.ShotHit.String() {
			t.Fatalf("expected a hit on the ship cell, got %s", resolved.Result)
		}
		if resolved.ShipsRemaining != 0 {
			t.Fatalf("expected 0 ships remaining, got %d", resolved.ShipsRemaining)
		}
	}

	// The single ship cell is gone, so the game ends
	for _, conn := range []*websocket.Conn{HostConn, JoinConn} {
		msg := readUntilCode(t, conn, mc.CodeEndGame)
		end := payloadAs[mc.RespEndGame](t, msg)
		if end.Phase != ms.PhaseP1Won.String() {
			t.Fatalf("expected P1Won, got %s", end.Phase)
		}
	}
}

func TestRequestReveal(t *testing.T) {
	req := mc.NewMessage[mc.ReqRequestReveal](mc.CodeRequestReveal)
	req.AddPayload(mc.ReqRequestReveal{GameUuid: testGameUuid, Offset: 3})
	if err := JoinConn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	ack := readUntilCode(t, JoinConn, mc.CodeRequestReveal)
	if ack.Error != nil {
		t.Fatalf("reveal request rejected: %+v", ack.Error)
	}

	for _, conn := range []*websocket.Conn{HostConn, JoinConn} {
		msg := readUntilCode(t, conn, mc.CodeBoardsRevealed)
		revealed := payloadAs[mc.RespBoardsRevealed](t, msg)

		if revealed.Phase != ms.PhaseRevealed.String() {
			t.Fatalf("expected Revealed, got %s", revealed.Phase)
		}
		if revealed.Grids[0][0][0] != ms.CellShip || revealed.Grids[1][0][0] != ms.CellShip {
			t.Fatal("revealed grids do not match the sealed boards")
		}
		if !revealed.AuditClean {
			t.Fatalf("expected a clean audit, findings: %v", revealed.AuditFindings)
		}
		if len(revealed.ShotLog) != 1 {
			t.Fatalf("expected one ledger entry, got %d", len(revealed.ShotLog))
		}
	}
}
