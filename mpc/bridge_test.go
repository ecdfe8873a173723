package mpc

import (
	"errors"
	"testing"
	"time"

	cerr "github.com/stanleykosi/cipher-stratego/internal/error"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// stubService captures submissions so tests control delivery timing.
type stubService struct {
	submitted []Request
	failNext  bool
}

func (s *stubService) Submit(req Request) error {
	if s.failNext {
		s.failNext = false
		return errors.New("service down")
	}
	s.submitted = append(s.submitted, req)
	return nil
}

// chanSink funnels bridge events into channels.
type chanSink struct {
	shots   chan ms.Shot
	reveals chan [2]ms.Grid
}

func newChanSink() *chanSink {
	return &chanSink{
		shots:   make(chan ms.Shot, 4),
		reveals: make(chan [2]ms.Grid, 1),
	}
}

func (c *chanSink) OnShotResolved(game *ms.GameSession, shot ms.Shot, phase ms.GamePhase) {
	c.shots <- shot
}

func (c *chanSink) OnBoardsRevealed(game *ms.GameSession, grids [2]ms.Grid) {
	c.reveals <- grids
}

func sealedBoard(t *testing.T, key *ServiceKey, grid ms.Grid) ms.EncryptedBoard {
	t.Helper()
	board, err := SealBoard(grid, key.Public(), DefaultRowCipherBytes)
	if err != nil {
		t.Fatal(err)
	}
	return board
}

func newBridgedGame(t *testing.T, svc Service, sink EventSink, key *ServiceKey) (*Bridge, *ms.GameSession) {
	t.Helper()

	// One ship cell per board keeps end to end win checks short
	gm := ms.NewGameManager(ms.WithShipCells(1))
	bridge := NewBridge(gm)
	bridge.BindService(svc)
	bridge.BindSink(sink)

	game, err := gm.CreateGame(11, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if err := game.Join("p2"); err != nil {
		t.Fatal(err)
	}

	var grid ms.Grid
	grid[0][0] = ms.CellShip
	if _, err := game.SubmitBoard("p1", sealedBoard(t, key, grid)); err != nil {
		t.Fatal(err)
	}
	if _, err := game.SubmitBoard("p2", sealedBoard(t, key, grid)); err != nil {
		t.Fatal(err)
	}
	return bridge, game
}

func TestBridgeCheckShotLifecycle(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}
	svc := &stubService{}
	sink := newChanSink()
	bridge, game := newBridgedGame(t, svc, sink, key)

	if err := bridge.RequestCheckShot(game, "p1", 100, ms.NewCoord(0, 0)); err != nil {
		t.Fatal(err)
	}
	if len(svc.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(svc.submitted))
	}
	req := svc.submitted[0]
	if req.Kind != ms.ComputationCheckShot || req.Offset != 100 {
		t.Fatalf("unexpected request: %+v", req)
	}

	// Second request while suspended: the session rejects it and the
	// reserved offset is rolled back
	err = bridge.RequestCheckShot(game, "p1", 101, ms.NewCoord(1, 0))
	if code, _ := cerr.CodeOf(err); code != cerr.CodeComputationInProgress {
		t.Fatalf("expected ComputationInProgress, got: %v", err)
	}

	// Reusing a pending offset fails before the session is touched
	err = bridge.RequestCheckShot(game, "p1", 100, ms.NewCoord(1, 0))
	if code, _ := cerr.CodeOf(err); code != cerr.CodeDuplicateOffset {
		t.Fatalf("expected DuplicateOffset, got: %v", err)
	}

	if err := bridge.Deliver(Result{Offset: 100, Kind: ms.ComputationCheckShot, IsHit: true, ShipsRemaining: 15}); err != nil {
		t.Fatal(err)
	}

	select {
	case shot := <-sink.shots:
		if shot.Result != ms.ShotHit || shot.Player != "p1" {
			t.Fatalf("unexpected shot event: %+v", shot)
		}
	case <-time.After(time.Second):
		t.Fatal("no shot event delivered")
	}

	// Exactly-once: the offset was consumed
	err = bridge.Deliver(Result{Offset: 100, Kind: ms.ComputationCheckShot})
	if code, _ := cerr.CodeOf(err); code != cerr.CodeUnknownOffset {
		t.Fatalf("expected UnknownOffset on replay, got: %v", err)
	}
}

func TestBridgeDeliverUnknownOffset(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}
	bridge, _ := newBridgedGame(t, &stubService{}, newChanSink(), key)

	err = bridge.Deliver(Result{Offset: 555, Kind: ms.ComputationCheckShot})
	if code, _ := cerr.CodeOf(err); code != cerr.CodeUnknownOffset {
		t.Fatalf("expected UnknownOffset, got: %v", err)
	}
}

func TestBridgeSubmitFailureRollsBack(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}
	svc := &stubService{failNext: true}
	bridge, game := newBridgedGame(t, svc, newChanSink(), key)

	if err := bridge.RequestCheckShot(game, "p1", 200, ms.NewCoord(0, 0)); err == nil {
		t.Fatal("expected the submit failure to surface")
	}

	// Both the offset and the session lane must be free again
	if _, prs := game.Pending(); prs {
		t.Fatal("pending marker survived the rollback")
	}
	if err := bridge.RequestCheckShot(game, "p1", 200, ms.NewCoord(0, 0)); err != nil {
		t.Fatal(err)
	}
}

func TestBridgeForfeitRace(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}
	svc := &stubService{}
	sink := newChanSink()
	bridge, game := newBridgedGame(t, svc, sink, key)

	if err := bridge.RequestCheckShot(game, "p1", 300, ms.NewCoord(0, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := game.Forfeit("p2"); err != nil {
		t.Fatal(err)
	}

	// The late result is dropped, not applied
	if err := bridge.Deliver(Result{Offset: 300, Kind: ms.ComputationCheckShot, IsHit: true, ShipsRemaining: 15}); err == nil {
		t.Fatal("expected the orphaned result to be rejected")
	}
	if len(game.ShotLog()) != 0 {
		t.Fatal("an orphaned result reached the shot log")
	}

	select {
	case <-sink.shots:
		t.Fatal("an orphaned result reached the sink")
	default:
	}
}

// End to end with the real in-process service: fire a shot into a ship
// cell, then reveal both boards.
func TestLocalServiceRoundTrip(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}
	sink := newChanSink()

	svc := NewLocalService(key)
	bridge, game := newBridgedGame(t, svc, sink, key)
	svc.BindReceiver(bridge)

	if err := bridge.RequestCheckShot(game, "p1", 400, ms.NewCoord(0, 0)); err != nil {
		t.Fatal(err)
	}

	select {
	case shot := <-sink.shots:
		if shot.Result != ms.ShotHit {
			t.Fatalf("expected a hit on the ship cell, got: %+v", shot)
		}
		// The single ship cell is gone, so the attacker won
		if game.Phase() != ms.PhaseP1Won {
			t.Fatalf("expected P1Won, got %s", game.Phase().String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("shot was never resolved")
	}

	if err := bridge.RequestReveal(game, "p2", 401); err != nil {
		t.Fatal(err)
	}

	select {
	case grids := <-sink.reveals:
		if grids[0][0][0] != ms.CellShip || grids[1][0][0] != ms.CellShip {
			t.Fatal("revealed grids do not match the sealed boards")
		}
		if game.Phase() != ms.PhaseRevealed {
			t.Fatalf("expected Revealed, got %s", game.Phase().String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("boards were never revealed")
	}
}
