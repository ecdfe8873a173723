package mpc

import (
	"fmt"

	"github.com/charmbracelet/log"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// Request is what the bridge submits to the confidential-computation
// service: the correlation offset, the computation kind, the public
// parameters and the encrypted inputs. Nothing in here reveals a cell.
type Request struct {
	Offset uint64
	Kind   ms.ComputationKind

	// CheckShot parameters. Coord is public by design; HitsSoFar and
	// ShipCells let the computation report the running ships-remaining
	// counter without the ledger ever counting against ship geometry.
	Coord     ms.Coord
	HitsSoFar uint8
	ShipCells uint8
	Target    ms.EncryptedBoard

	// RevealBoards input: both players' commitments.
	Boards [2]ms.EncryptedBoard
}

// Result is the single public callback for a request. Exactly one Result
// is delivered per accepted Request; the service is correct-or-never-
// returns, so there is no error variant.
type Result struct {
	Offset uint64
	Kind   ms.ComputationKind

	IsHit          bool
	ShipsRemaining uint8

	Grids [2]ms.Grid
}

// Service is the submit half of the external interface. Delivery happens
// asynchronously through the ResultReceiver the service was bound to.
type Service interface {
	Submit(req Request) error
}

// ResultReceiver is the authenticated callback entry point. In a real
// deployment only the service's identity may reach it; the transport in
// front of it owns that check.
type ResultReceiver interface {
	Deliver(res Result) error
}

// LocalService executes confidential computations in-process. It stands
// in for the MPC network: it holds the service identity key, opens the
// sealed inputs, and resolves shots with the same data-independence
// discipline the real circuits are held to.
type LocalService struct {
	key      *ServiceKey
	receiver ResultReceiver
}

func NewLocalService(key *ServiceKey) *LocalService {
	return &LocalService{key: key}
}

// BindReceiver wires the delivery side. Must be called before Submit;
// the bridge and the service reference each other, so binding happens
// after both are constructed.
func (s *LocalService) BindReceiver(r ResultReceiver) {
	s.receiver = r
}

// Submit acks the request and schedules execution. Delivery arrives on a
// separate goroutine, the same request→ack→deliver shape as the real
// network round trip.
func (s *LocalService) Submit(req Request) error {
	if s.receiver == nil {
		return fmt.Errorf("computation service has no bound receiver")
	}

	switch req.Kind {
	case ms.ComputationCheckShot, ms.ComputationRevealBoards:
	default:
		return fmt.Errorf("unknown computation kind: %d", req.Kind)
	}

	go s.execute(req)
	return nil
}

func (s *LocalService) execute(req Request) {
	res, err := s.compute(req)
	if err != nil {
		// Correct-or-never-returns: a request the service cannot open is
		// never answered. The session stays pending; operators see it here.
		log.Error("confidential computation failed; no result will be delivered",
			"offset", req.Offset, "kind", req.Kind.String(), "err", err)
		return
	}
	if err := s.receiver.Deliver(res); err != nil {
		log.Error("result delivery rejected", "offset", req.Offset, "err", err)
	}
}

func (s *LocalService) compute(req Request) (Result, error) {
	res := Result{Offset: req.Offset, Kind: req.Kind}

	switch req.Kind {
	case ms.ComputationCheckShot:
		row, err := s.key.openRow(req.Target, int(req.Coord.Y))
		if err != nil {
			return Result{}, err
		}

		cell := obliviousGather(row, req.Coord.X)
		res.IsHit = cell == ms.CellShip

		remaining := req.ShipCells - req.HitsSoFar
		if res.IsHit {
			remaining--
		}
		res.ShipsRemaining = remaining

	case ms.ComputationRevealBoards:
		for i, b := range req.Boards {
			grid, err := s.key.openBoard(b)
			if err != nil {
				return Result{}, err
			}
			res.Grids[i] = grid
		}
	}
	return res, nil
}
