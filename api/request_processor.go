package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/sqlc-dev/pqtype"

	"github.com/stanleykosi/cipher-stratego/db/sqlc"
	"github.com/stanleykosi/cipher-stratego/internal/audit"
	mc "github.com/stanleykosi/cipher-stratego/models/connection"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
	"github.com/stanleykosi/cipher-stratego/mpc"
)

const (
	URLQuerySessionIDKeyword string = "sessionID"
)

var upgrader = websocket.Upgrader{

	// good average time since this is not a high-latency operation such as video streaming
	HandshakeTimeout: time.Second * 5,

	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RequestProcessor owns one websocket loop per client session and is
// the event sink of the computation bridge: resolutions come back on
// the service goroutine and are pushed to both players from here.
type RequestProcessor struct {
	sessionManager mc.SessionManager
	gameManager    *ms.GameManager
	bridge         *mpc.Bridge
	q              sqlc.Querier
	ipnet          net.IPNet
}

func NewRequestProcessor(
	sessionManager mc.SessionManager,
	gameManager *ms.GameManager,
	bridge *mpc.Bridge,
	q sqlc.Querier,
) *RequestProcessor {
	rp := &RequestProcessor{
		sessionManager: sessionManager,
		gameManager:    gameManager,
		bridge:         bridge,
		q:              q,
	}

	rp.mustGetServerIpNet()
	return rp
}

var _ mpc.EventSink = (*RequestProcessor)(nil)

func (rp *RequestProcessor) mustGetServerIpNet() {
	ifaces, err := net.Interfaces()
	if err != nil {
		panic(err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			panic(err)
		}

		for _, addr := range addrs {
			var ipnet *net.IPNet
			var ip net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ipnet = v
				ip = v.IP

			case *net.IPAddr:
				ip = v.IP
			}

			if ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				rp.ipnet = *ipnet
				return
			}
		}
	}

	panic("ipnet could not be found!")
}

// Expose this method to use it in testing
func (rp *RequestProcessor) GetIpNet() net.IPNet {
	return rp.ipnet
}

func (rp *RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("ws upgrade failed", "err", err)
		http.Error(w, "could not open websocket connection", http.StatusBadRequest)
		return
	}

	sessionIdQuery := r.URL.Query().Get(URLQuerySessionIDKeyword)
	switch sessionIdQuery {
	case "":
		log.Info("new connection established", "remote", conn.RemoteAddr().String())
		rp.processSessionRequests(rp.sessionManager.GenerateNewSession(conn))

	default:
		session, err := rp.sessionManager.FindSession(sessionIdQuery)
		if err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeReceivedInvalidSessionID)
			msg.AddError("session id not found; connect without one", "")
			_ = conn.WriteJSON(msg)
			conn.Close()
			return
		}
		rp.sessionManager.ReconnectSession(session, conn)
	}
}

func (rp *RequestProcessor) processSessionRequests(session *mc.Session) {
	sessionId := session.Id()

	defer func() {
		if game := rp.sessionManager.GetSessionGame(session); game != nil {
			rp.archiveGame(game)
			rp.gameManager.TerminateGame(game.Uuid())
		}
		if session.Conn() != nil {
			session.Conn().Close()
		}
		rp.sessionManager.TerminateSession(session)
	}()

	resp := mc.NewMessage[mc.RespSessionId](mc.CodeSessionID)
	resp.AddPayload(mc.RespSessionId{SessionID: sessionId})
	if err := rp.sessionManager.WriteToSessionConn(session, resp, mc.MessageTypeJSON); err != nil {
		return
	}

	serverPqtypeInet := pqtype.Inet{IPNet: rp.ipnet, Valid: true}

sessionLoop:
	for {
		_, payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			// Happens after retries; the connection could not be recovered
			break sessionLoop
		}

		var signal mc.Signal

		if err := json.Unmarshal(payload, &signal); err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError("incoming req payload must contain 'code' field", "")
			if err = rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
			continue sessionLoop
		}

		switch signal.Code {

		case mc.CodeCreateGame:
			ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
			if err := rp.q.IncrementGamesCreatedCount(ctx, serverPqtypeInet); err != nil {
				// for now not killing the game for it
				log.Error("analytics increment failed", "err", err)
			}
			cancel()

			game, respMsg := NewRequest(payload).HandleCreateGame(rp.gameManager, sessionId)
			if game != nil {
				rp.sessionManager.SetSessionGame(session, game)
				rp.sessionManager.SetSessionPlayerUuid(session, sessionId)
			}

			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}

		case mc.CodeJoinGame:
			game, respMsg := NewRequest(payload).HandleJoinGame(rp.gameManager, sessionId)
			if game != nil {
				rp.sessionManager.SetSessionGame(session, game)
				rp.sessionManager.SetSessionPlayerUuid(session, sessionId)
			}

			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
			if respMsg.Error != nil {
				continue sessionLoop
			}

			// Both seats are taken; tell the creator board setup is open
			stateMsg := mc.NewMessage[mc.NoPayload](mc.CodeGameStateChanged)
			if err := rp.sessionManager.Communicate(game.OtherPlayer(sessionId), stateMsg, mc.MessageTypeJSON); err != nil {
				log.Error("failed to notify creator of join", "err", err)
			}

		case mc.CodeSubmitBoard:
			game, started, respMsg := NewRequest(payload).HandleSubmitBoard(rp.gameManager, sessionId)

			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
			if respMsg.Error != nil {
				continue sessionLoop
			}

			if started {
				respStartGame := mc.NewMessage[mc.NoPayload](mc.CodeStartGame)
				for _, playerUuid := range game.Players() {
					if err := rp.sessionManager.Communicate(playerUuid, respStartGame, mc.MessageTypeJSON); err != nil {
						log.Error("failed to announce game start", "player", playerUuid, "err", err)
					}
				}
			}

		case mc.CodeFireShot:
			respMsg := NewRequest(payload).HandleFireShot(rp.gameManager, rp.bridge, sessionId)

			// The ack only confirms the computation was submitted. The
			// resolution arrives via OnShotResolved.
			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}

		case mc.CodeForfeit:
			game, respMsg := NewRequest(payload).HandleForfeit(rp.gameManager, sessionId)

			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
			if respMsg.Error != nil {
				continue sessionLoop
			}

			rp.archiveGame(game)
			if err := rp.sessionManager.Communicate(game.OtherPlayer(sessionId), respMsg, mc.MessageTypeJSON); err != nil {
				log.Error("failed to notify opponent of forfeit", "err", err)
			}

		case mc.CodeRequestReveal:
			ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
			if err := rp.q.IncrementRevealsRequestedCount(ctx, serverPqtypeInet); err != nil {
				log.Error("analytics increment failed", "err", err)
			}
			cancel()

			respMsg := NewRequest(payload).HandleRequestReveal(rp.gameManager, rp.bridge, sessionId)

			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}

		default:
			respInvalidSignal := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
			respInvalidSignal.AddError("", "invalid code in the incoming payload")
			if err := rp.sessionManager.WriteToSessionConn(session, respInvalidSignal, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
		}
	}
}

// OnShotResolved runs on the computation service goroutine. Both players
// get the public outcome; the shot is archived with the turn counter it
// was resolved at.
func (rp *RequestProcessor) OnShotResolved(game *ms.GameSession, shot ms.Shot, phase ms.GamePhase) {
	respMsg := mc.NewMessage[mc.RespShotResolved](mc.CodeShotResolved)
	respMsg.AddPayload(mc.RespShotResolved{
		GameUuid:       game.Uuid(),
		Player:         shot.Player,
		X:              shot.Coord.X,
		Y:              shot.Coord.Y,
		Result:         shot.Result.String(),
		ShipsRemaining: shot.ShipsRemaining,
		Phase:          phase.String(),
		TurnCounter:    game.TurnCounter(),
	})

	for _, playerUuid := range game.Players() {
		if err := rp.sessionManager.Communicate(playerUuid, respMsg, mc.MessageTypeJSON); err != nil {
			log.Error("failed to push shot resolution", "player", playerUuid, "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := sqlc.NewArchiveManager(rp.q).ArchiveShot(ctx, game.Uuid(), game.TurnCounter(), shot); err != nil {
		log.Error("failed to archive shot", "game", game.Uuid(), "err", err)
	}

	if phase.IsTerminal() {
		endMsg := mc.NewMessage[mc.RespEndGame](mc.CodeEndGame)
		endMsg.AddPayload(mc.RespEndGame{GameUuid: game.Uuid(), Phase: phase.String()})
		for _, playerUuid := range game.Players() {
			if err := rp.sessionManager.Communicate(playerUuid, endMsg, mc.MessageTypeJSON); err != nil {
				log.Error("failed to push end game", "player", playerUuid, "err", err)
			}
		}
		rp.archiveGame(game)
	}
}

// OnBoardsRevealed publishes the plaintext grids with the replay audit
// over the public shot log, then closes the session for good.
func (rp *RequestProcessor) OnBoardsRevealed(game *ms.GameSession, grids [2]ms.Grid) {
	report := audit.Replay(game.Players(), game.Boards(), game.ShotLog(), grids)
	if !report.Clean() {
		log.Warn("reveal audit flagged inconsistencies", "game", game.Uuid(), "report", report.String())
	}

	findings := make([]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		findings = append(findings, f.Detail)
	}

	respMsg := mc.NewMessage[mc.RespBoardsRevealed](mc.CodeBoardsRevealed)
	respMsg.AddPayload(mc.RespBoardsRevealed{
		GameUuid:      game.Uuid(),
		Phase:         game.Phase().String(),
		Grids:         grids,
		AuditClean:    report.Clean(),
		AuditFindings: findings,
		ShotLog:       game.ShotLog(),
	})

	for _, playerUuid := range game.Players() {
		if err := rp.sessionManager.Communicate(playerUuid, respMsg, mc.MessageTypeJSON); err != nil {
			log.Error("failed to push reveal", "player", playerUuid, "err", err)
		}
	}

	rp.archiveGame(game)
}

func (rp *RequestProcessor) archiveGame(game *ms.GameSession) {
	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := sqlc.NewArchiveManager(rp.q).ArchiveGame(ctx, game); err != nil {
		log.Error("failed to archive game", "game", game.Uuid(), "err", err)
	}
}
