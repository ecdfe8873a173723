package connection

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	cerr "github.com/stanleykosi/cipher-stratego/internal/error"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

type SessionManager interface {
	GenerateNewSession(conn *websocket.Conn) *Session
	CleanupPeriodically()

	FindSession(sessionId string) (*Session, error)
	TerminateSession(session *Session)
	ReconnectSession(session *Session, conn *websocket.Conn)
	Communicate(receiverSessionId string, msg interface{}, msgType uint8) error
	HandleAbnormalClosureSession(session *Session) error
	GetSessionId(session *Session) string

	WriteToSessionConn(session *Session, msg interface{}, msgType uint8) error
	ReadFromSessionConn(session *Session) (int, []byte, error)
	FetchCodeFromMsg(session *Session, payload []byte) (uint8, error)

	GetSessionGame(session *Session) *ms.GameSession
	GetSessionPlayerUuid(session *Session) string

	SetSessionGame(session *Session, game *ms.GameSession)
	SetSessionPlayerUuid(session *Session, playerUuid string)
}

type StrategoSessionManager struct {
	cleanupInterval time.Duration
	sessions        map[string]*Session
	mu              sync.RWMutex
}

func NewStrategoSessionManager() *StrategoSessionManager {
	initMapSize := 10

	return &StrategoSessionManager{
		sessions:        make(map[string]*Session, initMapSize),
		cleanupInterval: time.Minute * 20,
	}
}

var _ SessionManager = (*StrategoSessionManager)(nil)

func (ssm *StrategoSessionManager) GetSessionGame(session *Session) *ms.GameSession {
	return session.game
}

func (ssm *StrategoSessionManager) SetSessionGame(session *Session, game *ms.GameSession) {
	session.game = game
}

func (ssm *StrategoSessionManager) GetSessionPlayerUuid(session *Session) string {
	return session.playerUuid
}

func (ssm *StrategoSessionManager) SetSessionPlayerUuid(session *Session, playerUuid string) {
	session.playerUuid = playerUuid
}

func (ssm *StrategoSessionManager) GenerateNewSession(conn *websocket.Conn) *Session {
	sessionId := base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))

	ssm.mu.Lock()
	ssm.sessions[sessionId] = NewSession(sessionId, conn)
	session := ssm.sessions[sessionId]
	ssm.mu.Unlock()

	return session
}

func (ssm *StrategoSessionManager) FindSession(sessionId string) (*Session, error) {
	ssm.mu.RLock()
	defer ssm.mu.RUnlock()

	session, prs := ssm.sessions[sessionId]
	if !prs {
		return nil, cerr.ErrSessionNotFound(sessionId)
	}

	if session == nil {
		return nil, cerr.ErrSessionIsNil(sessionId)
	}

	return session, nil
}

func (ssm *StrategoSessionManager) TerminateSession(session *Session) {
	ssm.mu.Lock()
	delete(ssm.sessions, session.id)
	ssm.mu.Unlock()
}

func (ssm *StrategoSessionManager) ReconnectSession(session *Session, conn *websocket.Conn) {
	session.reconnectionAfterAbnormalClosure(conn)
}

// Communicate sends the msg from one session to another.
func (ssm *StrategoSessionManager) Communicate(receiverSessionId string, msg interface{}, msgType uint8) error {
	receiverSession, err := ssm.FindSession(receiverSessionId)
	if err != nil {
		return err
	}
	return ssm.WriteToSessionConn(receiverSession, msg, msgType)
}

// To ensure that there are no dangling connections, sessions older than
// the cleanup interval are marked stale and deleted.
func (ssm *StrategoSessionManager) CleanupPeriodically() {
	assumedClosedConns := 10

	for {
		time.Sleep(ssm.cleanupInterval)

		ssm.mu.Lock()
		toDelete := make([]string, 0, assumedClosedConns)

		for ID, session := range ssm.sessions {
			if time.Since(session.createdAt) > ssm.cleanupInterval {
				toDelete = append(toDelete, ID)
			}
		}

		for _, ID := range toDelete {
			delete(ssm.sessions, ID)
			log.Info("cleaned up stale session", "id", ID)
		}
		ssm.mu.Unlock()
	}
}

// HandleAbnormalClosureSession covers abnormal closures of either
// client, e.g. mobile backgrounding. The other player gets a grace
// period notification and either a reconnect or disconnect event.
func (ssm *StrategoSessionManager) HandleAbnormalClosureSession(s *Session) error {
	// No game on the session means there is nothing to preserve across
	// the grace period.
	if s.game == nil || s.playerUuid == "" {
		return NewConnErr(ConnLoopBreak).AddDesc("game or player is nil")
	}

	otherUuid := s.game.OtherPlayer(s.playerUuid)
	if otherUuid == "" {
		return NewConnErr(ConnLoopBreak).AddDesc("other player is absent; invalid session")
	}

	// The other player's session id is their uuid in this protocol.
	otherSession, err := ssm.FindSession(otherUuid)
	if err != nil {
		return NewConnErr(ConnLoopBreak).AddDesc("other session is nil; invalid session")
	}

	// If the other session connection is faulty too, there is no need to continue
	if err := otherSession.writeToConnWithRetry(NewMessage[NoPayload](CodeOtherPlayerGracePeriod), MessageTypeJSON); err != nil {
		return err
	}

	timer := time.NewTimer(gracePeriod)
	select {
	case <-timer.C:
		if err := otherSession.writeToConnWithRetry(NewMessage[NoPayload](CodeOtherPlayerDisconnected), MessageTypeJSON); err != nil {
			return err
		}

		log.Info("session terminated after grace period", "id", s.id)
		return NewConnErr(ConnLoopBreak).AddDesc("grace period is over for session: " + s.id)

	case <-s.reconnectionSignalChan:
		if err := otherSession.writeToConnWithRetry(NewMessage[NoPayload](CodeOtherPlayerReconnected), MessageTypeJSON); err != nil {
			return err
		}
		log.Info("player reconnected", "session", s.id)
		return nil
	}
}

func (ssm *StrategoSessionManager) WriteToSessionConn(session *Session, msg interface{}, msgType uint8) error {
	err := session.writeToConnWithRetry(msg, msgType)

	if err != nil {
		connErr, ok := err.(ConnErr)
		if !ok {
			panic("this will never happen")
		}

		switch connErr.Code() {
		case ConnLoopBreak, ConnInvalidMsgType:
			return connErr

		case ConnLoopAbnormalClosureRetry:
			if err := ssm.HandleAbnormalClosureSession(session); err != nil {
				return connErr
			}
		}
	}

	return nil
}

func (ssm *StrategoSessionManager) ReadFromSessionConn(session *Session) (int, []byte, error) {
	var retries uint8

	for {
		messageType, payload, err := session.conn.ReadMessage()
		if err == nil {
			return messageType, payload, nil
		}

		switch session.handleReadFromConnErr(err, retries) {
		case ConnLoopContinue:
			retries++
			continue

		case ConnLoopAbnormalClosureRetry:
			if err := ssm.HandleAbnormalClosureSession(session); err != nil {
				return -1, []byte{}, err
			}

		default:
			return -1, []byte{}, err
		}
	}
}

func (ssm *StrategoSessionManager) GetSessionId(session *Session) string {
	return session.id
}

func (ssm *StrategoSessionManager) FetchCodeFromMsg(session *Session, payload []byte) (uint8, error) {
	var signal Signal
	const randomInvalidCode uint8 = 255

	if err := json.Unmarshal(payload, &signal); err != nil {
		return randomInvalidCode, err
	}

	return signal.Code, nil
}
