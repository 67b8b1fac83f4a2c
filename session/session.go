// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/jkobber/quizroom/network"
)

// Session binds one live connection to a (room, player) pair. PlayerID and
// RoomCode are empty until the hello handshake succeeds.
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerID   string
	RoomCode   string
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Bind attaches the session to a room and player after a successful hello.
func (s *Session) Bind(roomCode, playerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RoomCode = roomCode
	s.PlayerID = playerID
}

// Binding returns the room/player pair, empty strings when unbound.
func (s *Session) Binding() (roomCode, playerID string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomCode, s.PlayerID
}

func (s *Session) Send(payload interface{}) error {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
	return s.Conn.Send(payload)
}

func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.LastActive = time.Now()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager indexes live sessions by ID.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// ByRoom returns all sessions bound to a room code.
func (m *Manager) ByRoom(roomCode string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		code, _ := session.Binding()
		if code == roomCode {
			result = append(result, session)
		}
	}
	return result
}

// ByPlayer returns the sessions bound to a specific player in a room. There
// is normally one, briefly two during a reconnect race.
func (m *Manager) ByPlayer(roomCode, playerID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		code, player := session.Binding()
		if code == roomCode && player == playerID {
			result = append(result, session)
		}
	}
	return result
}
