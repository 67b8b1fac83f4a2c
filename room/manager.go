// room/manager.go
package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jkobber/quizroom/question"
	"github.com/jkobber/quizroom/timer"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 5
)

// Manager is the process-wide room registry. It starts empty; rooms are
// created on host request and reaped when empty or idle.
type Manager struct {
	rooms    map[string]*Room
	mutex    sync.RWMutex
	settings Settings
	reaperID int64
}

func NewManager(settings Settings) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		settings: settings,
	}
}

// CreateRoom generates a fresh code, builds the room in the lobby phase and
// joins the creator as its host.
func (m *Manager) CreateRoom(hostName, avatar string, questions []question.Question, broadcaster Broadcaster, recorder Recorder) (*Room, string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := m.generateCodeLocked()
	r := NewRoom(code, questions, m.settings, broadcaster, recorder)

	hostID, _, err := r.Join(hostName, avatar, "")
	if err != nil {
		r.Close()
		return nil, "", err
	}

	m.rooms[code] = r
	return r, hostID, nil
}

func (m *Manager) GetRoom(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, exists := m.rooms[code]
	return r, exists
}

// RemoveRoom closes a room and drops it from the registry.
func (m *Manager) RemoveRoom(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r, exists := m.rooms[code]; exists {
		r.Close()
		delete(m.rooms, code)
	}
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Summary is the admin view of one room.
type Summary struct {
	Code          string
	Phase         string
	Players       int
	Connected     int
	QuestionIndex int
	CreatedAt     time.Time
}

func (m *Manager) Summaries() []Summary {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		snap := r.Snapshot()
		connected := 0
		for _, p := range snap.Players {
			if p.Connected {
				connected++
			}
		}
		out = append(out, Summary{
			Code:          snap.Code,
			Phase:         snap.Phase,
			Players:       len(snap.Players),
			Connected:     connected,
			QuestionIndex: snap.QuestionIndex,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

// StartReaper schedules a periodic sweep destroying reapable rooms.
func (m *Manager) StartReaper(timers *timer.Manager, interval time.Duration) {
	m.reaperID = timers.Add(interval, interval, m.Sweep)
}

// Sweep removes every room that is empty or past its idle grace.
func (m *Manager) Sweep() {
	now := time.Now()

	m.mutex.RLock()
	var doomed []string
	for code, r := range m.rooms {
		if r.Reapable(now) {
			doomed = append(doomed, code)
		}
	}
	m.mutex.RUnlock()

	for _, code := range doomed {
		m.RemoveRoom(code)
	}
}

func (m *Manager) generateCodeLocked() string {
	for {
		code := make([]byte, codeLength)
		for i := range code {
			code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		if _, exists := m.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}
