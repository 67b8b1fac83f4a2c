package broadcast

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jkobber/quizroom/room"
	"github.com/jkobber/quizroom/session"
)

// mockConn is a controllable connection double. Flipping fail makes every
// subsequent send error like a dead socket.
type mockConn struct {
	mu     sync.Mutex
	fail   bool
	sent   []interface{}
	closed bool
}

func (c *mockConn) Send(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *mockConn) Read() ([]byte, error)      { return nil, nil }
func (c *mockConn) RemoteAddr() net.Addr       { return &net.TCPAddr{} }
func (c *mockConn) SetHeartbeat(time.Duration) {}

func (c *mockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *mockConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *mockConn) received(payload interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.sent {
		if p == payload {
			return true
		}
	}
	return false
}

func (c *mockConn) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

type marker struct {
	Label string
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBroadcastToRoom_OnlyReachesBoundSessions(t *testing.T) {
	rooms := room.NewManager(room.DefaultSettings())
	sessions := session.NewManager()
	bc := NewRoomBroadcaster(rooms, sessions)

	inRoom := &mockConn{}
	other := &mockConn{}
	unbound := &mockConn{}

	s1 := session.NewSession("s1", inRoom)
	s1.Bind("AB12C", "player1")
	s2 := session.NewSession("s2", other)
	s2.Bind("ZZ99Z", "player2")
	s3 := session.NewSession("s3", unbound)

	sessions.Add(s1)
	sessions.Add(s2)
	sessions.Add(s3)

	payload := marker{Label: "room message"}
	if err := bc.BroadcastToRoom("AB12C", payload); err != nil {
		t.Fatalf("BroadcastToRoom failed: %v", err)
	}

	if !inRoom.received(payload) {
		t.Error("Bound session should receive the broadcast")
	}
	if other.received(payload) {
		t.Error("Session in another room must not receive the broadcast")
	}
	if unbound.received(payload) {
		t.Error("Unbound session must not receive the broadcast")
	}
}

func TestSendToPlayers_TargetsOnlyNamedPlayers(t *testing.T) {
	rooms := room.NewManager(room.DefaultSettings())
	sessions := session.NewManager()
	bc := NewRoomBroadcaster(rooms, sessions)

	target := &mockConn{}
	bystander := &mockConn{}

	s1 := session.NewSession("s1", target)
	s1.Bind("AB12C", "player1")
	s2 := session.NewSession("s2", bystander)
	s2.Bind("AB12C", "player2")

	sessions.Add(s1)
	sessions.Add(s2)

	payload := marker{Label: "just for you"}
	if err := bc.SendToPlayers("AB12C", []string{"player1"}, payload); err != nil {
		t.Fatalf("SendToPlayers failed: %v", err)
	}

	if !target.received(payload) {
		t.Error("Targeted session should receive the message")
	}
	if bystander.received(payload) {
		t.Error("Other players in the room must not receive a targeted message")
	}
}

func TestFailedSendDropsSessionAndDisconnectsPlayer(t *testing.T) {
	rooms := room.NewManager(room.DefaultSettings())
	sessions := session.NewManager()
	bc := NewRoomBroadcaster(rooms, sessions)

	r, hostID, err := rooms.CreateRoom("Host", "🦊", nil, bc, nil)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	t.Cleanup(r.Close)

	playerID, _, err := r.Join("Flaky", "🐼", "")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	hostConn := &mockConn{}
	hostSession := session.NewSession("host", hostConn)
	hostSession.Bind(r.Code, hostID)
	sessions.Add(hostSession)

	flakyConn := &mockConn{}
	flakySession := session.NewSession("flaky", flakyConn)
	flakySession.Bind(r.Code, playerID)
	sessions.Add(flakySession)

	flakyConn.setFail(true)
	bc.BroadcastToRoom(r.Code, marker{Label: "trigger"})

	waitFor(t, "session drop", func() bool {
		_, exists := sessions.Get("flaky")
		return !exists
	})
	if !flakyConn.isClosed() {
		t.Error("Dropped session's connection should be closed")
	}

	waitFor(t, "player disconnect", func() bool {
		for _, p := range r.Snapshot().Players {
			if p.Token == playerID {
				return !p.Connected
			}
		}
		return false
	})

	// the healthy session is untouched
	if _, exists := sessions.Get("host"); !exists {
		t.Error("Healthy session must survive another session's failure")
	}
	if hostConn.isClosed() {
		t.Error("Healthy connection must stay open")
	}
}
