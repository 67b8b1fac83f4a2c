// broadcast/broadcast.go
package broadcast

import (
	"github.com/jkobber/quizroom/room"
	"github.com/jkobber/quizroom/session"
)

// RoomBroadcaster fans room messages out to the sessions bound to a room
// code. A failed send is treated as an implicit disconnect of that channel,
// never as a broadcast failure.
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomCode string, payload interface{}) error {
	sessions := b.sessionManager.ByRoom(roomCode)

	for _, s := range sessions {
		if err := s.Send(payload); err != nil {
			b.dropSession(roomCode, s)
		}
	}

	return nil
}

func (b *RoomBroadcaster) SendToPlayers(roomCode string, playerIDs []string, payload interface{}) error {
	for _, playerID := range playerIDs {
		for _, s := range b.sessionManager.ByPlayer(roomCode, playerID) {
			if err := s.Send(payload); err != nil {
				b.dropSession(roomCode, s)
			}
		}
	}
	return nil
}

// dropSession converts a send failure into the normal Connected->Disconnected
// transition; transport errors never reach game logic.
func (b *RoomBroadcaster) dropSession(roomCode string, s *session.Session) {
	s.Close()
	b.sessionManager.Remove(s.ID)

	_, playerID := s.Binding()
	if playerID == "" {
		return
	}
	if r, exists := b.roomManager.GetRoom(roomCode); exists {
		r.MarkDisconnected(playerID)
	}
}
