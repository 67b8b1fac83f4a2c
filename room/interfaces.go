package room

import "github.com/jkobber/quizroom/models"

// Broadcaster delivers room messages to connected channels. It is defined
// here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, payload interface{}) error
	SendToPlayers(roomCode string, playerIDs []string, payload interface{}) error
}

// Recorder archives the result of a finished game. Calls happen off the
// room's lock; implementations may block.
type Recorder interface {
	RecordGame(record *models.GameRecord)
}
