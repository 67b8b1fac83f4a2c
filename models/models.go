// models/models.go
package models

import (
	"time"
)

// ScoreEntry is one line of a final scoreboard.
type ScoreEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
}

// GameRecord is the archived result of one finished game.
type GameRecord struct {
	RoomCode   string       `json:"room_code"`
	Rounds     int          `json:"rounds"`
	Scoreboard []ScoreEntry `json:"scoreboard"`
	FinishedAt time.Time    `json:"finished_at"`
}
