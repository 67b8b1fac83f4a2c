// services/history_service.go
package services

import (
	"github.com/jkobber/quizroom/logger"
	"github.com/jkobber/quizroom/models"
	"github.com/jkobber/quizroom/persistence"
)

// History archives finished games through the configured store. It satisfies
// the room package's Recorder interface.
type History struct {
	store persistence.Store
}

func NewHistory(store persistence.Store) *History {
	return &History{store: store}
}

// RecordGame persists one final scoreboard. Failures are logged and dropped;
// archiving must never interfere with live rooms.
func (h *History) RecordGame(record *models.GameRecord) {
	if err := h.store.SaveGameRecord(record); err != nil {
		logger.Log.Errorf("Failed to archive game record for room %s: %v", record.RoomCode, err)
	}
}

// RecentGames returns the newest archived results, most recent first.
func (h *History) RecentGames(limit int) ([]models.GameRecord, error) {
	return h.store.RecentGames(limit)
}
