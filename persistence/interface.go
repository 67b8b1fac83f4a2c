// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/jkobber/quizroom/models"
)

// Store archives finished games. Live room state is never persisted; a
// process restart loses all rooms.
type Store interface {
	SaveGameRecord(record *models.GameRecord) error
	RecentGames(limit int) ([]models.GameRecord, error)
	Close() error
}

var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
