package persistence

import (
	"sync"

	"github.com/jkobber/quizroom/models"
)

// MemoryStore keeps game records in process memory. It is the default store
// and the test double for the database-backed ones.
type MemoryStore struct {
	records []models.GameRecord
	mutex   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveGameRecord(record *models.GameRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *MemoryStore) RecentGames(limit int) ([]models.GameRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	out := make([]models.GameRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
