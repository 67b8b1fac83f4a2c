package persistence

import (
	"testing"
	"time"

	"github.com/jkobber/quizroom/models"
)

func record(code string) *models.GameRecord {
	return &models.GameRecord{
		RoomCode: code,
		Rounds:   3,
		Scoreboard: []models.ScoreEntry{
			{PlayerID: "p1", Name: "Alice", Avatar: "🦊", Score: 5},
			{PlayerID: "p2", Name: "Bob", Avatar: "🐼", Score: 2},
		},
		FinishedAt: time.Now(),
	}
}

func TestMemoryStore_SaveAndRecent(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	for _, code := range []string{"AAAAA", "BBBBB", "CCCCC"} {
		if err := store.SaveGameRecord(record(code)); err != nil {
			t.Fatalf("SaveGameRecord failed: %v", err)
		}
	}

	// most recent first
	games, err := store.RecentGames(2)
	if err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(games))
	}
	if games[0].RoomCode != "CCCCC" || games[1].RoomCode != "BBBBB" {
		t.Errorf("Unexpected order: %s, %s", games[0].RoomCode, games[1].RoomCode)
	}

	// zero or oversized limits return everything
	games, err = store.RecentGames(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 3 {
		t.Errorf("Expected all 3 records, got %d", len(games))
	}
}

func TestMemoryStore_Empty(t *testing.T) {
	store := NewMemoryStore()

	games, err := store.RecentGames(10)
	if err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("Expected no records, got %d", len(games))
	}
}
