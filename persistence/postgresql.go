// persistence/postgresql.go
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/jkobber/quizroom/models"
)

// PostgreSQL is the plain database/sql store, for deployments that do not
// want the gorm layer.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	store := &PostgreSQL{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PostgreSQL) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS game_records (
			id SERIAL PRIMARY KEY,
			room_code TEXT NOT NULL,
			rounds INT NOT NULL DEFAULT 0,
			scoreboard JSONB NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_game_records_room_code ON game_records (room_code);
	`)
	return err
}

func (s *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	board, err := json.Marshal(record.Scoreboard)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO game_records (room_code, rounds, scoreboard, finished_at) VALUES ($1, $2, $3, $4)`,
		record.RoomCode, record.Rounds, board, record.FinishedAt,
	)
	return err
}

func (s *PostgreSQL) RecentGames(limit int) ([]models.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT room_code, rounds, scoreboard, finished_at FROM game_records ORDER BY finished_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.GameRecord
	for rows.Next() {
		var (
			record   models.GameRecord
			board    []byte
			finished time.Time
		)
		if err := rows.Scan(&record.RoomCode, &record.Rounds, &board, &finished); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(board, &record.Scoreboard); err != nil {
			return nil, err
		}
		record.FinishedAt = finished
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *PostgreSQL) Close() error {
	return s.db.Close()
}
