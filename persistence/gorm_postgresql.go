// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jkobber/quizroom/models"
)

// GormPostgreSQL is the gorm-backed store.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (s *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	board, err := json.Marshal(record.Scoreboard)
	if err != nil {
		return err
	}

	row := models.GormGameRecord{
		RoomCode:   record.RoomCode,
		Rounds:     record.Rounds,
		Scoreboard: board,
	}
	row.CreatedAt = record.FinishedAt

	return s.db.Create(&row).Error
}

func (s *GormPostgreSQL) RecentGames(limit int) ([]models.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []models.GormGameRecord
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		record := models.GameRecord{
			RoomCode:   row.RoomCode,
			Rounds:     row.Rounds,
			FinishedAt: row.CreatedAt,
		}
		if err := json.Unmarshal(row.Scoreboard, &record.Scoreboard); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *GormPostgreSQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
