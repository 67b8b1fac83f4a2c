// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord mirrors GameRecord for the gorm-backed store. The scoreboard
// is stored as a jsonb blob since it is only ever read back whole.
type GormGameRecord struct {
	gorm.Model
	RoomCode   string `gorm:"index;not null"`
	Rounds     int    `gorm:"default:0"`
	Scoreboard []byte `gorm:"type:jsonb;not null"`
}
