package db

import "time"

type GameState struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	RoomID       string    `gorm:"type:uuid;uniqueIndex;not null"`
	CurrentTopic *string   `gorm:"size:256"`
	Phase        string    `gorm:"size:32;not null"`
	Round        int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (GameState) TableName() string { return "game_state" }
