package db

import "time"

type Answer struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	RoomID      string    `gorm:"type:uuid;index;not null"`
	GameStateID string    `gorm:"type:uuid;not null;uniqueIndex:idx_answers_state_user"`
	UserID      string    `gorm:"size:64;not null;uniqueIndex:idx_answers_state_user"`
	UserName    string    `gorm:"size:64;not null"`
	AnswerText  string    `gorm:"size:400;not null"`
	Votes       int       `gorm:"not null;default:0"`
	IsRevealed  bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
