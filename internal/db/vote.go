package db

import "time"

type Vote struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	RoomID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_room_user"`
	AnswerID  string    `gorm:"type:uuid;index;not null"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_votes_room_user"`
	CreatedAt time.Time `gorm:"not null"`
}
