package db

import "time"

// Player is a seat in a room. UserID is the chosen display name; a rejoin with the
// same name reuses the row.
type Player struct {
	ID         string    `gorm:"primaryKey;type:uuid"`
	RoomID     string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_players_room_user;uniqueIndex:idx_players_one_dealer,where:role = 'dealer' AND is_active"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_user"`
	UserName   string    `gorm:"size:64;not null"`
	Role       string    `gorm:"size:16;not null"`
	IsActive   bool      `gorm:"not null;default:true;index"`
	LastSeenAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
