package db

import "time"

type Room struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	Name      string    `gorm:"size:64;not null"`
	Password  string    `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
