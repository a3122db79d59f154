package web

import "time"

type RoomSummary struct {
	ID        string
	Name      string
	Phase     string
	Round     int
	Players   int
	CreatedAt time.Time
}

type StatusData struct {
	Title        string
	Rooms        []RoomSummary
	ContentReady bool
	Initials     int
	Words        int
	Storage      string
}
