// Package api holds the JSON shapes shared by the server and its Go client.
package api

import "time"

const (
	RoleDealer = "dealer"
	RolePlayer = "player"
)

// Tables named in change notifications.
const (
	TablePlayers   = "players"
	TableGameState = "game_state"
	TableAnswers   = "answers"
	TableVotes     = "votes"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

const (
	MessageChange     = "change"
	MessageSubscribed = "subscribed"
)

type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Player struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"room_id"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}

type GameState struct {
	ID            string  `json:"id"`
	RoomID        string  `json:"room_id"`
	CurrentTopic  *string `json:"current_topic"`
	Phase         string  `json:"phase"`
	Round         int     `json:"round"`
	RevealEnabled bool    `json:"reveal_enabled"`
	AdmissionOpen bool    `json:"admission_open"`
	// Actions lists what the dealer may attempt from the current phase.
	Actions []string `json:"actions"`
}

type Answer struct {
	ID          string `json:"id"`
	GameStateID string `json:"game_state_id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	AnswerText  string `json:"answer_text"`
	Votes       int    `json:"votes"`
	IsRevealed  bool   `json:"is_revealed"`
	// Hidden marks a masked answer; AnswerText is empty when set.
	Hidden bool `json:"hidden,omitempty"`
}

type Notification struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Table  string `json:"table,omitempty"`
	Event  string `json:"event,omitempty"`
}

type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,roomname"`
	// Password is generated when empty.
	Password string `json:"password" binding:"omitempty,password"`
}

type CreateRoomResponse struct {
	Room     Room   `json:"room"`
	Password string `json:"password"`
	JoinURL  string `json:"join_url"`
}

type JoinRequest struct {
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required,name"`
	Role     string `json:"role" binding:"required,oneof=dealer player"`
}

type JoinResponse struct {
	Room   Room      `json:"room"`
	Player Player    `json:"player"`
	State  GameState `json:"state"`
}

type RoomResponse struct {
	Room    Room      `json:"room"`
	State   GameState `json:"state"`
	Players []Player  `json:"players"`
}

type RoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=dealer player"`
}

type UserRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type AnswerRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Text   string `json:"text" binding:"required,answer"`
}

type VoteRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	AnswerID string `json:"answer_id" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
