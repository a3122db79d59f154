package server

type EventPayload struct {
	RoomName string `json:"room_name,omitempty"`
	UserName string `json:"user_name,omitempty"`
	Role     string `json:"role,omitempty"`
	Action   string `json:"action,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Round    int    `json:"round,omitempty"`
	Topic    string `json:"topic,omitempty"`
	AnswerID string `json:"answer_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Count    int    `json:"count,omitempty"`
}
