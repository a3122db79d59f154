package server

import (
	"context"
	"encoding/json"

	"odai-party/internal/db"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// recordEvent appends to the audit log. The mutation it describes has already been
// committed, so a failure is logged and not returned.
func (s *Server) recordEvent(ctx context.Context, roomID, userID, eventType string, payload EventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Str("type", eventType).Msg("encode event payload")
		return
	}
	record := db.Event{
		RoomID:    roomID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: s.now(),
	}
	if userID != "" {
		record.UserID = &userID
	}
	if err := s.repo.RecordEvent(ctx, record); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Str("type", eventType).Msg("record event")
	}
}
