package server

import (
	"context"
	"errors"
	"strings"

	"odai-party/internal/api"
	"odai-party/internal/db"
	"odai-party/internal/store"

	"github.com/rs/zerolog/log"
)

// authenticateParticipant resolves userID to an active seat in roomID and refreshes
// its last-seen time. Identity is the display name, as chosen at join.
func (s *Server) authenticateParticipant(ctx context.Context, roomID, userID string) (db.Player, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return db.Player{}, errPlayerNotFound
	}
	player, err := s.repo.FindPlayer(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return db.Player{}, errPlayerNotFound
		}
		return db.Player{}, err
	}
	if !player.IsActive {
		return db.Player{}, errPlayerNotFound
	}
	if err := s.repo.TouchPlayer(ctx, roomID, userID, s.now()); err != nil {
		log.Debug().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("touch player")
	}
	return player, nil
}

func (s *Server) authenticateDealer(ctx context.Context, roomID, userID string) (db.Player, error) {
	player, err := s.authenticateParticipant(ctx, roomID, userID)
	if err != nil {
		return db.Player{}, err
	}
	if player.Role != api.RoleDealer {
		return db.Player{}, errNotDealer
	}
	return player, nil
}

// activeDealer returns the room's active dealer, if any.
func activeDealer(players []db.Player) (db.Player, bool) {
	for _, player := range players {
		if player.Role == api.RoleDealer {
			return player, true
		}
	}
	return db.Player{}, false
}
