package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"odai-party/internal/api"
	"odai-party/internal/db"
	"odai-party/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const createRoomAttempts = 5

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	if !s.enforceRateLimit(c, "create") {
		return
	}
	var req api.CreateRoomRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid room") {
		return
	}
	name, ok := normalized(c, validateRoomName, req.Name)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var room db.Room
	var err error
	if req.Password != "" {
		password, ok := normalized(c, validatePassword, req.Password)
		if !ok {
			return
		}
		room, err = s.repo.CreateRoom(ctx, name, password)
	} else {
		for attempt := 0; attempt < createRoomAttempts; attempt++ {
			room, err = s.repo.CreateRoom(ctx, name, newRoomPassword())
			if !errors.Is(err, store.ErrDuplicate) {
				break
			}
		}
	}
	if errors.Is(err, store.ErrDuplicate) {
		err = errPasswordTaken
	}
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("room_id", room.ID).Str("name", room.Name).Msg("room created")
	s.recordEvent(ctx, room.ID, "", "room_created", EventPayload{RoomName: room.Name})
	c.JSON(http.StatusCreated, api.CreateRoomResponse{
		Room:     roomView(room),
		Password: room.Password,
		JoinURL:  s.joinURL(room),
	})
}

// handleJoinRoom admits a participant by room password. A rejoin with an active
// name reuses the seat without counting against capacity.
func (s *Server) handleJoinRoom(c *gin.Context) {
	if !s.enforceRateLimit(c, "join") {
		return
	}
	var req api.JoinRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid join request") {
		return
	}
	name, ok := normalized(c, validateName, req.Name)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	room, err := s.repo.FindRoomByPassword(ctx, strings.TrimSpace(req.Password))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = errRoomNotFound
		}
		respondError(c, err)
		return
	}

	unlock := s.locks.Lock(room.ID)
	player, rejoined, err := s.admit(ctx, room, name, req.Role)
	var state db.GameState
	if err == nil {
		state, err = s.repo.GameState(ctx, room.ID)
	}
	unlock()
	if err != nil {
		respondError(c, err)
		return
	}

	event := api.EventInsert
	if rejoined {
		event = api.EventUpdate
	}
	log.Info().Str("room_id", room.ID).Str("user_id", player.UserID).Str("role", player.Role).Bool("rejoin", rejoined).Msg("player joined")
	s.recordEvent(ctx, room.ID, player.UserID, "player_joined", EventPayload{UserName: player.UserName, Role: player.Role})
	s.notify(room.ID, api.TablePlayers, event)
	c.JSON(http.StatusOK, api.JoinResponse{
		Room:   roomView(room),
		Player: playerView(player),
		State:  s.stateView(state),
	})
}

// admit runs under the room lock.
func (s *Server) admit(ctx context.Context, room db.Room, name, role string) (db.Player, bool, error) {
	players, err := s.repo.ListActivePlayers(ctx, room.ID)
	if err != nil {
		return db.Player{}, false, err
	}
	alreadyIn := false
	for _, player := range players {
		if player.UserID == name {
			alreadyIn = true
			break
		}
	}
	if !alreadyIn && len(players) >= s.cfg.MaxPlayers {
		return db.Player{}, false, errRoomFull
	}
	if role == api.RoleDealer {
		if dealer, ok := activeDealer(players); ok && dealer.UserID != name {
			return db.Player{}, false, errDealerTaken
		}
	}
	_, lookupErr := s.repo.FindPlayer(ctx, room.ID, name)
	rejoined := lookupErr == nil
	player, err := s.repo.UpsertPlayer(ctx, room.ID, name, name, role)
	if errors.Is(err, store.ErrDuplicate) {
		err = errDealerTaken
	}
	return player, rejoined, err
}

func (s *Server) handleGetRoom(c *gin.Context) {
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	state, err := s.repo.GameState(ctx, room.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	players, err := s.repo.ListActivePlayers(ctx, room.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.RoomResponse{
		Room:    roomView(room),
		State:   s.stateView(state),
		Players: playerViews(players),
	})
}

func (s *Server) handleListPlayers(c *gin.Context) {
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	players, err := s.repo.ListActivePlayers(ctx, room.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playerViews(players))
}

func (s *Server) handleSwitchRole(c *gin.Context) {
	if !s.enforceRateLimit(c, "role") {
		return
	}
	var req api.RoleRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid role request") {
		return
	}
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	unlock := s.locks.Lock(room.ID)
	player, err := s.switchRole(ctx, room.ID, req.UserID, req.Role)
	unlock()
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("room_id", room.ID).Str("user_id", player.UserID).Str("role", player.Role).Msg("role switched")
	s.recordEvent(ctx, room.ID, player.UserID, "role_changed", EventPayload{Role: player.Role})
	s.notify(room.ID, api.TablePlayers, api.EventUpdate)
	c.JSON(http.StatusOK, playerView(player))
}

func (s *Server) switchRole(ctx context.Context, roomID, userID, role string) (db.Player, error) {
	player, err := s.authenticateParticipant(ctx, roomID, userID)
	if err != nil {
		return db.Player{}, err
	}
	if role == api.RoleDealer {
		players, err := s.repo.ListActivePlayers(ctx, roomID)
		if err != nil {
			return db.Player{}, err
		}
		if dealer, ok := activeDealer(players); ok && dealer.UserID != player.UserID {
			return db.Player{}, errDealerTaken
		}
	}
	updated, err := s.repo.SetPlayerRole(ctx, roomID, player.UserID, role)
	if errors.Is(err, store.ErrDuplicate) {
		err = errDealerTaken
	}
	return updated, err
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	var req api.UserRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid leave request") {
		return
	}
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	unlock := s.locks.Lock(room.ID)
	player, err := s.authenticateParticipant(ctx, room.ID, req.UserID)
	if err == nil {
		err = s.repo.DeactivatePlayer(ctx, room.ID, player.UserID)
	}
	unlock()
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("room_id", room.ID).Str("user_id", player.UserID).Msg("player left")
	s.recordEvent(ctx, room.ID, player.UserID, "player_left", EventPayload{UserName: player.UserName, Reason: "leave"})
	s.notify(room.ID, api.TablePlayers, api.EventUpdate)
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

func (s *Server) handleGetState(c *gin.Context) {
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if userID := userIDFromQuery(c); userID != "" {
		if err := s.repo.TouchPlayer(ctx, room.ID, userID, s.now()); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Debug().Err(err).Str("room_id", room.ID).Msg("touch player")
		}
	}
	state, err := s.repo.GameState(ctx, room.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.stateView(state))
}

func (s *Server) loadRoom(ctx context.Context, roomID string) (db.Room, error) {
	if roomID == "" {
		return db.Room{}, errRoomNotFound
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return db.Room{}, errRoomNotFound
	}
	return room, err
}

func (s *Server) joinURL(room db.Room) string {
	return s.cfg.PublicURL + "/?password=" + url.QueryEscape(room.Password)
}
