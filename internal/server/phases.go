package server

import (
	"context"
	"net/http"

	"odai-party/internal/api"
	"odai-party/internal/content"
	"odai-party/internal/db"
	"odai-party/internal/game"
	"odai-party/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleAction(c *gin.Context) {
	action, err := game.ParseAction(c.Param("action"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !s.enforceRateLimit(c, "action") {
		return
	}
	var req api.UserRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid action request") {
		return
	}
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	unlock := s.locks.Lock(room.ID)
	dealer, err := s.authenticateDealer(ctx, room.ID, req.UserID)
	var state db.GameState
	var tr game.Transition
	if err == nil {
		state, tr, err = s.applyAction(ctx, room.ID, action)
	}
	unlock()
	if err != nil {
		log.Info().Err(err).Str("room_id", room.ID).Str("action", string(action)).Msg("action rejected")
		respondError(c, err)
		return
	}

	topic := ""
	if state.CurrentTopic != nil {
		topic = *state.CurrentTopic
	}
	log.Info().
		Str("room_id", room.ID).
		Str("action", string(action)).
		Str("from", string(tr.From)).
		Str("to", string(tr.To)).
		Int("round", state.Round).
		Msg("phase changed")
	s.recordEvent(ctx, room.ID, dealer.UserID, "phase_changed", EventPayload{
		Action: string(action),
		From:   string(tr.From),
		To:     string(tr.To),
		Round:  state.Round,
		Topic:  topic,
	})
	if tr.Effects.PurgeVotes {
		s.notify(room.ID, api.TableVotes, api.EventDelete)
	}
	if tr.Effects.PurgeAnswers {
		s.notify(room.ID, api.TableAnswers, api.EventDelete)
	}
	s.notify(room.ID, api.TableGameState, api.EventUpdate)
	c.JSON(http.StatusOK, s.stateView(state))
}

// applyAction runs one machine transition and persists it. The caller holds the
// room lock. Nothing is written when a guard fails or no topic can be drawn.
func (s *Server) applyAction(ctx context.Context, roomID string, action game.Action) (db.GameState, game.Transition, error) {
	state, err := s.repo.GameState(ctx, roomID)
	if err != nil {
		return db.GameState{}, game.Transition{}, err
	}
	players, err := s.repo.ListActivePlayers(ctx, roomID)
	if err != nil {
		return db.GameState{}, game.Transition{}, err
	}
	answers, err := s.repo.ListAnswers(ctx, state.ID)
	if err != nil {
		return db.GameState{}, game.Transition{}, err
	}

	tr, err := s.machine.Next(game.Phase(state.Phase), action, conditionsFor(state, players, answers))
	if err != nil {
		return db.GameState{}, game.Transition{}, err
	}

	next := state
	next.Phase = string(tr.To)
	if tr.Effects.DrawTopic {
		topic, ok := s.drawTopic()
		if !ok {
			return db.GameState{}, game.Transition{}, errTopicUnavailable
		}
		next.CurrentTopic = &topic.Text
	}
	if tr.Effects.ClearTopic {
		next.CurrentTopic = nil
	}
	if tr.Effects.NextRound {
		next.Round++
	}
	saved, err := s.repo.SaveGameState(ctx, next, store.Purge{
		Answers: tr.Effects.PurgeAnswers,
		Votes:   tr.Effects.PurgeVotes,
	})
	if err != nil {
		return db.GameState{}, game.Transition{}, err
	}
	return saved, tr, nil
}

func conditionsFor(state db.GameState, players []db.Player, answers []db.Answer) game.Conditions {
	cond := game.Conditions{
		Answers:  len(answers),
		HasTopic: state.CurrentTopic != nil && *state.CurrentTopic != "",
	}
	for _, player := range players {
		if player.Role == api.RolePlayer {
			cond.Players++
		}
	}
	for _, answer := range answers {
		if !answer.IsRevealed {
			cond.Unrevealed++
		}
	}
	return cond
}

func (s *Server) drawTopic() (game.Topic, bool) {
	var topic game.Topic
	var ok bool
	s.library.View(func(data *content.DataSet) {
		topic, ok = s.generator.Generate(data)
	})
	return topic, ok
}
