package server

import (
	"context"
	"errors"
	"net/http"

	"odai-party/internal/api"
	"odai-party/internal/db"
	"odai-party/internal/game"
	"odai-party/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleListAnswers(c *gin.Context) {
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
	answers, err := s.repo.ListAnswers(ctx, state.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	who := viewer{userID: userIDFromQuery(c)}
	if who.userID != "" {
		if player, err := s.repo.FindPlayer(ctx, room.ID, who.userID); err == nil && player.IsActive {
			who.isDealer = player.Role == api.RoleDealer
		}
	}
	c.JSON(http.StatusOK, s.answerViews(answers, who))
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	if !s.enforceRateLimit(c, "answer") {
		return
	}
	var req api.AnswerRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid answer") {
		return
	}
	text, ok := normalized(c, validateAnswer, req.Text)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	unlock := s.locks.Lock(room.ID)
	answer, err := s.submitAnswer(ctx, room.ID, req.UserID, text)
	unlock()
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("room_id", room.ID).Str("user_id", answer.UserID).Str("answer_id", answer.ID).Msg("answer submitted")
	s.recordEvent(ctx, room.ID, answer.UserID, "answer_submitted", EventPayload{AnswerID: answer.ID})
	s.notify(room.ID, api.TableAnswers, api.EventInsert)
	c.JSON(http.StatusCreated, s.answerViews([]db.Answer{answer}, viewer{userID: answer.UserID})[0])
}

func (s *Server) submitAnswer(ctx context.Context, roomID, userID, text string) (db.Answer, error) {
	player, err := s.authenticateParticipant(ctx, roomID, userID)
	if err != nil {
		return db.Answer{}, err
	}
	state, err := s.repo.GameState(ctx, roomID)
	if err != nil {
		return db.Answer{}, err
	}
	if !game.AcceptsAnswers(game.Phase(state.Phase)) {
		return db.Answer{}, errWrongPhase
	}
	answer, err := s.repo.CreateAnswer(ctx, db.Answer{
		RoomID:      roomID,
		GameStateID: state.ID,
		UserID:      player.UserID,
		UserName:    player.UserName,
		AnswerText:  text,
	})
	if errors.Is(err, store.ErrDuplicate) {
		err = errAlreadyAnswered
	}
	return answer, err
}

func (s *Server) handleRevealAnswer(c *gin.Context) {
	var req api.UserRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid reveal request") {
		return
	}
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	unlock := s.locks.Lock(room.ID)
	answer, err := s.revealAnswer(ctx, room.ID, req.UserID, c.Param("answerID"))
	unlock()
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("room_id", room.ID).Str("answer_id", answer.ID).Msg("answer revealed")
	s.recordEvent(ctx, room.ID, req.UserID, "answer_revealed", EventPayload{AnswerID: answer.ID})
	s.notify(room.ID, api.TableAnswers, api.EventUpdate)
	c.JSON(http.StatusOK, s.answerViews([]db.Answer{answer}, viewer{isDealer: true})[0])
}

func (s *Server) revealAnswer(ctx context.Context, roomID, userID, answerID string) (db.Answer, error) {
	if _, err := s.authenticateDealer(ctx, roomID, userID); err != nil {
		return db.Answer{}, err
	}
	state, err := s.repo.GameState(ctx, roomID)
	if err != nil {
		return db.Answer{}, err
	}
	if game.Phase(state.Phase) != game.PhaseRevealing {
		return db.Answer{}, errWrongPhase
	}
	if _, err := s.currentAnswer(ctx, state, answerID); err != nil {
		return db.Answer{}, err
	}
	return s.repo.RevealAnswer(ctx, answerID)
}

func (s *Server) handleCastVote(c *gin.Context) {
	if !s.enforceRateLimit(c, "vote") {
		return
	}
	var req api.VoteRequest
	if !bindJSON(c, &req, commonBindMessages, "invalid vote") {
		return
	}
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	unlock := s.locks.Lock(room.ID)
	answer, err := s.castVote(ctx, room.ID, req.UserID, req.AnswerID)
	unlock()
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("room_id", room.ID).Str("user_id", req.UserID).Str("answer_id", answer.ID).Int("votes", answer.Votes).Msg("vote cast")
	s.recordEvent(ctx, room.ID, req.UserID, "vote_cast", EventPayload{AnswerID: answer.ID, Count: answer.Votes})
	s.notify(room.ID, api.TableVotes, api.EventInsert)
	s.notify(room.ID, api.TableAnswers, api.EventUpdate)
	c.JSON(http.StatusOK, s.answerViews([]db.Answer{answer}, viewer{userID: req.UserID})[0])
}

func (s *Server) castVote(ctx context.Context, roomID, userID, answerID string) (db.Answer, error) {
	player, err := s.authenticateParticipant(ctx, roomID, userID)
	if err != nil {
		return db.Answer{}, err
	}
	state, err := s.repo.GameState(ctx, roomID)
	if err != nil {
		return db.Answer{}, err
	}
	if !game.AcceptsVotes(game.Phase(state.Phase)) {
		return db.Answer{}, errWrongPhase
	}
	target, err := s.currentAnswer(ctx, state, answerID)
	if err != nil {
		return db.Answer{}, err
	}
	if target.UserID == player.UserID {
		return db.Answer{}, errSelfVote
	}
	answer, err := s.repo.CastVote(ctx, db.Vote{
		RoomID:   roomID,
		AnswerID: target.ID,
		UserID:   player.UserID,
	})
	if errors.Is(err, store.ErrDuplicate) {
		err = errAlreadyVoted
	}
	return answer, err
}

func (s *Server) handleResults(c *gin.Context) {
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
	if game.Phase(state.Phase) != game.PhaseResults {
		respondError(c, errWrongPhase)
		return
	}
	answers, err := s.repo.ListAnswers(ctx, state.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.answerViews(answers, viewer{isDealer: true}))
}

// currentAnswer loads answerID and checks it belongs to state.
func (s *Server) currentAnswer(ctx context.Context, state db.GameState, answerID string) (db.Answer, error) {
	if answerID == "" {
		return db.Answer{}, errAnswerNotFound
	}
	answer, err := s.repo.GetAnswer(ctx, answerID)
	if errors.Is(err, store.ErrNotFound) {
		return db.Answer{}, errAnswerNotFound
	}
	if err != nil {
		return db.Answer{}, err
	}
	if answer.GameStateID != state.ID {
		return db.Answer{}, errAnswerNotFound
	}
	return answer, nil
}
