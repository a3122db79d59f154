package server

import (
	"errors"
	"net/http"

	"odai-party/internal/content"
	"odai-party/internal/game"
	"odai-party/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	errRoomNotFound     = errors.New("room not found")
	errPlayerNotFound   = errors.New("player not in room")
	errAnswerNotFound   = errors.New("answer not found")
	errNotDealer        = errors.New("only the dealer can perform this action")
	errDealerTaken      = errors.New("room already has a dealer")
	errRoomFull         = errors.New("room is full")
	errWrongPhase       = errors.New("not allowed in the current phase")
	errAlreadyAnswered  = errors.New("answer already submitted")
	errAlreadyVoted     = errors.New("vote already cast")
	errSelfVote         = errors.New("cannot vote for your own answer")
	errTopicUnavailable = errors.New("topic content is not available")
	errPasswordTaken    = errors.New("password already in use")
	errAdminDisabled    = errors.New("content editing is disabled")
	errAdminForbidden   = errors.New("invalid admin token")
	errRateLimited      = errors.New("too many requests")
)

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errRoomNotFound),
		errors.Is(err, errPlayerNotFound),
		errors.Is(err, errAnswerNotFound),
		errors.Is(err, content.ErrWordNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotDealer), errors.Is(err, errAdminForbidden):
		return http.StatusForbidden
	case errors.Is(err, errDealerTaken),
		errors.Is(err, errRoomFull),
		errors.Is(err, errWrongPhase),
		errors.Is(err, errAlreadyAnswered),
		errors.Is(err, errAlreadyVoted),
		errors.Is(err, errSelfVote),
		errors.Is(err, errPasswordTaken),
		errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrNoPlayers),
		errors.Is(err, game.ErrNoTopic),
		errors.Is(err, game.ErrUnrevealed),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, game.ErrUnknownAction), errors.Is(err, content.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, errTopicUnavailable),
		errors.Is(err, errAdminDisabled),
		errors.Is(err, content.ErrNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body. Internal failures are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
