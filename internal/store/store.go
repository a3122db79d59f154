// Package store persists rooms, seats, game state and the answer/vote ledger.
// Memory backs tests and single-process runs; Postgres backs deployments.
package store

import (
	"context"
	"errors"
	"time"

	"odai-party/internal/db"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Purge selects the ledger rows removed together with a game state write.
type Purge struct {
	// Answers removes the answers of the game state being saved.
	Answers bool
	// Votes removes every vote cast in the room.
	Votes bool
}

type Repository interface {
	CreateRoom(ctx context.Context, name, password string) (db.Room, error)
	GetRoom(ctx context.Context, roomID string) (db.Room, error)
	FindRoomByPassword(ctx context.Context, password string) (db.Room, error)
	ListRooms(ctx context.Context) ([]db.Room, error)

	// UpsertPlayer creates the seat for (roomID, userID) or reactivates the existing
	// one with the given name and role.
	UpsertPlayer(ctx context.Context, roomID, userID, userName, role string) (db.Player, error)
	FindPlayer(ctx context.Context, roomID, userID string) (db.Player, error)
	// ListActivePlayers returns active seats in join order.
	ListActivePlayers(ctx context.Context, roomID string) ([]db.Player, error)
	SetPlayerRole(ctx context.Context, roomID, userID, role string) (db.Player, error)
	DeactivatePlayer(ctx context.Context, roomID, userID string) error
	TouchPlayer(ctx context.Context, roomID, userID string, at time.Time) error
	// DeactivateIdlePlayers deactivates active seats last seen before the cutoff and
	// returns them.
	DeactivateIdlePlayers(ctx context.Context, before time.Time) ([]db.Player, error)

	// GameState returns the room's state row, creating it in the lobby phase.
	GameState(ctx context.Context, roomID string) (db.GameState, error)
	// SaveGameState writes topic, phase and round and applies purge atomically.
	SaveGameState(ctx context.Context, state db.GameState, purge Purge) (db.GameState, error)

	CreateAnswer(ctx context.Context, answer db.Answer) (db.Answer, error)
	GetAnswer(ctx context.Context, answerID string) (db.Answer, error)
	ListAnswers(ctx context.Context, gameStateID string) ([]db.Answer, error)
	RevealAnswer(ctx context.Context, answerID string) (db.Answer, error)
	// CastVote records the ballot and increments the answer's tally in one step.
	CastVote(ctx context.Context, vote db.Vote) (db.Answer, error)
	ListVotes(ctx context.Context, roomID string) ([]db.Vote, error)

	RecordEvent(ctx context.Context, event db.Event) error
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}
