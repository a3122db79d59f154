package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"odai-party/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract checks behaviour every Repository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("rooms", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		room, err := repo.CreateRoom(ctx, "Friday", "pass-rooms")
		require.NoError(t, err)

		_, err = repo.CreateRoom(ctx, "Other", "pass-rooms")
		assert.ErrorIs(t, err, ErrDuplicate)

		found, err := repo.FindRoomByPassword(ctx, "pass-rooms")
		require.NoError(t, err)
		assert.Equal(t, room.ID, found.ID)

		_, err = repo.FindRoomByPassword(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("players", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		room, err := repo.CreateRoom(ctx, "Seats", "pass-players")
		require.NoError(t, err)

		dealer, err := repo.UpsertPlayer(ctx, room.ID, "aki", "aki", "dealer")
		require.NoError(t, err)
		_, err = repo.UpsertPlayer(ctx, room.ID, "ben", "ben", "player")
		require.NoError(t, err)

		_, err = repo.UpsertPlayer(ctx, room.ID, "cho", "cho", "dealer")
		assert.ErrorIs(t, err, ErrDuplicate, "second active dealer")

		_, err = repo.SetPlayerRole(ctx, room.ID, "ben", "dealer")
		assert.ErrorIs(t, err, ErrDuplicate)

		require.NoError(t, repo.DeactivatePlayer(ctx, room.ID, "aki"))
		players, err := repo.ListActivePlayers(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, players, 1)
		assert.Equal(t, "ben", players[0].UserID)

		again, err := repo.UpsertPlayer(ctx, room.ID, "aki", "aki", "player")
		require.NoError(t, err)
		assert.Equal(t, dealer.ID, again.ID, "rejoin reuses the seat")
		assert.True(t, again.IsActive)
		assert.Equal(t, "player", again.Role)

		players, err = repo.ListActivePlayers(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, players, 2)
		assert.Equal(t, "aki", players[0].UserID, "join order is kept")
	})

	t.Run("idle sweep", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		room, err := repo.CreateRoom(ctx, "Idle", "pass-idle")
		require.NoError(t, err)
		_, err = repo.UpsertPlayer(ctx, room.ID, "aki", "aki", "player")
		require.NoError(t, err)
		_, err = repo.UpsertPlayer(ctx, room.ID, "ben", "ben", "player")
		require.NoError(t, err)
		require.NoError(t, repo.TouchPlayer(ctx, room.ID, "ben", time.Now().UTC().Add(time.Hour)))

		idle, err := repo.DeactivateIdlePlayers(ctx, time.Now().UTC().Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, idle, 1)
		assert.Equal(t, "aki", idle[0].UserID)

		players, err := repo.ListActivePlayers(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, players, 1)
		assert.Equal(t, "ben", players[0].UserID)
	})

	t.Run("game state and purge", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		room, err := repo.CreateRoom(ctx, "Round", "pass-state")
		require.NoError(t, err)

		state, err := repo.GameState(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, "lobby", state.Phase)
		assert.Equal(t, 0, state.Round)
		assert.Nil(t, state.CurrentTopic)

		same, err := repo.GameState(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, state.ID, same.ID)

		topic := "「あ」から始まる「好きな食べ物」といえば？"
		state.CurrentTopic = &topic
		state.Phase = "answering"
		state.Round = 1
		state, err = repo.SaveGameState(ctx, state, Purge{})
		require.NoError(t, err)
		require.NotNil(t, state.CurrentTopic)
		assert.Equal(t, topic, *state.CurrentTopic)

		answer, err := repo.CreateAnswer(ctx, db.Answer{RoomID: room.ID, GameStateID: state.ID, UserID: "aki", UserName: "aki", AnswerText: "あんず"})
		require.NoError(t, err)
		_, err = repo.CreateAnswer(ctx, db.Answer{RoomID: room.ID, GameStateID: state.ID, UserID: "aki", UserName: "aki", AnswerText: "again"})
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = repo.CastVote(ctx, db.Vote{RoomID: room.ID, AnswerID: answer.ID, UserID: "ben"})
		require.NoError(t, err)

		state.CurrentTopic = nil
		state.Phase = "lobby"
		state, err = repo.SaveGameState(ctx, state, Purge{Answers: true, Votes: true})
		require.NoError(t, err)
		assert.Nil(t, state.CurrentTopic)
		assert.Equal(t, 1, state.Round)

		answers, err := repo.ListAnswers(ctx, state.ID)
		require.NoError(t, err)
		assert.Empty(t, answers)
		votes, err := repo.ListVotes(ctx, room.ID)
		require.NoError(t, err)
		assert.Empty(t, votes)
	})

	t.Run("votes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		room, err := repo.CreateRoom(ctx, "Ballots", "pass-votes")
		require.NoError(t, err)
		state, err := repo.GameState(ctx, room.ID)
		require.NoError(t, err)
		answer, err := repo.CreateAnswer(ctx, db.Answer{RoomID: room.ID, GameStateID: state.ID, UserID: "aki", UserName: "aki", AnswerText: "あめ"})
		require.NoError(t, err)

		const voters = 20
		var wg sync.WaitGroup
		errs := make(chan error, voters)
		for i := 0; i < voters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.CastVote(ctx, db.Vote{RoomID: room.ID, AnswerID: answer.ID, UserID: string(rune('a' + i))})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		tallied, err := repo.GetAnswer(ctx, answer.ID)
		require.NoError(t, err)
		assert.Equal(t, voters, tallied.Votes)

		_, err = repo.CastVote(ctx, db.Vote{RoomID: room.ID, AnswerID: answer.ID, UserID: "a"})
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = repo.CastVote(ctx, db.Vote{RoomID: room.ID, AnswerID: "00000000-0000-0000-0000-000000000000", UserID: "zed"})
		assert.ErrorIs(t, err, ErrNotFound)

		revealed, err := repo.RevealAnswer(ctx, answer.ID)
		require.NoError(t, err)
		assert.True(t, revealed.IsRevealed)
	})

	t.Run("events", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		room, err := repo.CreateRoom(ctx, "Log", "pass-events")
		require.NoError(t, err)
		old := time.Now().UTC().Add(-48 * time.Hour)
		require.NoError(t, repo.RecordEvent(ctx, db.Event{RoomID: room.ID, Type: "room_created", Payload: []byte(`{}`), CreatedAt: old}))
		require.NoError(t, repo.RecordEvent(ctx, db.Event{RoomID: room.ID, Type: "player_joined", Payload: []byte(`{}`)}))

		removed, err := repo.PruneEvents(ctx, time.Now().UTC().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})
}
