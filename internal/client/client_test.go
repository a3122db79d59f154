package client

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"odai-party/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeRoom serves a fixed game state and an answer endpoint held until release is closed.
type fakeRoom struct {
	phase    string
	submits  atomic.Int32
	entered  chan struct{}
	release  chan struct{}
	stateHit chan struct{}
	holdGet  chan struct{}
}

func newFakeRoom(phase string) *fakeRoom {
	return &fakeRoom{
		phase:   phase,
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
}

func (f *fakeRoom) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms/r1/state", func(w http.ResponseWriter, r *http.Request) {
		if f.stateHit != nil {
			f.stateHit <- struct{}{}
			<-f.holdGet
		}
		writeJSON(w, http.StatusOK, api.GameState{ID: "g1", RoomID: "r1", Phase: f.phase, Round: 1})
	})
	mux.HandleFunc("GET /api/rooms/r1/answers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []api.Answer{})
	})
	mux.HandleFunc("POST /api/rooms/r1/answers", func(w http.ResponseWriter, r *http.Request) {
		f.submits.Add(1)
		f.entered <- struct{}{}
		<-f.release
		var req api.AnswerRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusCreated, api.Answer{ID: "a1", GameStateID: "g1", UserID: req.UserID, AnswerText: req.Text})
	})
	mux.HandleFunc("POST /api/rooms/r1/votes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, api.ErrorResponse{Error: "vote already cast"})
	})
	return mux
}

func TestSubmitGuardsReentry(t *testing.T) {
	room := newFakeRoom("answering")
	ts := newTestServer(t, room.handler())
	view := NewView(New(ts.URL, nil), "r1", "ben")
	ctx := context.Background()
	require.NoError(t, view.RefreshState(ctx))

	first := make(chan error, 1)
	go func() {
		_, err := view.Submit(ctx, "あさがお")
		first <- err
	}()
	select {
	case <-room.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the server")
	}

	_, err := view.Submit(ctx, "あさがお")
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(room.release)
	require.NoError(t, <-first)

	_, err = view.Submit(ctx, "もういちど")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, int32(1), room.submits.Load())

	mine, ok := view.Snapshot().MyAnswer("ben")
	require.True(t, ok)
	assert.Equal(t, "あさがお", mine.AnswerText)
}

func TestLocalChecksSkipTheServer(t *testing.T) {
	room := newFakeRoom("voting")
	ts := newTestServer(t, room.handler())
	view := NewView(New(ts.URL, nil), "r1", "ben")
	ctx := context.Background()

	_, err := view.Submit(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	_, err = view.Submit(ctx, "はやい")
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = view.Vote(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, view.RefreshState(ctx))
	_, err = view.Submit(ctx, "おそい")
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.Equal(t, int32(0), room.submits.Load())
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	room := newFakeRoom("voting")
	ts := newTestServer(t, room.handler())
	c := New(ts.URL, nil)

	_, err := c.Vote(context.Background(), "r1", "ben", "a1")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "vote already cast", apiErr.Message)

	_, err = c.Players(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestClosedViewDropsLateRefresh(t *testing.T) {
	room := newFakeRoom("lobby")
	room.stateHit = make(chan struct{}, 1)
	room.holdGet = make(chan struct{})
	ts := newTestServer(t, room.handler())
	view := NewView(New(ts.URL, nil), "r1", "ben")

	var notified atomic.Int32
	view.OnChange(func(Snapshot) { notified.Add(1) })

	done := make(chan error, 1)
	go func() { done <- view.RefreshState(context.Background()) }()
	<-room.stateHit
	view.Close()
	close(room.holdGet)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Nil(t, view.Snapshot().State)
	assert.Equal(t, int32(0), notified.Load())
}

func TestCancelledContextDropsResult(t *testing.T) {
	room := newFakeRoom("lobby")
	ts := newTestServer(t, room.handler())
	view := NewView(New(ts.URL, nil), "r1", "ben")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, view.RefreshState(ctx))
	assert.Nil(t, view.Snapshot().State)
}

// roundRoom serves a state whose phase and round the test moves directly and
// accepts every ballot.
type roundRoom struct {
	mu    sync.Mutex
	phase string
	round int
}

func (f *roundRoom) set(phase string, round int) {
	f.mu.Lock()
	f.phase, f.round = phase, round
	f.mu.Unlock()
}

func (f *roundRoom) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms/r1/state", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		state := api.GameState{ID: "g1", RoomID: "r1", Phase: f.phase, Round: f.round}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, state)
	})
	mux.HandleFunc("POST /api/rooms/r1/votes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, api.Answer{ID: "a1", GameStateID: "g1", UserID: "aki", Votes: 1})
	})
	return mux
}

func TestVotedFlagClearsOnNewRoundWithoutSeeingLobby(t *testing.T) {
	room := &roundRoom{}
	room.set("voting", 1)
	ts := newTestServer(t, room.handler())
	view := NewView(New(ts.URL, nil), "r1", "ben")
	ctx := context.Background()

	require.NoError(t, view.RefreshState(ctx))
	_, err := view.Vote(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, view.Snapshot().HasVoted)

	room.set("results", 1)
	require.NoError(t, view.RefreshState(ctx))
	assert.True(t, view.Snapshot().HasVoted)

	room.set("voting", 2)
	require.NoError(t, view.RefreshState(ctx))
	assert.False(t, view.Snapshot().HasVoted)
	_, err = view.Vote(ctx, "a1")
	assert.NoError(t, err)
}
