package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"odai-party/internal/api"
	"odai-party/internal/config"
	"odai-party/internal/content"
	"odai-party/internal/livesync"
	"odai-party/internal/server"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPartyServer(t *testing.T) string {
	t.Helper()
	return startPartyServerWith(t, config.Default())
}

func startPartyServerWith(t *testing.T, cfg config.Config) string {
	t.Helper()
	cfg.RateLimitPerMinute = 0
	library := content.NewStaticLibrary(&content.DataSet{
		Initial: []content.Initial{{Key: "さ"}},
		Words:   []content.Word{{Normal: "好きな季節", Not: "嫌いな季節"}},
	})
	srv := server.New(nil, library, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(srv.Close)
	return ts.URL
}

// liveView runs a view under a reconciler until the test ends.
func liveView(t *testing.T, c *Client, roomID, userID string) (*View, *livesync.Reconciler) {
	t.Helper()
	view := NewView(c, roomID, userID)
	r := livesync.New(livesync.Options{
		Interval:  50 * time.Millisecond,
		Subscribe: c.SubscribeFunc(roomID, userID),
	})
	view.Bind(r)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		view.Close()
		cancel()
		<-done
	})
	return view, r
}

func waitPhase(t *testing.T, view *View, phase string) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := view.Snapshot()
		return snap.State != nil && snap.State.Phase == phase
	}, 5*time.Second, 10*time.Millisecond, "phase %s never observed", phase)
}

func TestRoundOverLiveSync(t *testing.T) {
	baseURL := startPartyServer(t)
	c := New(baseURL, nil)
	ctx := context.Background()

	created, err := c.CreateRoom(ctx, "Live", "ikiiki")
	require.NoError(t, err)
	roomID := created.Room.ID
	_, err = c.Join(ctx, "ikiiki", "aki", api.RoleDealer)
	require.NoError(t, err)
	_, err = c.Join(ctx, "ikiiki", "ben", api.RolePlayer)
	require.NoError(t, err)

	dealer, dealerSync := liveView(t, c, roomID, "aki")
	player, playerSync := liveView(t, c, roomID, "ben")
	require.Eventually(t, func() bool {
		return dealerSync.Health() == livesync.HealthConnected && playerSync.Health() == livesync.HealthConnected
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(player.Snapshot().Players) == 2 }, 5*time.Second, 10*time.Millisecond)

	for _, action := range []string{"start_session", "draw_topic", "open_answers"} {
		_, err := dealer.Act(ctx, action)
		require.NoError(t, err, action)
	}
	waitPhase(t, player, "answering")
	assert.Equal(t, 1, player.Snapshot().State.Round)

	_, err = player.Submit(ctx, "さくら")
	require.NoError(t, err)
	_, err = dealer.Submit(ctx, "さんま")
	require.NoError(t, err)

	_, err = dealer.Act(ctx, "close_answers")
	require.NoError(t, err)
	waitPhase(t, player, "voting")
	require.Eventually(t, func() bool { return len(player.Snapshot().Answers) == 2 }, 5*time.Second, 10*time.Millisecond)

	dealerAnswer, ok := dealer.Snapshot().MyAnswer("aki")
	require.True(t, ok)
	_, err = player.Vote(ctx, dealerAnswer.ID)
	require.NoError(t, err)
	assert.True(t, player.Snapshot().HasVoted)
	_, err = player.Vote(ctx, dealerAnswer.ID)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	require.Eventually(t, func() bool {
		mine, ok := dealer.Snapshot().MyAnswer("aki")
		return ok && mine.Votes == 1
	}, 5*time.Second, 10*time.Millisecond, "dealer never saw the tally")

	_, err = dealer.Act(ctx, "publish_results")
	require.NoError(t, err)
	results, err := c.Results(ctx, roomID)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = dealer.Act(ctx, "next_round")
	require.NoError(t, err)
	waitPhase(t, player, "lobby")
	require.Eventually(t, func() bool {
		snap := player.Snapshot()
		return !snap.HasVoted && len(snap.Answers) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubscribeUnknownRoom(t *testing.T) {
	baseURL := startPartyServer(t)
	_, err := New(baseURL, nil).Subscribe(context.Background(), "missing", "")
	require.Error(t, err)
	assert.Equal(t, 404, StatusOf(err))
}

func TestSilentStreamIsDropped(t *testing.T) {
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(api.Notification{Type: api.MessageSubscribed, RoomID: "r1"})
		<-release
	}))
	t.Cleanup(func() { close(release) })

	c := New(ts.URL, nil)
	c.PingWait = 200 * time.Millisecond
	stream, err := c.Subscribe(context.Background(), "r1", "")
	require.NoError(t, err)
	defer stream.Close()

	select {
	case _, ok := <-stream.Changes():
		assert.False(t, ok, "expected the stream to close")
	case <-time.After(3 * time.Second):
		t.Fatal("silent stream stayed open")
	}
}

func TestPingsKeepStreamOpen(t *testing.T) {
	cfg := config.Default()
	cfg.WSPingSeconds = 1
	baseURL := startPartyServerWith(t, cfg)
	c := New(baseURL, nil)
	created, err := c.CreateRoom(context.Background(), "Quiet", "shizuka")
	require.NoError(t, err)

	c.PingWait = 1500 * time.Millisecond
	stream, err := c.Subscribe(context.Background(), created.Room.ID, "")
	require.NoError(t, err)
	defer stream.Close()

	select {
	case _, ok := <-stream.Changes():
		assert.True(t, ok, "stream closed despite server pings")
	case <-time.After(3500 * time.Millisecond):
	}
}
