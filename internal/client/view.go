package client

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"odai-party/internal/api"
	"odai-party/internal/livesync"
)

// Local checks run before any request is sent.
var (
	ErrEmptyAnswer     = errors.New("answer text is required")
	ErrSubmitInFlight  = errors.New("a submission is already in progress")
	ErrAlreadyAnswered = errors.New("you have already answered this round")
	ErrAlreadyVoted    = errors.New("you have already voted this round")
	ErrWrongPhase      = errors.New("not allowed in the current phase")
	ErrNotLoaded       = errors.New("game state not loaded yet")
	ErrClosed          = errors.New("view closed")
)

// Snapshot is a copy of what a view currently holds.
type Snapshot struct {
	State    *api.GameState
	Players  []api.Player
	Answers  []api.Answer
	HasVoted bool
}

// MyAnswer returns the viewer's answer in this round, if any.
func (s Snapshot) MyAnswer(userID string) (api.Answer, bool) {
	for _, answer := range s.Answers {
		if answer.UserID == userID {
			return answer, true
		}
	}
	return api.Answer{}, false
}

// View is one participant's copy of a room. Refreshes are applied only while the
// view is open, so late responses after Close are dropped.
type View struct {
	client *Client
	roomID string
	userID string

	mu       sync.Mutex
	state    *api.GameState
	players  []api.Player
	answers  []api.Answer
	hasVoted bool
	closed   bool
	onChange func(Snapshot)

	submitting atomic.Bool
	voting     atomic.Bool
}

func NewView(client *Client, roomID, userID string) *View {
	return &View{client: client, roomID: roomID, userID: userID}
}

// OnChange registers fn to run after every applied refresh.
func (v *View) OnChange(fn func(Snapshot)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Bind registers the view's sources with r. Answers also follow vote changes since
// casting a vote updates the tally.
func (v *View) Bind(r *livesync.Reconciler) {
	r.Bind("state", v.RefreshState, api.TableGameState)
	r.Bind("players", v.RefreshPlayers, api.TablePlayers)
	r.Bind("answers", v.RefreshAnswers, api.TableAnswers, api.TableVotes)
}

// Close stops the view from applying further results.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.onChange = nil
	v.mu.Unlock()
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() Snapshot {
	snap := Snapshot{
		Players:  slices.Clone(v.players),
		Answers:  slices.Clone(v.answers),
		HasVoted: v.hasVoted,
	}
	if v.state != nil {
		state := *v.state
		snap.State = &state
	}
	return snap
}

func (v *View) RefreshState(ctx context.Context) error {
	state, err := v.client.State(ctx, v.roomID, v.userID)
	if err != nil {
		return err
	}
	return v.apply(ctx, func() { v.setStateLocked(state) })
}

// setStateLocked stores state. The voted flag belongs to one round: it clears when
// the round number or state row changes, or when the room is back before voting.
func (v *View) setStateLocked(state api.GameState) {
	switch {
	case v.state == nil, v.state.Round != state.Round, v.state.ID != state.ID:
		v.hasVoted = false
	case state.Phase == "lobby", state.Phase == "waiting", state.Phase == "answering":
		v.hasVoted = false
	}
	v.state = &state
}

func (v *View) RefreshPlayers(ctx context.Context) error {
	players, err := v.client.Players(ctx, v.roomID)
	if err != nil {
		return err
	}
	return v.apply(ctx, func() { v.players = players })
}

func (v *View) RefreshAnswers(ctx context.Context) error {
	answers, err := v.client.Answers(ctx, v.roomID, v.userID)
	if err != nil {
		return err
	}
	return v.apply(ctx, func() { v.answers = answers })
}

// apply runs fn under the lock unless the view was closed or ctx ended while the
// request was in flight.
func (v *View) apply(ctx context.Context, fn func()) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		v.mu.Unlock()
		return err
	}
	fn()
	snap := v.snapshotLocked()
	notify := v.onChange
	v.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
	return nil
}

// Submit sends the viewer's answer. A second call while the first is in flight
// returns ErrSubmitInFlight without contacting the server.
func (v *View) Submit(ctx context.Context, text string) (api.Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return api.Answer{}, ErrEmptyAnswer
	}
	snap := v.Snapshot()
	if snap.State == nil {
		return api.Answer{}, ErrNotLoaded
	}
	if snap.State.Phase != "answering" {
		return api.Answer{}, ErrWrongPhase
	}
	if _, ok := snap.MyAnswer(v.userID); ok {
		return api.Answer{}, ErrAlreadyAnswered
	}
	if !v.submitting.CompareAndSwap(false, true) {
		return api.Answer{}, ErrSubmitInFlight
	}
	defer v.submitting.Store(false)

	answer, err := v.client.SubmitAnswer(ctx, v.roomID, v.userID, text)
	if err != nil {
		return api.Answer{}, err
	}
	_ = v.apply(ctx, func() {
		if !slices.ContainsFunc(v.answers, func(a api.Answer) bool { return a.ID == answer.ID }) {
			v.answers = append(v.answers, answer)
		}
	})
	return answer, nil
}

// Vote casts the viewer's single ballot for this round and remembers it locally.
func (v *View) Vote(ctx context.Context, answerID string) (api.Answer, error) {
	snap := v.Snapshot()
	if snap.State == nil {
		return api.Answer{}, ErrNotLoaded
	}
	if snap.State.Phase != "voting" {
		return api.Answer{}, ErrWrongPhase
	}
	if snap.HasVoted {
		return api.Answer{}, ErrAlreadyVoted
	}
	if !v.voting.CompareAndSwap(false, true) {
		return api.Answer{}, ErrSubmitInFlight
	}
	defer v.voting.Store(false)

	answer, err := v.client.Vote(ctx, v.roomID, v.userID, answerID)
	if err != nil {
		return api.Answer{}, err
	}
	_ = v.apply(ctx, func() { v.hasVoted = true })
	return answer, nil
}

// Act sends a dealer action and applies the returned state.
func (v *View) Act(ctx context.Context, action string) (api.GameState, error) {
	state, err := v.client.Action(ctx, v.roomID, v.userID, action)
	if err != nil {
		return api.GameState{}, err
	}
	_ = v.apply(ctx, func() { v.setStateLocked(state) })
	return state, nil
}
