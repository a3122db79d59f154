package game

import (
	"errors"
	"testing"
)

func TestFullRoundWithoutReveal(t *testing.T) {
	m := Machine{}
	cond := Conditions{Players: 2, HasTopic: true}
	steps := []struct {
		action Action
		want   Phase
	}{
		{ActionStartSession, PhaseWaiting},
		{ActionDrawTopic, PhaseTopicDrawn},
		{ActionRedrawTopic, PhaseTopicDrawn},
		{ActionOpenAnswers, PhaseAnswering},
		{ActionCloseAnswers, PhaseVoting},
		{ActionPublishResults, PhaseResults},
		{ActionNextRound, PhaseLobby},
	}
	phase := PhaseLobby
	for _, step := range steps {
		tr, err := m.Next(phase, step.action, cond)
		if err != nil {
			t.Fatalf("%s from %s: %v", step.action, phase, err)
		}
		if tr.To != step.want {
			t.Fatalf("%s from %s: got %s, want %s", step.action, phase, tr.To, step.want)
		}
		phase = tr.To
	}
}

func TestRevealRoute(t *testing.T) {
	m := Machine{Reveal: true}
	tr, err := m.Next(PhaseAnswering, ActionCloseAnswers, Conditions{})
	if err != nil || tr.To != PhaseRevealing {
		t.Fatalf("got %+v err=%v", tr, err)
	}
	_, err = m.Next(PhaseRevealing, ActionStartVoting, Conditions{Unrevealed: 2})
	if !errors.Is(err, ErrUnrevealed) {
		t.Fatalf("expected ErrUnrevealed, got %v", err)
	}
	tr, err = m.Next(PhaseRevealing, ActionStartVoting, Conditions{})
	if err != nil || tr.To != PhaseVoting {
		t.Fatalf("got %+v err=%v", tr, err)
	}
}

func TestGuards(t *testing.T) {
	m := Machine{}
	if _, err := m.Next(PhaseLobby, ActionStartSession, Conditions{}); !errors.Is(err, ErrNoPlayers) {
		t.Fatalf("expected ErrNoPlayers, got %v", err)
	}
	if _, err := m.Next(PhaseTopicDrawn, ActionOpenAnswers, Conditions{Players: 1}); !errors.Is(err, ErrNoTopic) {
		t.Fatalf("expected ErrNoTopic, got %v", err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	m := Machine{}
	cases := []struct {
		from   Phase
		action Action
	}{
		{PhaseLobby, ActionDrawTopic},
		{PhaseWaiting, ActionOpenAnswers},
		{PhaseAnswering, ActionPublishResults},
		{PhaseVoting, ActionNextRound},
		{PhaseResults, ActionStartSession},
		{PhaseAnswering, ActionRedrawTopic},
	}
	for _, tc := range cases {
		_, err := m.Next(tc.from, tc.action, Conditions{Players: 1, HasTopic: true})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s from %s: expected ErrInvalidTransition, got %v", tc.action, tc.from, err)
		}
	}
}

func TestEffects(t *testing.T) {
	m := Machine{}
	open, _ := m.Next(PhaseTopicDrawn, ActionOpenAnswers, Conditions{HasTopic: true})
	if !open.Effects.PurgeAnswers || !open.Effects.NextRound || open.Effects.PurgeVotes {
		t.Fatalf("open_answers effects = %+v", open.Effects)
	}
	next, _ := m.Next(PhaseResults, ActionNextRound, Conditions{})
	want := Effects{ClearTopic: true, PurgeAnswers: true, PurgeVotes: true}
	if next.Effects != want {
		t.Fatalf("next_round effects = %+v, want %+v", next.Effects, want)
	}
	redraw, _ := m.Next(PhaseTopicDrawn, ActionRedrawTopic, Conditions{})
	if redraw.Effects != (Effects{DrawTopic: true}) {
		t.Fatalf("redraw effects = %+v", redraw.Effects)
	}
}

func TestEveryPhaseReachableAndReturnsToLobby(t *testing.T) {
	for _, m := range []Machine{{}, {Reveal: true}} {
		cond := Conditions{Players: 1, HasTopic: true}
		seen := map[Phase]bool{PhaseLobby: true}
		queue := []Phase{PhaseLobby}
		for len(queue) > 0 {
			phase := queue[0]
			queue = queue[1:]
			for _, action := range m.Allowed(phase) {
				tr, err := m.Next(phase, action, cond)
				if err != nil {
					t.Fatalf("%s from %s: %v", action, phase, err)
				}
				if !seen[tr.To] {
					seen[tr.To] = true
					queue = append(queue, tr.To)
				}
			}
		}
		for _, phase := range m.Phases() {
			if !seen[phase] {
				t.Errorf("reveal=%v: %s unreachable", m.Reveal, phase)
			}
		}
		if seen[PhaseRevealing] != m.Reveal {
			t.Errorf("reveal=%v: revealing reachable=%v", m.Reveal, seen[PhaseRevealing])
		}
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("draw_topic"); err != nil || a != ActionDrawTopic {
		t.Fatalf("got %q err=%v", a, err)
	}
	if _, err := ParseAction("explode"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
