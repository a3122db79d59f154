package game

import (
	"errors"
	"fmt"
)

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseWaiting    Phase = "waiting"
	PhaseTopicDrawn Phase = "topic_drawn"
	PhaseAnswering  Phase = "answering"
	PhaseRevealing  Phase = "revealing"
	PhaseVoting     Phase = "voting"
	PhaseResults    Phase = "results"
)

// Action is a dealer command that drives the phase machine.
type Action string

const (
	ActionStartSession   Action = "start_session"
	ActionDrawTopic      Action = "draw_topic"
	ActionRedrawTopic    Action = "redraw_topic"
	ActionOpenAnswers    Action = "open_answers"
	ActionCloseAnswers   Action = "close_answers"
	ActionStartVoting    Action = "start_voting"
	ActionPublishResults Action = "publish_results"
	ActionNextRound      Action = "next_round"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in this phase")
	ErrUnknownAction     = errors.New("unknown action")
	ErrNoPlayers         = errors.New("at least one player is required")
	ErrNoTopic           = errors.New("no topic has been drawn")
	ErrUnrevealed        = errors.New("every answer must be revealed first")
)

// Conditions is the room snapshot that transition guards are checked against.
type Conditions struct {
	// Players counts active participants with the player role.
	Players    int
	Answers    int
	Unrevealed int
	HasTopic   bool
}

// Effects are the writes a transition requires besides the phase itself.
type Effects struct {
	DrawTopic    bool
	ClearTopic   bool
	PurgeAnswers bool
	PurgeVotes   bool
	NextRound    bool
}

type Transition struct {
	From    Phase
	To      Phase
	Action  Action
	Effects Effects
}

type rule struct {
	action  Action
	target  func(m Machine) Phase
	guard   func(c Conditions) error
	effects Effects
}

func to(phase Phase) func(Machine) Phase {
	return func(Machine) Phase { return phase }
}

var phaseRules = map[Phase][]rule{
	PhaseLobby: {
		{
			action: ActionStartSession,
			target: to(PhaseWaiting),
			guard: func(c Conditions) error {
				if c.Players < 1 {
					return ErrNoPlayers
				}
				return nil
			},
		},
	},
	PhaseWaiting: {
		{action: ActionDrawTopic, target: to(PhaseTopicDrawn), effects: Effects{DrawTopic: true}},
	},
	PhaseTopicDrawn: {
		{action: ActionRedrawTopic, target: to(PhaseTopicDrawn), effects: Effects{DrawTopic: true}},
		{
			action: ActionOpenAnswers,
			target: to(PhaseAnswering),
			guard: func(c Conditions) error {
				if !c.HasTopic {
					return ErrNoTopic
				}
				return nil
			},
			effects: Effects{PurgeAnswers: true, NextRound: true},
		},
	},
	PhaseAnswering: {
		{
			action: ActionCloseAnswers,
			target: func(m Machine) Phase {
				if m.Reveal {
					return PhaseRevealing
				}
				return PhaseVoting
			},
		},
	},
	PhaseRevealing: {
		{
			action: ActionStartVoting,
			target: to(PhaseVoting),
			guard: func(c Conditions) error {
				if c.Unrevealed > 0 {
					return fmt.Errorf("%w: %d unrevealed", ErrUnrevealed, c.Unrevealed)
				}
				return nil
			},
		},
	},
	PhaseVoting: {
		{action: ActionPublishResults, target: to(PhaseResults)},
	},
	PhaseResults: {
		{
			action:  ActionNextRound,
			target:  to(PhaseLobby),
			effects: Effects{ClearTopic: true, PurgeAnswers: true, PurgeVotes: true},
		},
	},
}

// Machine is the room phase machine. Reveal enables the optional revealing phase
// between answering and voting.
type Machine struct {
	Reveal bool
}

func (m Machine) Phases() []Phase {
	phases := []Phase{PhaseLobby, PhaseWaiting, PhaseTopicDrawn, PhaseAnswering}
	if m.Reveal {
		phases = append(phases, PhaseRevealing)
	}
	return append(phases, PhaseVoting, PhaseResults)
}

// Actions lists every action the machine understands.
func Actions() []Action {
	return []Action{
		ActionStartSession,
		ActionDrawTopic,
		ActionRedrawTopic,
		ActionOpenAnswers,
		ActionCloseAnswers,
		ActionStartVoting,
		ActionPublishResults,
		ActionNextRound,
	}
}

func ParseAction(raw string) (Action, error) {
	for _, action := range Actions() {
		if string(action) == raw {
			return action, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// Allowed returns the actions accepted from phase, ignoring guards.
func (m Machine) Allowed(from Phase) []Action {
	rules := phaseRules[from]
	actions := make([]Action, 0, len(rules))
	for _, r := range rules {
		actions = append(actions, r.action)
	}
	return actions
}

// Next resolves action from phase, checking its guard against cond.
func (m Machine) Next(from Phase, action Action, cond Conditions) (Transition, error) {
	for _, r := range phaseRules[from] {
		if r.action != action {
			continue
		}
		if r.guard != nil {
			if err := r.guard(cond); err != nil {
				return Transition{}, err
			}
		}
		return Transition{
			From:    from,
			To:      r.target(m),
			Action:  action,
			Effects: r.effects,
		}, nil
	}
	return Transition{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}

// AcceptsAnswers reports whether submissions are open in phase.
func AcceptsAnswers(phase Phase) bool {
	return phase == PhaseAnswering
}

// AcceptsVotes reports whether ballots are open in phase.
func AcceptsVotes(phase Phase) bool {
	return phase == PhaseVoting
}
