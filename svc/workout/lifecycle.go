package workout

import (
	"context"
	"errors"

	"github.com/dmitrymomot/trakkr/pkg/statemachine"
)

// Session lifecycle states. Finished and Discarded are terminal: the stored
// record is gone once they are reached.
const (
	StateNone      = statemachine.StringState("none")
	StateActive    = statemachine.StringState("active")
	StatePaused    = statemachine.StringState("paused")
	StateFinished  = statemachine.StringState("finished")
	StateDiscarded = statemachine.StringState("discarded")
)

// Lifecycle events, one per Manager operation.
const (
	EventStart     = statemachine.StringEvent("start")
	EventRecordSet = statemachine.StringEvent("record_set")
	EventDeleteSet = statemachine.StringEvent("delete_set")
	EventPause     = statemachine.StringEvent("pause")
	EventResume    = statemachine.StringEvent("resume")
	EventFinish    = statemachine.StringEvent("finish")
	EventDiscard   = statemachine.StringEvent("discard")
	EventExpire    = statemachine.StringEvent("expire")
)

var lifecycle = statemachine.MustTable(
	statemachine.Transition{From: StateNone, To: StateActive, Event: EventStart},
	statemachine.Transition{From: StateActive, To: StateActive, Event: EventRecordSet},
	statemachine.Transition{From: StateActive, To: StateActive, Event: EventDeleteSet},
	statemachine.Transition{From: StateActive, To: StatePaused, Event: EventPause},
	statemachine.Transition{From: StateActive, To: StateFinished, Event: EventFinish, Guards: []statemachine.Guard{hasLoggedSets}},
	statemachine.Transition{From: StateActive, To: StateDiscarded, Event: EventDiscard},
	statemachine.Transition{From: StateActive, To: StateDiscarded, Event: EventExpire},
	statemachine.Transition{From: StatePaused, To: StatePaused, Event: EventDeleteSet},
	statemachine.Transition{From: StatePaused, To: StateActive, Event: EventResume},
	statemachine.Transition{From: StatePaused, To: StateFinished, Event: EventFinish, Guards: []statemachine.Guard{hasLoggedSets}},
	statemachine.Transition{From: StatePaused, To: StateDiscarded, Event: EventDiscard},
	statemachine.Transition{From: StatePaused, To: StateDiscarded, Event: EventExpire},
	statemachine.Transition{From: StateNone, To: StateNone, Event: EventDiscard},
)

// StateOf derives the lifecycle state of a stored session; nil means none.
func StateOf(s *Session) statemachine.State {
	switch {
	case s == nil:
		return StateNone
	case s.EndTime != nil:
		return StateFinished
	case s.IsPaused():
		return StatePaused
	default:
		return StateActive
	}
}

// AllowedEvents lists what may happen next to s.
func AllowedEvents(ctx context.Context, s *Session) []string {
	events := lifecycle.Available(ctx, StateOf(s), s)
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name())
	}
	return names
}

// transition validates event against the current state of s and returns the
// state it leads to. Failures carry the matching error kind.
func transition(ctx context.Context, s *Session, event statemachine.Event) (statemachine.State, error) {
	from := StateOf(s)
	to, err := lifecycle.Fire(ctx, from, event, s)
	if err != nil {
		return from, lifecycleError(from, event, err)
	}
	return to, nil
}

func lifecycleError(from statemachine.State, event statemachine.Event, err error) error {
	switch {
	case statemachine.IsRejected(err):
		return errors.Join(ErrNotFound, ErrNothingLogged)
	case from == StateNone:
		return errors.Join(ErrNotFound, err)
	case event == EventStart:
		return errors.Join(ErrConflict, err)
	default:
		return errors.Join(ErrInvalidState, err)
	}
}

func hasLoggedSets(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	s, ok := data.(*Session)
	return ok && s.WorkoutLogID != "" && s.SetCount() > 0
}
