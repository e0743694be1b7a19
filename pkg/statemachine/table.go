package statemachine

import (
	"context"
	"fmt"
)

// Table is an immutable set of transitions. It holds no current state, so a
// single Table can validate transitions of any number of entities whose state
// lives elsewhere.
type Table struct {
	byState map[string]map[string][]Transition
	order   map[string][]Event
}

// NewTable indexes transitions. Several transitions may share a state and
// event; the first one whose guards pass is taken.
func NewTable(transitions ...Transition) (*Table, error) {
	t := &Table{
		byState: make(map[string]map[string][]Transition),
		order:   make(map[string][]Event),
	}
	for i, tr := range transitions {
		if tr.From == nil || tr.To == nil || tr.Event == nil {
			return nil, fmt.Errorf("transition %d: %w", i, ErrInvalidTransition)
		}
		from, ev := tr.From.Name(), tr.Event.Name()
		byEvent, ok := t.byState[from]
		if !ok {
			byEvent = make(map[string][]Transition)
			t.byState[from] = byEvent
		}
		if _, seen := byEvent[ev]; !seen {
			t.order[from] = append(t.order[from], tr.Event)
		}
		byEvent[ev] = append(byEvent[ev], tr)
	}
	return t, nil
}

// MustTable is NewTable that panics on an invalid transition.
func MustTable(transitions ...Transition) *Table {
	t, err := NewTable(transitions...)
	if err != nil {
		panic(err)
	}
	return t
}

// Fire runs event from state with data and returns the resulting state.
// On error the returned state is from.
func (t *Table) Fire(ctx context.Context, from State, event Event, data any) (State, error) {
	if from == nil {
		return nil, ErrInvalidState
	}
	if event == nil {
		return from, ErrInvalidEvent
	}

	candidates := t.byState[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return from, &NoTransitionError{State: from.Name(), Event: event.Name()}
	}
	tr := pick(ctx, candidates, from, event, data)
	if tr == nil {
		return from, &RejectedError{State: from.Name(), Event: event.Name()}
	}
	for _, action := range tr.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, tr.To, event, data); err != nil {
			return from, fmt.Errorf("statemachine: action on %q: %w", event.Name(), err)
		}
	}
	return tr.To, nil
}

// CanFire reports whether event would pass its guards from state.
func (t *Table) CanFire(ctx context.Context, from State, event Event, data any) bool {
	if from == nil || event == nil {
		return false
	}
	return pick(ctx, t.byState[from.Name()][event.Name()], from, event, data) != nil
}

// Available lists the events that can fire from state with data, in the
// order they were first defined.
func (t *Table) Available(ctx context.Context, from State, data any) []Event {
	if from == nil {
		return nil
	}
	var events []Event
	for _, ev := range t.order[from.Name()] {
		if t.CanFire(ctx, from, ev, data) {
			events = append(events, ev)
		}
	}
	return events
}

func pick(ctx context.Context, candidates []Transition, from State, event Event, data any) *Transition {
	for i := range candidates {
		if allow(ctx, candidates[i].Guards, from, event, data) {
			return &candidates[i]
		}
	}
	return nil
}

func allow(ctx context.Context, guards []Guard, from State, event Event, data any) bool {
	for _, g := range guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
