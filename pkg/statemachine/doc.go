// Package statemachine implements finite state machines with guards and
// actions.
//
// A Table holds the transitions and no state of its own, so one Table can
// validate every entity of a kind whose state is stored elsewhere:
//
//	const (
//	    Active = statemachine.StringState("active")
//	    Paused = statemachine.StringState("paused")
//	    Pause  = statemachine.StringEvent("pause")
//	)
//
//	var table = statemachine.MustTable(
//	    statemachine.Transition{From: Active, To: Paused, Event: Pause},
//	)
//
//	next, err := table.Fire(ctx, Active, Pause, nil)
//
// Machine wraps a Table with a current state for the cases where the
// machine owns the state.
//
// Fire tells an undefined transition apart from one vetoed by guards with
// IsNoTransition and IsRejected. Available lists the events that may fire
// next, which is what clients usually want to render.
package statemachine
