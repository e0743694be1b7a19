package statemachine

import (
	"context"
	"sync"
)

// Machine tracks the current state of a single entity over a Table.
// It is safe for concurrent use.
type Machine struct {
	table   *Table
	initial State

	mu      sync.RWMutex
	current State
}

// NewMachine starts a machine over table in the initial state.
func NewMachine(table *Table, initial State) (*Machine, error) {
	if initial == nil {
		return nil, ErrInvalidState
	}
	return &Machine{table: table, initial: initial, current: initial}, nil
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire moves the machine along event. The state is unchanged on error.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := m.table.Fire(ctx, m.current, event, data)
	if err != nil {
		return err
	}
	m.current = next
	return nil
}

func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.CanFire(ctx, m.current, event, data)
}

func (m *Machine) Available(ctx context.Context, data any) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.Available(ctx, m.current, data)
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
