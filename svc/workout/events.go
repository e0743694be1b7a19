package workout

import (
	"context"

	"github.com/dmitrymomot/trakkr/pkg/logger"
)

// SessionEvent describes a change to a user's session. Session is the state
// after the change and is nil once the session is gone.
type SessionEvent struct {
	Type         string   `json:"type"`
	UserID       string   `json:"userId"`
	WorkoutLogID string   `json:"workoutLogId,omitempty"`
	Session      *Session `json:"session,omitempty"`
	At           int64    `json:"at"`
}

// EventPublisher delivers session events to the user's topic.
// broadcast.Broadcaster[SessionEvent] satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, ev SessionEvent) error
}

// publish never fails the operation that triggered it. Callers hold the
// user's lock so a user's events go out in the order the changes were made.
func (m *Manager) publish(ctx context.Context, eventType, userID string, s *Session, workoutLogID string) {
	if m.events == nil {
		return
	}
	ev := SessionEvent{
		Type:         eventType,
		UserID:       userID,
		WorkoutLogID: workoutLogID,
		Session:      s.Clone(),
		At:           m.now().UnixMilli(),
	}
	if err := m.events.Publish(ctx, userID, ev); err != nil {
		m.logger.WarnContext(ctx, "failed to publish session event",
			logger.UserID(userID), logger.Event(eventType), logger.Error(err))
	}
}
