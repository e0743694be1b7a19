package workout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/trakkr/pkg/broadcast"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

// Service is the session engine behind the API. *workout.Manager satisfies it.
type Service interface {
	Start(ctx context.Context, userID, workoutID string) (*workout.Session, error)
	GetCurrent(ctx context.Context, userID string) (*workout.Session, bool, error)
	RecordSet(ctx context.Context, userID, exerciseID string, reps int, weight float64) (*workout.Session, error)
	DeleteSet(ctx context.Context, userID, detailID string) (*workout.Session, error)
	Pause(ctx context.Context, userID string) (*workout.Session, error)
	Resume(ctx context.Context, userID string) (*workout.Session, error)
	Finish(ctx context.Context, userID string, opts ...workout.FinishOption) (string, error)
	Discard(ctx context.Context, userID string) error
}

// EventSource streams session events per user.
// broadcast.Broadcaster[workout.SessionEvent] satisfies it.
type EventSource interface {
	Subscribe(ctx context.Context, topic string) (broadcast.Subscriber[workout.SessionEvent], error)
}

// RouterOption configures Router.
type RouterOption func(*api)

// WithEvents enables GET /session/events.
func WithEvents(src EventSource) RouterOption {
	return func(a *api) {
		a.events = src
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RouterOption {
	return func(a *api) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithOriginCheck overrides the websocket origin check.
func WithOriginCheck(fn func(r *http.Request) bool) RouterOption {
	return func(a *api) {
		a.checkOrigin = fn
	}
}

// WithPingInterval sets how often idle event streams are pinged.
func WithPingInterval(d time.Duration) RouterOption {
	return func(a *api) {
		if d > 0 {
			a.pingInterval = d
		}
	}
}

type api struct {
	svc          Service
	events       EventSource
	logger       *slog.Logger
	checkOrigin  func(r *http.Request) bool
	pingInterval time.Duration
}

// Router exposes the session engine as a JSON API. Every route requires the
// X-User-ID header.
//
//	r := chi.NewRouter()
//	r.Mount("/api", workoutmod.Router(manager, workoutmod.WithEvents(events)))
func Router(svc Service, opts ...RouterOption) chi.Router {
	a := &api{
		svc:          svc,
		logger:       slog.Default(),
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}

	r := chi.NewRouter()
	r.Use(RequireUser)

	r.Post("/workouts/{workoutID}/session", a.start())
	r.Route("/session", func(r chi.Router) {
		r.Get("/", a.current())
		r.Delete("/", a.discard())
		r.Post("/sets", a.recordSet())
		r.Delete("/sets/{detailID}", a.deleteSet())
		r.Post("/pause", a.pause())
		r.Post("/resume", a.resume())
		r.Post("/finish", a.finish())
		if a.events != nil {
			r.Get("/events", a.stream())
		}
	})
	return r
}
