package workout

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/trakkr/handler"
	"github.com/dmitrymomot/trakkr/pkg/binder"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

// SessionResponse is the payload of every route returning a session.
type SessionResponse struct {
	Session        *workout.Session `json:"session"`
	AllowedActions []string         `json:"allowedActions"`
}

// FinishResponse is the payload of POST /session/finish.
type FinishResponse struct {
	WorkoutLogID string `json:"workoutLogId"`
}

type StartRequest struct {
	WorkoutID string `path:"workoutID"`
}

type RecordSetRequest struct {
	ExerciseID string  `json:"exerciseId"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
}

type DeleteSetRequest struct {
	DetailID string `path:"detailID"`
}

type FinishRequest struct {
	// Durations maps exercise ids to seconds spent on them.
	Durations map[string]int64 `json:"durations,omitempty"`
}

func sessionJSON(ctx handler.Context, s *workout.Session, opts ...handler.JSONOption) handler.Response {
	return handler.JSON(SessionResponse{
		Session:        s,
		AllowedActions: workout.AllowedEvents(ctx, s),
	}, opts...)
}

func (a *api) start() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req StartRequest) handler.Response {
		s, err := a.svc.Start(ctx, UserID(ctx), req.WorkoutID)
		if err != nil {
			return handler.JSONError(httpError(err))
		}
		return sessionJSON(ctx, s, handler.WithJSONStatus(http.StatusCreated))
	}, handler.WithBinders[handler.Context, StartRequest](binder.Path(chi.URLParam)))
}

func (a *api) current() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		s, ok, err := a.svc.GetCurrent(ctx, UserID(ctx))
		if err != nil {
			return handler.JSONError(httpError(err))
		}
		if !ok {
			return handler.Empty()
		}
		return sessionJSON(ctx, s)
	})
}

func (a *api) recordSet() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req RecordSetRequest) handler.Response {
		s, err := a.svc.RecordSet(ctx, UserID(ctx), req.ExerciseID, req.Reps, req.Weight)
		if err != nil {
			return handler.JSONError(httpError(err))
		}
		return sessionJSON(ctx, s)
	}, handler.WithBinders[handler.Context, RecordSetRequest](binder.JSON()))
}

func (a *api) deleteSet() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req DeleteSetRequest) handler.Response {
		s, err := a.svc.DeleteSet(ctx, UserID(ctx), req.DetailID)
		if err != nil {
			return handler.JSONError(httpError(err))
		}
		return sessionJSON(ctx, s)
	}, handler.WithBinders[handler.Context, DeleteSetRequest](binder.Path(chi.URLParam)))
}

func (a *api) pause() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		s, err := a.svc.Pause(ctx, UserID(ctx))
		if err != nil {
			return handler.JSONError(httpError(err))
		}
		return sessionJSON(ctx, s)
	})
}

func (a *api) resume() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		s, err := a.svc.Resume(ctx, UserID(ctx))
		if err != nil {
			return handler.JSONError(httpError(err))
		}
		return sessionJSON(ctx, s)
	})
}

func (a *api) finish() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req FinishRequest) handler.Response {
		var opts []workout.FinishOption
		if len(req.Durations) > 0 {
			opts = append(opts, workout.WithExerciseDurations(req.Durations))
		}
		id, err := a.svc.Finish(ctx, UserID(ctx), opts...)
		if err != nil {
			return handler.JSONError(httpError(err))
		}
		return handler.JSON(FinishResponse{WorkoutLogID: id})
	}, handler.WithBinders[handler.Context, FinishRequest](binder.JSON()))
}

func (a *api) discard() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		if err := a.svc.Discard(ctx, UserID(ctx)); err != nil {
			return handler.JSONError(httpError(err))
		}
		return handler.Empty()
	})
}
