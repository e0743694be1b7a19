// Package handler turns typed functions into http.HandlerFunc values.
//
// A HandlerFunc receives a request struct filled by binders and returns a
// Response. Wrap does the plumbing: it builds the Context, runs the binders,
// applies decorators and renders the result. Binding and rendering errors go
// to the ErrorHandler, which by default writes a JSON error envelope.
//
//	type RecordSetRequest struct {
//		ExerciseID string  `json:"exerciseId"`
//		Reps       int     `json:"reps"`
//		Weight     float64 `json:"weight"`
//	}
//
//	r.Post("/session/sets", handler.Wrap(recordSet,
//		handler.WithBinders[handler.Context, RecordSetRequest](binder.JSON()),
//	))
//
// Responses share one envelope:
//
//	{"data": {...}}
//	{"error": {"code": "workout.session_not_found", "message": "..."}}
//
// Return an HTTPError from a handler or decorator to choose the status code
// and error key.
package handler
