// Package binder fills request structs from HTTP requests.
//
// Each binder handles one source: JSON for the body, Path for router
// parameters and Query for the query string. Binders are combined with
// handler.WithBinders and run in order.
//
//	type RecordSetRequest struct {
//		ExerciseID string  `json:"exerciseId"`
//		Reps       int     `json:"reps"`
//		Weight     float64 `json:"weight"`
//	}
//
// Errors wrap one of the package sentinels, so callers can map them to a
// 400 or 415 response with errors.Is.
package binder
