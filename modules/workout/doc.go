// Package workout exposes the ongoing-workout session engine over HTTP.
//
// Router mounts a JSON API on top of a Service (normally *workout.Manager
// from svc/workout). The caller is identified by the X-User-ID header, which
// an upstream gateway sets after authentication. Service errors become JSON
// error envelopes whose code is the error kind, for example
// "workout.session_not_found" with status 404.
//
// With WithEvents, GET /session/events upgrades to a websocket that first
// sends a "snapshot" frame with the current session and then every session
// event of the user.
package workout
