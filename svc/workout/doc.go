// Package workout runs in-progress workout sessions.
//
// A session lives in a shared key/value store (Redis in production) under
// "ongoingWorkout-<userID>" while the user trains. Logging the first set
// creates the durable workout log row, and each new exercise creates an
// exercise log row, so the ids are stable for the rest of the session.
// Finish writes the whole session to the durable store in one transaction
// and removes it from the key/value store. Discard removes both.
//
// Sessions left open expire after a timeout (4h by default). Three
// mechanisms back each other up:
//
//   - Start schedules an ExpireSession task on the durable queue.
//   - The periodic SweepTaskName task discards anything overdue.
//   - GetCurrent discards an overdue session it happens to read.
//
// The expiry task carries the session start time and does nothing if the
// user has since started another session.
//
// Every Manager operation holds a per-user lock (see Locker) for its full
// read-modify-write cycle. With several processes sharing one store the
// lock must be distributed, for example pkg/redis.Locker.
//
// Errors match one of ErrNotFound, ErrConflict, ErrInvalidState,
// ErrInvalidInput, ErrStoreUnavailable or ErrDurableWrite; ErrorKind maps an
// error to its tag.
package workout
