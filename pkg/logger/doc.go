// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so that keys stay consistent across packages.
//
// New picks a text or JSON handler and wraps it with NewContextHandler,
// which runs ContextExtractor callbacks on every record. This is how
// request-scoped values such as the request id reach log lines without being
// passed around explicitly.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "trakkr"),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	log.InfoContext(ctx, "workout finished",
//	    logger.UserID(userID),
//	    logger.WorkoutLogID(workoutLogID),
//	)
//
// Error and the identifier helpers return an empty slog.Attr for zero
// values, which slog drops, so callers need no nil checks.
package logger
