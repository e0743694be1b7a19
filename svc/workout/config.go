package workout

import "time"

// Config holds session engine settings.
type Config struct {
	SessionTimeout    time.Duration `env:"WORKOUT_SESSION_TIMEOUT" envDefault:"4h"`
	SweepInterval     time.Duration `env:"WORKOUT_SWEEP_INTERVAL" envDefault:"5m"`
	KeyPrefix         string        `env:"WORKOUT_KEY_PREFIX" envDefault:"ongoingWorkout-"`
	LockTTL           time.Duration `env:"WORKOUT_LOCK_TTL" envDefault:"10s"`
	LockWait          time.Duration `env:"WORKOUT_LOCK_WAIT" envDefault:"5s"`
	Queue             string        `env:"WORKOUT_QUEUE" envDefault:"workout"`
	AnalysisQueue     string        `env:"WORKOUT_ANALYSIS_QUEUE" envDefault:"analysis"`
	NotificationQueue string        `env:"WORKOUT_NOTIFICATION_QUEUE" envDefault:"notifications"`
}
