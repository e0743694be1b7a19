// Package config loads typed configuration from environment variables.
//
// Every package that needs settings owns a Config struct tagged for
// github.com/caarlos0/env/v11; the process calls Load once per struct at
// startup. A .env file, if present, is read through github.com/joho/godotenv
// before the first parse.
//
//	type Config struct {
//		SessionTimeout time.Duration `env:"WORKOUT_SESSION_TIMEOUT" envDefault:"4h"`
//	}
//
// Parsed values are cached by type, so later calls are cheap and consistent
// even if the environment changes.
package config
