package main

import (
	"slices"

	"github.com/dmitrymomot/trakkr/pkg/httpserver"
	"github.com/dmitrymomot/trakkr/pkg/pg"
	"github.com/dmitrymomot/trakkr/pkg/queue"
	"github.com/dmitrymomot/trakkr/pkg/redis"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"trakkr"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	// EventsChannelPrefix namespaces the Redis pub/sub channels of session events.
	EventsChannelPrefix string `env:"EVENTS_CHANNEL_PREFIX" envDefault:"trakkr:session-events:"`

	Redis   redis.Config
	DB      pg.Config
	Queue   queue.Config
	Server  httpserver.Config
	Workout workout.Config
}

// workerQueues returns the queues this process consumes. The expiry queue is
// always included; analysis and notification queues belong to other services.
func (c Config) workerQueues() []string {
	queues := slices.Clone(c.Queue.Queues)
	if !slices.Contains(queues, c.Workout.Queue) {
		queues = append(queues, c.Workout.Queue)
	}
	return queues
}
