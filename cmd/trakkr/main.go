package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	workoutapi "github.com/dmitrymomot/trakkr/modules/workout"
	"github.com/dmitrymomot/trakkr/migrations"
	"github.com/dmitrymomot/trakkr/pkg/broadcast"
	"github.com/dmitrymomot/trakkr/pkg/config"
	"github.com/dmitrymomot/trakkr/pkg/httpserver"
	"github.com/dmitrymomot/trakkr/pkg/logger"
	"github.com/dmitrymomot/trakkr/pkg/pg"
	"github.com/dmitrymomot/trakkr/pkg/queue"
	"github.com/dmitrymomot/trakkr/pkg/redis"
	"github.com/dmitrymomot/trakkr/pkg/requestid"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Error("Failed to connect to redis", logger.Component("redis"), logger.Error(err))
		os.Exit(1)
	}
	defer rdb.Close()

	db, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		log.Error("Failed to connect to database", logger.Component("database"), logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := pg.MigrateFS(ctx, db, migrations.FS, cfg.DB, log.With(logger.Component("database.migration"))); err != nil {
		log.Error("Failed to migrate database", logger.Component("database.migration"), logger.Error(err))
		os.Exit(1)
	}

	cfg.Queue.Queues = cfg.workerQueues()
	tasks, err := queue.NewServiceFromConfig(cfg.Queue, queue.NewPGStorage(db), log.With(logger.Component("queue")))
	if err != nil {
		log.Error("Failed to create task queue", logger.Component("queue"), logger.Error(err))
		os.Exit(1)
	}

	events := broadcast.NewRedisBroadcaster[workout.SessionEvent](rdb,
		broadcast.WithChannelPrefix(cfg.EventsChannelPrefix),
		broadcast.WithLogger(log),
	)
	defer events.Close()

	manager := workout.NewManager(
		workout.NewRedisStore(redis.NewStorageWithConfig(rdb, cfg.Redis), cfg.Workout.KeyPrefix),
		workout.NewPGRepository(db),
		workout.WithConfig(cfg.Workout),
		workout.WithLocker(redis.NewLocker(rdb, redis.WithLockTTL(cfg.Workout.LockTTL))),
		workout.WithExpiryScheduler(workout.NewQueueExpiryScheduler(tasks, cfg.Workout.Queue)),
		workout.WithEventPublisher(events),
		workout.WithFinishHooks(
			workout.EnqueueAnalysis(tasks, cfg.Workout.AnalysisQueue),
			workout.EnqueueNotification(tasks, cfg.Workout.NotificationQueue),
		),
		workout.WithLogger(log),
	)

	if err := tasks.RegisterHandlers(manager.TaskHandlers()...); err != nil {
		log.Error("Failed to register task handlers", logger.Component("queue"), logger.Error(err))
		os.Exit(1)
	}
	if err := tasks.AddScheduledTask(
		workout.SweepTaskName,
		queue.EveryInterval(cfg.Workout.SweepInterval),
		queue.WithTaskQueue(cfg.Workout.Queue),
	); err != nil {
		log.Error("Failed to schedule session sweep", logger.Component("queue"), logger.Error(err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.RealIP, middleware.Recoverer)

	r.Get("/live", httpserver.Liveness())
	r.Get("/ready", httpserver.Readiness(log, 2*time.Second, map[string]httpserver.Check{
		"redis":    redis.Healthcheck(rdb),
		"postgres": pg.Healthcheck(db),
	}))
	r.Mount("/api/v1", workoutapi.Router(manager,
		workoutapi.WithEvents(events),
		workoutapi.WithLogger(log),
	))

	srv := httpserver.NewFromConfig(cfg.Server, httpserver.WithLogger(log.With(logger.Component("http"))))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return tasks.Run(ctx) })
	eg.Go(func() error { return srv.Run(ctx, r) })

	if err := eg.Wait(); err != nil {
		log.Error("Application stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Application stopped")
}
