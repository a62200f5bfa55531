package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-operations/internal/api"
	"github.com/hackgods/clinic-operations/internal/appointment"
	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/config"
	"github.com/hackgods/clinic-operations/internal/db"
	"github.com/hackgods/clinic-operations/internal/directory"
	"github.com/hackgods/clinic-operations/internal/events"
	"github.com/hackgods/clinic-operations/internal/logging"
	redisclient "github.com/hackgods/clinic-operations/internal/redis"
	"github.com/hackgods/clinic-operations/internal/visit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("", "info")
		boot.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("storage", cfg.StorageDriver).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup error")
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server error")
	}

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// app is the wired HTTP handler plus the connections it owns.
type app struct {
	handler http.Handler
	closers []func()
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	calendar, err := clinic.LoadCalendar(cfg.ClinicTimezone)
	if err != nil {
		return nil, fmt.Errorf("clinic calendar: %w", err)
	}

	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	var (
		apptRepo  appointment.Repository
		visitRepo visit.Repository
		dir       directory.Directory
		sinks     []events.Sink
		deps      []api.Dependency
	)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pgPool, err := connectPostgres(ctx, cfg, logger)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, pgPool.Close)

		apptRepo = appointment.NewPgRepository(pgPool)
		visitRepo = visit.NewPgRepository(pgPool)
		dir = directory.NewPgDirectory(pgPool)
		sinks = append(sinks, events.NewPgSink(pgPool))
		deps = append(deps, api.Dependency{Name: "postgres", Critical: true, Ping: pgPool.Ping})
	default:
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		apptRepo = appointment.NewMemoryRepository()
		visitRepo = visit.NewMemoryRepository()
		dir = directory.NewMemoryDirectory()
	}

	locker := redisclient.NopLocker()
	if cfg.RedisEnabled() {
		rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return fail(fmt.Errorf("redis connection: %w", err))
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		})

		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		deps = append(deps, api.Dependency{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	if cfg.AMQPEnabled() {
		publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			// events are best effort, bookings must not depend on the broker
			logger.Error().Err(err).Msg("amqp connection error, events will not be published")
		} else {
			a.closers = append(a.closers, func() {
				if err := publisher.Close(); err != nil {
					logger.Error().Err(err).Msg("error closing amqp publisher")
				}
			})
			sinks = append(sinks, publisher)
			logger.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing events to AMQP")
		}
	}

	if cfg.DirectoryCache > 0 {
		cached, err := directory.NewCachedDirectory(dir, cfg.DirectoryCache)
		if err != nil {
			return fail(fmt.Errorf("directory cache: %w", err))
		}
		dir = cached
	}

	sink := events.Fanout(sinks...)

	a.handler = api.NewRouter(api.RouterConfig{
		Appointments: appointment.NewService(apptRepo, locker, calendar, sink, logger),
		Visits:       visit.NewService(visitRepo, calendar, sink, logger),
		Directory:    dir,
		Dependencies: deps,
		Logger:       logger,
		Env:          cfg.Env,
		Version:      cfg.Version,
	})
	return a, nil
}

func connectPostgres(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connection: %w", err)
	}
	logger.Info().Msg("connected to Postgres")

	applied, err := db.Migrate(pgCtx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Int("applied", applied).Msg("migrations up to date")

	return pool, nil
}
