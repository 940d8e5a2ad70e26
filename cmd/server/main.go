package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/staffimport/modules"
	"github.com/iota-uz/staffimport/modules/hrm/services"
	"github.com/iota-uz/staffimport/pkg/application"
	"github.com/iota-uz/staffimport/pkg/configuration"
	"github.com/iota-uz/staffimport/pkg/eventbus"
	"github.com/iota-uz/staffimport/pkg/httpapi"
	"github.com/iota-uz/staffimport/pkg/metrics"
	"github.com/iota-uz/staffimport/pkg/middleware"
	"github.com/iota-uz/staffimport/pkg/outbox"
	eventbusdispatcher "github.com/iota-uz/staffimport/pkg/outbox/dispatchers/eventbus"
	"github.com/iota-uz/staffimport/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(poolCtx, conf.Database.Opts)
	if err != nil {
		log.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := app.Migrations().Apply(ctx); err != nil {
		log.Fatalf("failed to apply schema migrations: %v", err)
	}

	app.RegisterMiddleware(
		middleware.WithLogger(logger),
		middleware.WithPool(pool),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	// Relay-dispatched triggers cross the process boundary here; log each one
	// so a stuck worker can be traced back to its hand-off.
	app.EventPublisher().Subscribe(func(meta *outbox.Meta, topic string, payload json.RawMessage) {
		if topic != services.TopicImportConfirmed {
			return
		}
		logger.WithFields(logrus.Fields{
			"topic":     topic,
			"tenant_id": meta.TenantID,
			"event_id":  meta.EventID,
			"payload":   string(payload),
		}).Info("import confirmation handed off to worker")
	})

	startOutboxRelay(ctx, conf, pool, logger, app.EventPublisher())

	srv := server.NewHTTPServer(app, notFoundHandler(), methodNotAllowedHandler())

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on: %s\n", conf.SocketAddress)
		errCh <- srv.Start(conf.SocketAddress)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
		}
	}
}

func startOutboxRelay(
	ctx context.Context,
	conf *configuration.Configuration,
	pool *pgxpool.Pool,
	logger *logrus.Logger,
	bus eventbus.EventBus,
) {
	if !conf.Outbox.RelayEnabled {
		return
	}
	relayLog := logger.WithField("component", "outbox")
	relay, err := outbox.NewRelay(pool, eventbusdispatcher.New(bus), outbox.RelayOptions{
		PollInterval: conf.Outbox.RelayPollInterval,
		BatchSize:    conf.Outbox.RelayBatchSize,
		LockTTL:      conf.Outbox.RelayLockTTL,
		MaxAttempts:  conf.Outbox.RelayMaxAttempts,
		SingleActive: conf.Outbox.RelaySingleActive,
		Logger:       relayLog,
	})
	if err != nil {
		relayLog.WithError(err).Warn("outbox: failed to create relay")
		return
	}
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			relayLog.WithError(err).Error("outbox: relay stopped")
		}
	}()
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	})
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
}
