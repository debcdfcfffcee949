// main wires the dependencies and keeps the process lifecycle small.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"bhulekh/internal/anchor"
	"bhulekh/internal/audit"
	auditmemory "bhulekh/internal/audit/store/memory"
	auditpostgres "bhulekh/internal/audit/store/postgres"
	"bhulekh/internal/audit/worker"
	httpapi "bhulekh/internal/http"
	"bhulekh/internal/notify"
	"bhulekh/internal/platform/config"
	"bhulekh/internal/platform/httpserver"
	"bhulekh/internal/platform/logger"
	platformmetrics "bhulekh/internal/platform/metrics"
	"bhulekh/internal/platform/redis"
	"bhulekh/internal/registry"
	"bhulekh/internal/transfer/handler"
	transfermetrics "bhulekh/internal/transfer/metrics"
	"bhulekh/internal/transfer/service"
	"bhulekh/internal/transfer/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		transferStore store.Store
		auditStore    audit.Store
	)
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("pgx", cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		transferStore = store.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		log.Info("using postgres stores")
	} else {
		transferStore = store.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	queue := audit.NewQueue(auditStore, 1024, log)
	auditWorker := worker.New(auditStore, queue.Events(), log)

	opts := []service.Option{
		service.WithAuditPublisher(queue),
		service.WithNotifier(notify.NewDispatcher(log, notify.NewLogSender(log))),
		service.WithMetrics(transfermetrics.New()),
		service.WithLogger(log),
	}

	var dispatcher *anchor.Dispatcher
	if cfg.Anchor.BaseURL != "" {
		ledger := anchor.NewHTTPClient(cfg.Anchor.BaseURL, cfg.Anchor.CallTimeout,
			anchor.WithAPIKey(cfg.Anchor.APIKey))

		var retry anchor.RetryQueue = anchor.NewMemoryQueue()
		if rdb != nil {
			retry = anchor.NewRedisQueue(rdb.Client, "anchor:retry")
		}
		dispatcher = anchor.NewDispatcher(ledger, transferStore, retry, log,
			anchor.WithMaxAttempts(cfg.Anchor.MaxAttempts),
			anchor.WithRetryInterval(cfg.Anchor.RetryInterval),
			anchor.WithCallTimeout(cfg.Anchor.CallTimeout),
			anchor.WithMetrics(anchor.NewMetrics()),
		)
		opts = append(opts, service.WithAnchors(dispatcher), service.WithLedgerReader(ledger))
	} else {
		log.Warn("anchor ledger not configured, milestones will not be anchored")
	}

	if cfg.Registry.BaseURL != "" {
		opts = append(opts, service.WithRegistry(registry.NewHTTPClient(cfg.Registry.BaseURL, cfg.Registry.Timeout)))
	} else {
		log.Warn("property registry not configured, skipping upstream checks")
	}

	svc, err := service.New(transferStore, opts...)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Options{
		Transfers:      handler.New(svc, log),
		Metrics:        platformmetrics.New(),
		Logger:         log,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	srv := httpserver.New(cfg.HTTP.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting bhulekh", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if dispatcher != nil {
		g.Go(func() error {
			if err := dispatcher.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
