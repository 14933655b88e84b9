package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/payments-engine/internal/api"
	"github.com/fastprodman/payments-engine/internal/events/kafka"
	"github.com/fastprodman/payments-engine/internal/infra/logging"
	"github.com/fastprodman/payments-engine/internal/infra/pgutils"
	pgsummaries "github.com/fastprodman/payments-engine/internal/repos/summaries/postgres"
	"github.com/fastprodman/payments-engine/internal/services/payments"
	"github.com/fastprodman/payments-engine/pkg/envconf"
	"github.com/fastprodman/payments-engine/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.LoadWithDotenv(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	var (
		opts []payments.Option
		runs api.RunLister
	)

	if cfg.Postgres.Enabled() {
		db, err := pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}

		shutdownqueue.Add("close db", func(context.Context) error {
			return db.Close()
		})

		store := pgsummaries.New(db)
		opts = append(opts, payments.WithSummaryStore(store))
		runs = store
	}

	if cfg.Kafka.Enabled() {
		pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

		shutdownqueue.Add("close kafka publisher", func(context.Context) error {
			return pub.Close()
		})

		opts = append(opts, payments.WithPublisher(pub))
	}

	svc := payments.New(opts...)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, svc, runs, cfg.MaxBodyBytes)

	// Registered last so it drains first.
	shutdownqueue.Add("shutdown http server", func(c context.Context) error {
		slog.Info("shutting down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr

			return
		}

		errCh <- nil
	}()

	slog.Info("API started",
		"addr", srv.Addr,
		"postgres_export", cfg.Postgres.Enabled(),
		"kafka_export", cfg.Kafka.Enabled(),
	)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
