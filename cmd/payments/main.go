// Command payments applies a CSV file of transactions and prints the final
// state of every client account as CSV on stdout.
//
// Usage:
//
//	payments transactions.csv > accounts.csv
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/payments-engine/internal/csvio"
	"github.com/fastprodman/payments-engine/internal/events/kafka"
	"github.com/fastprodman/payments-engine/internal/infra/logging"
	"github.com/fastprodman/payments-engine/internal/infra/pgutils"
	pgsummaries "github.com/fastprodman/payments-engine/internal/repos/summaries/postgres"
	"github.com/fastprodman/payments-engine/internal/services/payments"
	"github.com/fastprodman/payments-engine/pkg/envconf"
	"github.com/fastprodman/payments-engine/pkg/shutdownqueue"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage: payments <transactions.csv>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		code := exitFailure
		if errors.Is(err, errUsage) {
			code = exitUsage
		}

		stop()
		//nolint:gocritic
		os.Exit(code)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) (retErr error) {
	if len(args) != 1 {
		return errUsage
	}

	cfg := new(cliConfig)

	err := envconf.LoadWithDotenv(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	// stdout carries the report.
	logging.SetupStderr(cfg.LogLevel)

	queue := shutdownqueue.New()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := queue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	queue.Add("close input", func(context.Context) error {
		return in.Close()
	})

	opts, err := exportOptions(ctx, cfg, queue)
	if err != nil {
		return err
	}

	res, err := payments.New(opts...).Process(ctx, in)
	if err != nil {
		return err
	}

	err = csvio.NewWriter(stdout).WriteAll(res.Accounts)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// exportOptions opens the summary sinks enabled in cfg and registers their
// cleanup on queue.
func exportOptions(ctx context.Context, cfg *cliConfig, queue *shutdownqueue.Queue) ([]payments.Option, error) {
	var opts []payments.Option

	if cfg.Postgres.Enabled() {
		db, err := pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}

		queue.Add("close db", func(context.Context) error {
			return db.Close()
		})

		opts = append(opts, payments.WithSummaryStore(pgsummaries.New(db)))

		slog.Debug("summary export to postgres enabled")
	}

	if cfg.Kafka.Enabled() {
		pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

		queue.Add("close kafka publisher", func(context.Context) error {
			return pub.Close()
		})

		opts = append(opts, payments.WithPublisher(pub))

		slog.Debug("summary export to kafka enabled", "topic", cfg.Kafka.Topic)
	}

	return opts, nil
}
