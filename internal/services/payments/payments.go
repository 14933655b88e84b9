// Package payments runs one CSV input through the engine and hands the
// resulting account summaries to the configured export sinks.
package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fastprodman/payments-engine/internal/csvio"
	"github.com/fastprodman/payments-engine/internal/repos/summaries"
	"github.com/fastprodman/payments-engine/internal/services/accounts"
	"github.com/fastprodman/payments-engine/internal/services/engine"
)

var ErrExport = errors.New("export run")

// Publisher announces the summaries of a completed run.
type Publisher interface {
	PublishRun(ctx context.Context, runID uuid.UUID, snapshots []accounts.Snapshot) error
}

type Option func(*Service)

func WithSummaryStore(s summaries.Summaries) Option {
	return func(svc *Service) { svc.store = s }
}

func WithPublisher(p Publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

// Service is safe for concurrent use; every Process call is an independent
// run with its own accounts and history.
type Service struct {
	store     summaries.Summaries
	publisher Publisher
}

func New(opts ...Option) *Service {
	s := &Service{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Process reads the CSV stream r to the end and returns the final account
// summaries. Nothing is exported unless the whole run succeeds.
func (s *Service) Process(ctx context.Context, r io.Reader) (engine.Result, error) {
	src := csvio.NewReader(r)

	res, err := engine.New().Run(ctx, src)
	if err != nil {
		// Reader errors already name their line.
		var recErr *engine.RecordError
		if errors.As(err, &recErr) {
			return engine.Result{}, fmt.Errorf("process run: line %d: %w", src.Line(), err)
		}

		return engine.Result{}, fmt.Errorf("process run: %w", err)
	}

	err = s.export(ctx, res)
	if err != nil {
		return engine.Result{}, fmt.Errorf("%w %s: %w", ErrExport, res.RunID, err)
	}

	return res, nil
}

func (s *Service) export(ctx context.Context, res engine.Result) error {
	if s.store != nil {
		err := s.store.SaveRun(ctx, res.RunID, res.Accounts)
		if err != nil {
			return fmt.Errorf("save summaries: %w", err)
		}

		slog.Info("summaries saved", "run_id", res.RunID, "accounts", len(res.Accounts))
	}

	if s.publisher != nil {
		err := s.publisher.PublishRun(ctx, res.RunID, res.Accounts)
		if err != nil {
			return fmt.Errorf("publish summaries: %w", err)
		}

		slog.Info("summaries published", "run_id", res.RunID, "accounts", len(res.Accounts))
	}

	return nil
}
