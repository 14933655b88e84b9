package summaries

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/payments-engine/internal/services/accounts"
)

var ErrDuplicateRun = errors.New("run already exported")

// Summaries stores the final account summaries of completed runs. It is an
// export target only; runs never read earlier runs back.
type Summaries interface {
	SaveRun(ctx context.Context, runID uuid.UUID, snapshots []accounts.Snapshot) error
	ListRun(ctx context.Context, runID uuid.UUID) ([]accounts.Snapshot, error)
}
