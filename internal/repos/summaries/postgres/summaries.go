package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/payments-engine/internal/infra/pgutils"
	"github.com/fastprodman/payments-engine/internal/repos/summaries"
	"github.com/fastprodman/payments-engine/internal/services/accounts"
)

var _ summaries.Summaries = (*summariesRepo)(nil)

type summariesRepo struct{ db *sql.DB }

func New(db *sql.DB) *summariesRepo {
	return &summariesRepo{db: db}
}

// SaveRun writes every snapshot of a run in a single transaction. A run id
// that was already exported yields summaries.ErrDuplicateRun and nothing
// is written.
func (r *summariesRepo) SaveRun(ctx context.Context, runID uuid.UUID, snapshots []accounts.Snapshot) error {
	err := pgutils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO account_summaries (run_id, client_id, available, held, total, locked)
			VALUES ($1, $2, $3, $4, $5, $6)
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		//nolint:errcheck
		defer stmt.Close()

		for _, s := range snapshots {
			_, err = stmt.ExecContext(ctx,
				runID, int32(s.ClientID), s.Available, s.Held, s.Total, s.Locked,
			)
			if err != nil {
				if pgutils.IsUniqueViolation(err) {
					return summaries.ErrDuplicateRun
				}

				return fmt.Errorf("insert client %d: %w", s.ClientID, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}

	return nil
}

func (r *summariesRepo) ListRun(ctx context.Context, runID uuid.UUID) ([]accounts.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT client_id, available, held, total, locked
		FROM account_summaries
		WHERE run_id = $1
		ORDER BY client_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	var out []accounts.Snapshot

	for rows.Next() {
		var (
			s        accounts.Snapshot
			clientID int32
		)

		err = rows.Scan(&clientID, &s.Available, &s.Held, &s.Total, &s.Locked)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		s.ClientID = uint16(clientID)
		out = append(out, s)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}
