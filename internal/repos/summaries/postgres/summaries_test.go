//go:build integration

package postgres

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/payments-engine/internal/infra/pgtestutil"
	"github.com/fastprodman/payments-engine/internal/repos/summaries"
	"github.com/fastprodman/payments-engine/internal/services/accounts"
)

func snapshot(client uint16, available, held string, locked bool) accounts.Snapshot {
	a := decimal.RequireFromString(available)
	h := decimal.RequireFromString(held)

	return accounts.Snapshot{ClientID: client, Available: a, Held: h, Total: a.Add(h), Locked: locked}
}

func TestSummaries_SaveRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    []accounts.Snapshot
		save    []accounts.Snapshot
		wantErr error
	}{
		{
			name: "ok_insert",
			save: []accounts.Snapshot{
				snapshot(2, "1.5", "0", false),
				snapshot(1, "-0.25", "3.1234", true),
			},
		},
		{
			name:    "duplicate_run",
			seed:    []accounts.Snapshot{snapshot(1, "1", "0", false)},
			save:    []accounts.Snapshot{snapshot(2, "1", "0", false), snapshot(1, "1", "0", false)},
			wantErr: summaries.ErrDuplicateRun,
		},
		{
			name: "balance_beyond_twenty_digits",
			save: []accounts.Snapshot{
				snapshot(1, strings.Repeat("9", 40)+".1234", "1", false),
			},
		},
		{
			name: "empty_run",
			save: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := pgtestutil.NewTestDB(t)
			repo := New(db)
			runID := uuid.New()

			if tt.seed != nil {
				require.NoError(t, repo.SaveRun(t.Context(), runID, tt.seed))
			}

			err := repo.SaveRun(t.Context(), runID, tt.save)
			require.ErrorIs(t, err, tt.wantErr)

			got, err := repo.ListRun(t.Context(), runID)
			require.NoError(t, err)

			want := tt.save
			if tt.wantErr != nil {
				want = tt.seed
			}

			require.Len(t, got, len(want))

			for _, g := range got {
				var w accounts.Snapshot

				for _, c := range want {
					if c.ClientID == g.ClientID {
						w = c
					}
				}

				assert.True(t, w.Available.Equal(g.Available), "available client %d", g.ClientID)
				assert.True(t, w.Held.Equal(g.Held), "held client %d", g.ClientID)
				assert.True(t, w.Total.Equal(g.Total), "total client %d", g.ClientID)
				assert.Equal(t, w.Locked, g.Locked)
			}
		})
	}
}

func TestSummaries_ListRunOrdered(t *testing.T) {
	t.Parallel()

	db := pgtestutil.NewTestDB(t)
	repo := New(db)
	runID := uuid.New()

	require.NoError(t, repo.SaveRun(t.Context(), runID, []accounts.Snapshot{
		snapshot(9, "1", "0", false),
		snapshot(3, "1", "0", false),
		snapshot(65535, "1", "0", false),
	}))

	got, err := repo.ListRun(t.Context(), runID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []uint16{3, 9, 65535}, []uint16{got[0].ClientID, got[1].ClientID, got[2].ClientID})

	other, err := repo.ListRun(t.Context(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}
