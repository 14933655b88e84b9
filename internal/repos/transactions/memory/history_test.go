package memory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/payments-engine/internal/repos/transactions"
)

func TestHistory_Insert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    []transactions.Entry
		entry   transactions.Entry
		wantErr error
	}{
		{
			name:  "ok_insert",
			entry: transactions.Entry{TxID: 1, ClientID: 1, Amount: decimal.NewFromInt(10)},
		},
		{
			name:    "duplicate_transaction",
			seed:    []transactions.Entry{{TxID: 7, ClientID: 1, Amount: decimal.NewFromInt(1)}},
			entry:   transactions.Entry{TxID: 7, ClientID: 2, Amount: decimal.NewFromInt(99)},
			wantErr: transactions.ErrDuplicateTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := New()
			for _, e := range tt.seed {
				require.NoError(t, repo.Insert(e))
			}

			err := repo.Insert(tt.entry)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, len(tt.seed)+boolToInt(tt.wantErr == nil), repo.Len())
		})
	}
}

func TestHistory_DuplicateKeepsFirstEntry(t *testing.T) {
	t.Parallel()

	repo := New()
	require.NoError(t, repo.Insert(transactions.Entry{TxID: 7, ClientID: 1, Amount: decimal.NewFromInt(1)}))
	require.ErrorIs(t,
		repo.Insert(transactions.Entry{TxID: 7, ClientID: 2, Amount: decimal.NewFromInt(99)}),
		transactions.ErrDuplicateTransaction,
	)

	got, ok := repo.Get(7)
	require.True(t, ok)
	assert.Equal(t, uint16(1), got.ClientID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1)))

	_, ok = repo.Get(8)
	assert.False(t, ok)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
