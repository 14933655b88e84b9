package memory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreateReturnsSameAccount(t *testing.T) {
	t.Parallel()

	repo := New()

	first := repo.GetOrCreate(3)
	require.NoError(t, first.Deposit(decimal.NewFromInt(5)))

	second := repo.GetOrCreate(3)
	assert.Same(t, first, second)
	assert.Equal(t, "5", second.Snapshot().Available.String())
	assert.Equal(t, 1, repo.Len())
}

func TestRegistry_ListOrderedByClientID(t *testing.T) {
	t.Parallel()

	repo := New()
	for _, id := range []uint16{42, 1, 65535, 7, 0} {
		repo.GetOrCreate(id)
	}

	var got []uint16
	for _, a := range repo.List() {
		got = append(got, a.ID())
	}

	assert.Equal(t, []uint16{0, 1, 7, 42, 65535}, got)
}

func TestRegistry_ListEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, New().List())
}
