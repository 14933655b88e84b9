package memory

import (
	"github.com/fastprodman/payments-engine/internal/repos/transactions"
)

var _ transactions.History = (*historyRepo)(nil)

type historyRepo struct {
	entries map[uint32]transactions.Entry
}

func New() *historyRepo {
	return &historyRepo{entries: make(map[uint32]transactions.Entry)}
}

// Insert stores entry under its transaction id. An id is accepted once;
// later inserts return ErrDuplicateTransaction and leave the first entry
// untouched.
func (r *historyRepo) Insert(entry transactions.Entry) error {
	_, exists := r.entries[entry.TxID]
	if exists {
		return transactions.ErrDuplicateTransaction
	}

	r.entries[entry.TxID] = entry

	return nil
}

func (r *historyRepo) Get(txID uint32) (transactions.Entry, bool) {
	entry, ok := r.entries[txID]

	return entry, ok
}

func (r *historyRepo) Len() int {
	return len(r.entries)
}
