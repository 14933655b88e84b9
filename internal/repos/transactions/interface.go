package transactions

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrDuplicateTransaction = errors.New("duplicate transaction")

// Entry is an accepted deposit or withdrawal. Entries are immutable once
// inserted and are only read back to settle disputes.
type Entry struct {
	TxID     uint32
	ClientID uint16
	Amount   decimal.Decimal
}

type History interface {
	Insert(entry Entry) error
	Get(txID uint32) (Entry, bool)
	Len() int
}
