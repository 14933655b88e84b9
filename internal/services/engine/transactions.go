package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the transaction type as it appears in the input stream.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// AmountPrecision is the number of decimal places kept for every amount.
const AmountPrecision = 4

// maxAmountExponent bounds the decimal exponent of an incoming amount.
const maxAmountExponent = 64

var (
	ErrUnknownTransactionType     = errors.New("unknown transaction type")
	ErrAmountMissing              = errors.New("amount missing")
	ErrInvalidAmount              = errors.New("invalid amount")
	ErrUnableToProcessTransaction = errors.New("unable to process transaction")
)

// ParseKind classifies a raw type field. Surrounding whitespace is ignored,
// case is not.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(raw)); k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, raw)
	}
}

// Record is one parsed input row. Amount is nil when the row carries none.
type Record struct {
	Kind     Kind
	ClientID uint16
	TxID     uint32
	Amount   *decimal.Decimal
}

// RecordError ties a fatal error to the record that caused it.
type RecordError struct {
	Kind     Kind
	ClientID uint16
	TxID     uint32
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s tx %d for client %d: %v", e.Kind, e.TxID, e.ClientID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// fundsAmount validates the amount of a deposit or withdrawal.
func fundsAmount(rec Record) (decimal.Decimal, error) {
	if rec.Amount == nil {
		return decimal.Decimal{}, ErrAmountMissing
	}

	exp := rec.Amount.Exponent()
	if exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Decimal{}, fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, exp)
	}

	amount := rec.Amount.Round(AmountPrecision)
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInvalidAmount, rec.Amount)
	}

	return amount, nil
}
