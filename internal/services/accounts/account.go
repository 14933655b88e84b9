package accounts

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountLocked     = errors.New("account locked")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyDisputed   = errors.New("transaction already disputed")
)

// Snapshot is a read-only view of an account at a point in time.
type Snapshot struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// Account holds one client's funds and the set of its transactions
// currently under dispute. Total is never stored; it is always
// available + held.
type Account struct {
	id        uint16
	available decimal.Decimal
	held      decimal.Decimal
	locked    bool
	disputed  map[uint32]struct{}
}

// New returns an unlocked account with zero balances.
func New(id uint16) *Account {
	return &Account{
		id:       id,
		disputed: make(map[uint32]struct{}),
	}
}

func (a *Account) ID() uint16 { return a.id }

func (a *Account) Locked() bool { return a.locked }

// IsDisputed reports whether txID is currently held under dispute.
func (a *Account) IsDisputed(txID uint32) bool {
	_, ok := a.disputed[txID]

	return ok
}

// Deposit credits available funds.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if a.locked {
		return ErrAccountLocked
	}

	a.available = a.available.Add(amount)

	return nil
}

// Withdraw debits available funds. Withdrawing the exact available
// balance is allowed.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if a.locked {
		return ErrAccountLocked
	}

	if a.available.LessThan(amount) {
		return ErrInsufficientFunds
	}

	a.available = a.available.Sub(amount)

	return nil
}

// Dispute moves amount from available to held and marks txID as disputed.
// It is allowed on a locked account; available may go negative.
func (a *Account) Dispute(txID uint32, amount decimal.Decimal) error {
	if a.IsDisputed(txID) {
		return ErrAlreadyDisputed
	}

	a.available = a.available.Sub(amount)
	a.held = a.held.Add(amount)
	a.disputed[txID] = struct{}{}

	return nil
}

// Resolve releases a disputed amount back to available funds.
// It reports false and changes nothing when txID is not under dispute.
func (a *Account) Resolve(txID uint32, amount decimal.Decimal) bool {
	if !a.IsDisputed(txID) {
		return false
	}

	a.available = a.available.Add(amount)
	a.held = a.held.Sub(amount)
	delete(a.disputed, txID)

	return true
}

// Chargeback removes a disputed amount from held funds and locks the
// account. It reports false and changes nothing when txID is not under
// dispute.
func (a *Account) Chargeback(txID uint32, amount decimal.Decimal) bool {
	if !a.IsDisputed(txID) {
		return false
	}

	a.held = a.held.Sub(amount)
	a.locked = true
	delete(a.disputed, txID)

	return true
}

func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		ClientID:  a.id,
		Available: a.available,
		Held:      a.held,
		Total:     a.available.Add(a.held),
		Locked:    a.locked,
	}
}
