// Package engine applies an ordered stream of transaction records to
// client accounts.
//
// Records are applied strictly in arrival order by a single goroutine.
// Disputes, resolves and chargebacks refer back to earlier deposits and
// withdrawals through the history index, so reordering the stream changes
// the result. Any fatal error aborts the run and no snapshots are returned.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	accountsrepo "github.com/fastprodman/payments-engine/internal/repos/accounts"
	accountsmem "github.com/fastprodman/payments-engine/internal/repos/accounts/memory"
	"github.com/fastprodman/payments-engine/internal/repos/transactions"
	historymem "github.com/fastprodman/payments-engine/internal/repos/transactions/memory"
	"github.com/fastprodman/payments-engine/internal/services/accounts"
)

// Source yields records in stream order. Next returns io.EOF once the
// stream is exhausted.
type Source interface {
	Next() (Record, error)
}

// Result is the outcome of a completed run.
type Result struct {
	RunID     uuid.UUID
	Accounts  []accounts.Snapshot
	Processed int
	Ignored   int
}

type Option func(*Processor)

func WithHistory(h transactions.History) Option {
	return func(p *Processor) { p.history = h }
}

func WithRegistry(r accountsrepo.Registry) Option {
	return func(p *Processor) { p.registry = r }
}

func WithRunID(id uuid.UUID) Option {
	return func(p *Processor) { p.runID = id }
}

// Processor owns the account registry and the transaction history for a
// single run. It is not safe for concurrent use.
type Processor struct {
	runID     uuid.UUID
	history   transactions.History
	registry  accountsrepo.Registry
	processed int
	ignored   int
}

func New(opts ...Option) *Processor {
	p := &Processor{
		runID:    uuid.New(),
		history:  historymem.New(),
		registry: accountsmem.New(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Processor) RunID() uuid.UUID { return p.runID }

// Run drains src, applying every record in order. On any error the zero
// Result is returned; the processor must then be discarded.
func (p *Processor) Run(ctx context.Context, src Source) (Result, error) {
	for {
		err := ctx.Err()
		if err != nil {
			return Result{}, fmt.Errorf("run canceled: %w", err)
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return Result{}, fmt.Errorf("read record: %w", err)
		}

		err = p.Apply(rec)
		if err != nil {
			return Result{}, err
		}
	}

	slog.Info("run completed",
		"run_id", p.runID,
		"accounts", p.registry.Len(),
		"processed", p.processed,
		"ignored", p.ignored,
	)

	return Result{
		RunID:     p.runID,
		Accounts:  p.Snapshots(),
		Processed: p.processed,
		Ignored:   p.ignored,
	}, nil
}

// Apply applies a single record. Errors are fatal for the run and are
// returned as *RecordError.
func (p *Processor) Apply(rec Record) error {
	// The account exists from its first reference, even when the record
	// turns out to be ignored.
	account := p.registry.GetOrCreate(rec.ClientID)

	kind, err := ParseKind(string(rec.Kind))
	if err != nil {
		return &RecordError{Kind: rec.Kind, ClientID: rec.ClientID, TxID: rec.TxID, Err: err}
	}

	rec.Kind = kind

	switch kind {
	case KindDeposit, KindWithdrawal:
		err = p.applyFunds(account, rec)
	case KindDispute:
		p.applyDispute(account, rec)
	case KindResolve:
		p.applyResolve(account, rec)
	case KindChargeback:
		err = p.applyChargeback(account, rec)
	}

	if err != nil {
		return &RecordError{Kind: kind, ClientID: rec.ClientID, TxID: rec.TxID, Err: err}
	}

	p.processed++

	return nil
}

// Snapshots returns one snapshot per known account ordered by client id.
func (p *Processor) Snapshots() []accounts.Snapshot {
	list := p.registry.List()

	out := make([]accounts.Snapshot, 0, len(list))
	for _, a := range list {
		out = append(out, a.Snapshot())
	}

	return out
}

func (p *Processor) applyFunds(account *accounts.Account, rec Record) error {
	amount, err := fundsAmount(rec)
	if err != nil {
		return err
	}

	_, exists := p.history.Get(rec.TxID)
	if exists {
		return transactions.ErrDuplicateTransaction
	}

	if rec.Kind == KindDeposit {
		err = account.Deposit(amount)
	} else {
		err = account.Withdraw(amount)
	}

	if err != nil {
		return err
	}

	err = p.history.Insert(transactions.Entry{
		TxID:     rec.TxID,
		ClientID: rec.ClientID,
		Amount:   amount,
	})
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	return nil
}

// lookup finds the transaction a dispute or resolve refers to. Unknown
// transactions and transactions of other clients are not errors.
func (p *Processor) lookup(rec Record) (transactions.Entry, bool) {
	entry, ok := p.history.Get(rec.TxID)
	if !ok {
		p.ignore(rec, "unknown transaction")

		return transactions.Entry{}, false
	}

	if entry.ClientID != rec.ClientID {
		p.ignore(rec, "transaction belongs to another client")

		return transactions.Entry{}, false
	}

	return entry, true
}

func (p *Processor) applyDispute(account *accounts.Account, rec Record) {
	entry, ok := p.lookup(rec)
	if !ok {
		return
	}

	err := account.Dispute(rec.TxID, entry.Amount)
	if err != nil {
		p.ignore(rec, err.Error())
	}
}

func (p *Processor) applyResolve(account *accounts.Account, rec Record) {
	entry, ok := p.lookup(rec)
	if !ok {
		return
	}

	if !account.Resolve(rec.TxID, entry.Amount) {
		p.ignore(rec, "transaction not under dispute")
	}
}

func (p *Processor) applyChargeback(account *accounts.Account, rec Record) error {
	entry, ok := p.history.Get(rec.TxID)
	if !ok {
		return ErrUnableToProcessTransaction
	}

	// A transaction of another client can never be in this account's
	// disputed set, so membership covers ownership too.
	if !account.Chargeback(rec.TxID, entry.Amount) {
		p.ignore(rec, "transaction not under dispute")
	}

	return nil
}

func (p *Processor) ignore(rec Record, reason string) {
	p.ignored++

	slog.Debug("transaction ignored",
		"run_id", p.runID,
		"type", rec.Kind,
		"client", rec.ClientID,
		"tx", rec.TxID,
		"reason", reason,
	)
}
