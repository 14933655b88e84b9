package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountSummarized is emitted once per account when a run completes.
type AccountSummarized struct {
	RunID      string          `json:"run_id"`
	ClientID   uint16          `json:"client"`
	Available  decimal.Decimal `json:"available"`
	Held       decimal.Decimal `json:"held"`
	Total      decimal.Decimal `json:"total"`
	Locked     bool            `json:"locked"`
	OccurredAt time.Time       `json:"occurred_at"`
}
