package accounts

import (
	"github.com/fastprodman/payments-engine/internal/services/accounts"
)

// Registry owns every account touched during a run.
type Registry interface {
	// GetOrCreate returns the account for id, creating an empty one on
	// first reference.
	GetOrCreate(id uint16) *accounts.Account
	// List returns all accounts ordered by client id.
	List() []*accounts.Account
	Len() int
}
