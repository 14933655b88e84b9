package memory

import (
	"slices"

	accountsrepo "github.com/fastprodman/payments-engine/internal/repos/accounts"
	"github.com/fastprodman/payments-engine/internal/services/accounts"
)

var _ accountsrepo.Registry = (*registryRepo)(nil)

type registryRepo struct {
	accounts map[uint16]*accounts.Account
}

func New() *registryRepo {
	return &registryRepo{accounts: make(map[uint16]*accounts.Account)}
}

func (r *registryRepo) GetOrCreate(id uint16) *accounts.Account {
	account, ok := r.accounts[id]
	if !ok {
		account = accounts.New(id)
		r.accounts[id] = account
	}

	return account
}

func (r *registryRepo) List() []*accounts.Account {
	ids := make([]uint16, 0, len(r.accounts))
	for id := range r.accounts {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	out := make([]*accounts.Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.accounts[id])
	}

	return out
}

func (r *registryRepo) Len() int {
	return len(r.accounts)
}
