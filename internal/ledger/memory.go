package ledger

import (
	"context"
	"maps"
	"sync"

	"namegate/pkg/domain"
	"namegate/pkg/platform/sentinel"
)

// InMemory keeps balances in a map and commits transactions by swapping a
// staged copy in. It is the default ledger and the reference for the
// all-or-nothing transfer contract.
type InMemory struct {
	mu       sync.RWMutex
	balances map[domain.AccountID]uint64
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[domain.AccountID]uint64)}
}

func (l *InMemory) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	staged := maps.Clone(l.balances)
	if err := fn(&memTx{balances: staged}); err != nil {
		return err
	}
	l.balances = staged
	return nil
}

func (l *InMemory) Deposit(_ context.Context, to domain.AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] += amount
	return nil
}

func (l *InMemory) Balance(_ context.Context, account domain.AccountID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account], nil
}

type memTx struct {
	balances map[domain.AccountID]uint64
}

func (t *memTx) Transfer(_ context.Context, from, to domain.AccountID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if t.balances[from] < amount {
		return sentinel.ErrInsufficientFunds
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}
