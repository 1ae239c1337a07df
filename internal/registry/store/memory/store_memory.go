// Package memory provides the in-memory registry store. It is the default
// backend and the reference implementation for the store contract: reads see
// committed registrations only, and ApplyRegistration commits the record,
// controller-index append, reward credits, and counter as one unit.
package memory

import (
	"context"
	"sync"

	"namegate/internal/registry/models"
	"namegate/pkg/domain"
	"namegate/pkg/platform/sentinel"
)

type Store struct {
	mu      sync.RWMutex
	fee     uint64
	total   uint64
	domains map[string]models.DomainRecord
	// index preserves registration order per controller; entries are never
	// reordered or removed.
	index   map[domain.AccountID][]string
	rewards map[string]uint64
}

func New(initialFee uint64) *Store {
	return &Store{
		fee:     initialFee,
		domains: make(map[string]models.DomainRecord),
		index:   make(map[domain.AccountID][]string),
		rewards: make(map[string]uint64),
	}
}

func (s *Store) Domain(_ context.Context, name string) (models.DomainRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.domains[name]; ok {
		return rec, nil
	}
	return models.DomainRecord{}, sentinel.ErrNotFound
}

func (s *Store) Fee(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fee, nil
}

func (s *Store) SetFee(_ context.Context, fee uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fee = fee
	return nil
}

func (s *Store) TotalDomains(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

func (s *Store) RewardBalance(_ context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rewards[name], nil
}

func (s *Store) ControllerDomainCount(_ context.Context, controller domain.AccountID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.index[controller])), nil
}

// ControllerDomains pages over a controller's names in registration order.
// Out-of-range offsets and zero limits degrade to an empty page.
func (s *Store) ControllerDomains(_ context.Context, controller domain.AccountID, offset, limit uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.index[controller]
	count := uint64(len(names))
	if offset >= count || limit == 0 {
		return []string{}, nil
	}
	end := offset + limit
	if end > count || end < offset { // second clause guards uint64 overflow
		end = count
	}
	return append([]string{}, names[offset:end]...), nil
}

// ApplyRegistration commits one registration. The engine serializes callers,
// but the store still rejects duplicate names so the registered-forever
// invariant cannot be broken by a misbehaving caller.
func (s *Store) ApplyRegistration(_ context.Context, reg models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.domains[reg.Record.Name]; exists {
		return sentinel.ErrConflict
	}

	s.domains[reg.Record.Name] = reg.Record
	s.index[reg.Record.Controller] = append(s.index[reg.Record.Controller], reg.Record.Name)
	for _, credit := range reg.Credits {
		s.rewards[credit.Name] += credit.Amount
	}
	s.total++
	return nil
}
