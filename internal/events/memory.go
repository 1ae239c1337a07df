package events

import (
	"context"
	"sync"
)

// InMemoryStore keeps the event log in an append-only slice and stamps each
// event with its emission sequence.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	seq    uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	event.Sequence = s.seq
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []Event{}
	for _, e := range s.events {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
