package memory

import (
	"context"
	"sync"

	"bhulekh/internal/audit"
)

// InMemoryStore keeps audit streams per transfer. Used by the unit suites
// and dev mode.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) (audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(event.TransferID)
	event.Seq = int64(len(s.events[key]) + 1)
	s.events[key] = append(s.events[key], event)
	return event, nil
}

func (s *InMemoryStore) ListByTransfer(_ context.Context, transferID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[transferID]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}
