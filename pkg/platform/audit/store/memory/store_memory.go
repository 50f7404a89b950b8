package memory

import (
	"context"
	"slices"
	"sync"

	id "kyc-gateway/pkg/domain"
	audit "kyc-gateway/pkg/platform/audit"
)

// InMemoryStore keeps audit events per customer in arrival order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.CustomerID][]audit.ComplianceEvent
	order  []audit.ComplianceEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.CustomerID][]audit.ComplianceEvent)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.ComplianceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.CustomerID] = append(s.events[event.CustomerID], event)
	s.order = append(s.order, event)
	return nil
}

// ListByCustomer returns a customer's trail, oldest first.
func (s *InMemoryStore) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]audit.ComplianceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events[customerID]), nil
}

// ListRecent returns up to limit of the latest events, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.ComplianceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(0, len(s.order)-limit)
	out := slices.Clone(s.order[start:])
	slices.Reverse(out)
	return out, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.CustomerID][]audit.ComplianceEvent)
	s.order = nil
}
