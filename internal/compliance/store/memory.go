// Package store persists compliance records keyed by customer id.
//
// Every implementation hands out copies: mutating a returned record never
// changes stored state until it is written back with Put.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"kyc-gateway/internal/compliance/models"
	id "kyc-gateway/pkg/domain"
	"kyc-gateway/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.CustomerID]*models.ComplianceRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.CustomerID]*models.ComplianceRecord)}
}

func (s *InMemoryStore) Get(_ context.Context, customerID id.CustomerID) (*models.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[customerID]
	if !ok {
		return nil, fmt.Errorf("compliance record %s: %w", customerID, sentinel.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) Put(_ context.Context, rec *models.ComplianceRecord) error {
	if rec == nil {
		return fmt.Errorf("compliance record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.CustomerID] = rec.Clone()
	return nil
}

// ListByStatus returns records in status, least recently updated first.
// A limit of zero or less returns all of them.
func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status, limit int) ([]*models.ComplianceRecord, error) {
	s.mu.RLock()
	var out []*models.ComplianceRecord
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, rec.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.ComplianceRecord) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
