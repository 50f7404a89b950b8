// Package stream appends audit events to a message stream, keyed by customer
// so a customer's trail stays ordered within one partition.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	audit "kyc-gateway/pkg/platform/audit"
)

// Producer writes one keyed record and returns once it is acknowledged.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

type Store struct {
	producer Producer
}

func New(producer Producer) *Store {
	return &Store{producer: producer}
}

func (s *Store) Append(ctx context.Context, event audit.ComplianceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.producer.Produce(ctx, []byte(event.CustomerID.String()), payload); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
