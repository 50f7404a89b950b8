// Package compliance publishes the compliance audit trail.
//
// Emit is synchronous: it returns only after every configured store accepted
// the event, and reports the first failure to the caller.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "kyc-gateway/pkg/platform/audit"
)

// Publisher fans a compliance event out to one or more stores.
type Publisher struct {
	stores  []audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithStore adds another destination, e.g. a stream next to a database.
func WithStore(store audit.Store) Option {
	return func(p *Publisher) {
		if store != nil {
			p.stores = append(p.stores, store)
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{now: time.Now}
	if store != nil {
		p.stores = append(p.stores, store)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and writes the event to every store.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	start := p.now()

	if event.CustomerID.IsNil() {
		return fmt.Errorf("compliance event requires CustomerID")
	}
	if event.Action == "" {
		return fmt.Errorf("compliance event requires Action")
	}
	if event.Action.IsOfficerAction() && event.ActorID == "" {
		return fmt.Errorf("compliance event %s requires ActorID", event.Action)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = start
	}

	var errs []error
	for _, store := range p.stores {
		if err := store.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "compliance audit failed",
				"action", event.Action,
				"customer_id", event.CustomerID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	p.metrics.ObservePersistDuration(p.now().Sub(start))
	p.metrics.IncEventsEmitted(string(event.Action))
	return nil
}
