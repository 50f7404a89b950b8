// Package worker relays audit events from the Postgres outbox to the stream.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "kyc-gateway/pkg/platform/audit"
	"kyc-gateway/pkg/platform/audit/store/postgres"
)

// Outbox is the pending side of the transactional outbox.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Relay drains the outbox into a sink on a fixed interval. Delivery is
// at-least-once: a crash between publish and mark republishes the batch.
type Relay struct {
	outbox    Outbox
	sink      audit.Store
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(outbox Outbox, sink audit.Store, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		sink:      sink,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "audit outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch in order and marks what was delivered. It
// stops at the first publish failure so later events never overtake it.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	delivered := make([]uuid.UUID, 0, len(entries))
	var publishErr error
	for _, entry := range entries {
		if err := r.sink.Append(ctx, entry.Event); err != nil {
			publishErr = err
			break
		}
		delivered = append(delivered, entry.ID)
	}
	if err := r.outbox.MarkPublished(ctx, delivered); err != nil {
		return 0, err
	}
	return len(delivered), publishErr
}
