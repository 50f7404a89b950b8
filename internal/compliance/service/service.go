// Package service is the compliance workflow engine. It is the only writer of
// compliance records: every mutation runs under the customer's lock against a
// private copy, and the copy is stored only when the operation succeeds.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kyc-gateway/internal/compliance/lock"
	"kyc-gateway/internal/compliance/metrics"
	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/verification"
	id "kyc-gateway/pkg/domain"
	dErrors "kyc-gateway/pkg/domain-errors"
	audit "kyc-gateway/pkg/platform/audit"
	"kyc-gateway/pkg/platform/sentinel"
	"kyc-gateway/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

// Store persists compliance records. Get and ListByStatus return copies.
type Store interface {
	Get(ctx context.Context, customerID id.CustomerID) (*models.ComplianceRecord, error)
	Put(ctx context.Context, rec *models.ComplianceRecord) error
	ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.ComplianceRecord, error)
}

// Verifier is the full verification surface, usually a *verification.Guard.
type Verifier interface {
	verification.DocumentProcessor
	verification.IdentityVerifier
	verification.SanctionsScreener
	verification.RiskAssessor
}

// AuditPublisher records compliance events. A failed Emit fails the
// operation that caused it.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// Transactor runs fn as one unit of work, so a record write and its audit
// event commit or roll back together.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service runs the compliance workflow.
type Service struct {
	store    Store
	verifier Verifier
	locks    lock.Locker
	audit    AuditPublisher
	tx       Transactor
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

// WithTransactor is used when the record store and the audit outbox share a
// database.
func WithTransactor(t Transactor) Option {
	return func(s *Service) {
		s.tx = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocker replaces the in-process lock, e.g. with a Redis lock shared by
// several replicas.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locks = l
		}
	}
}

func New(store Store, verifier Verifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		verifier: verifier,
		locks:    lock.NewKeyed(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("kyc-gateway/compliance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// change describes a successful mutation for the audit trail.
type change struct {
	action   audit.Action
	decision models.Decision
	reason   string
}

// begin opens the span for an operation; end records outcome and latency.
func (s *Service) begin(ctx context.Context, operation string, customerID id.CustomerID) (context.Context, func(outcome string, err error)) {
	ctx, span := s.tracer.Start(ctx, "compliance."+operation)
	if !customerID.IsNil() {
		span.SetAttributes(attribute.String("customer_id", customerID.String()))
	}
	start := time.Now()
	return ctx, func(outcome string, err error) {
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()
		s.metrics.ObserveOperation(operation, outcome, time.Since(start))
	}
}

// mutate loads the record under the customer's lock and hands fn a private
// copy. A nil change leaves the stored record untouched.
func (s *Service) mutate(ctx context.Context, operation string, customerID id.CustomerID, fn func(ctx context.Context, rec *models.ComplianceRecord) (*change, error)) (err error) {
	ctx, end := s.begin(ctx, operation, customerID)
	outcome := "ok"
	defer func() { end(outcome, err) }()

	ctx, unlock, err := s.acquire(ctx, customerID)
	if err != nil {
		return err
	}
	defer unlock()

	rec, err := s.load(ctx, customerID)
	if err != nil {
		return err
	}
	prior := rec.Clone()
	ch, err := fn(ctx, rec)
	if err != nil {
		if lerr := lockLost(ctx); lerr != nil {
			return lerr
		}
		return err
	}
	if ch == nil {
		outcome = "unchanged"
		return nil
	}
	if err := lockLost(ctx); err != nil {
		return err
	}

	rec.Touch(requestcontext.Now(ctx))
	if err := s.commit(ctx, rec, prior, *ch); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "compliance record updated",
		"operation", operation,
		"customer_id", customerID,
		"status", rec.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// acquire takes the customer's lock. The returned context is the one the
// operation must run under.
func (s *Service) acquire(ctx context.Context, customerID id.CustomerID) (context.Context, func(), error) {
	start := time.Now()
	held, unlock, err := s.locks.Lock(ctx, customerID.String())
	s.metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for another operation on this customer")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeServiceUnavailable, "customer lock unavailable")
	}
	return held, unlock, nil
}

// lockLost refuses to save work done after the customer's lock lapsed.
func lockLost(ctx context.Context) error {
	if cause := context.Cause(ctx); errors.Is(cause, lock.ErrLost) {
		return dErrors.Wrap(cause, dErrors.CodeConflict, "customer lock was lost; the operation was not saved")
	}
	return nil
}

func (s *Service) load(ctx context.Context, customerID id.CustomerID) (*models.ComplianceRecord, error) {
	rec, err := s.store.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer compliance record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load compliance record")
	}
	return rec, nil
}

func (s *Service) save(ctx context.Context, rec *models.ComplianceRecord) error {
	if err := s.store.Put(ctx, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store compliance record")
	}
	return nil
}

// commit stores rec and records ch on the audit trail as one unit. Without a
// transactor a failed emit puts prior back; a new record (nil prior) is left
// behind, but its id is never returned to anyone.
func (s *Service) commit(ctx context.Context, rec, prior *models.ComplianceRecord, ch change) error {
	if s.tx != nil {
		return s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.save(ctx, rec); err != nil {
				return err
			}
			return s.emit(ctx, rec, ch)
		})
	}

	if err := s.save(ctx, rec); err != nil {
		return err
	}
	if err := s.emit(ctx, rec, ch); err != nil {
		if prior != nil {
			if rerr := s.store.Put(ctx, prior); rerr != nil {
				s.logger.ErrorContext(ctx, "failed to restore compliance record after audit failure",
					"customer_id", rec.CustomerID,
					"error", rerr,
				)
			}
		}
		return err
	}
	return nil
}

// emit records the change on the audit trail.
func (s *Service) emit(ctx context.Context, rec *models.ComplianceRecord, ch change) error {
	if s.audit == nil {
		return nil
	}
	event := audit.ComplianceEvent{
		Timestamp:  requestcontext.Now(ctx),
		CustomerID: rec.CustomerID,
		Action:     ch.action,
		Status:     string(rec.Status),
		Decision:   string(ch.decision),
		Reason:     ch.reason,
		RequestID:  requestcontext.RequestID(ctx),
		ActorID:    requestcontext.ActorID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		Device:     requestcontext.Device(ctx),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.metrics.IncAuditFailure()
		s.logger.ErrorContext(ctx, "failed to emit compliance audit event",
			"action", ch.action,
			"customer_id", rec.CustomerID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record compliance audit event")
	}
	return nil
}

// serviceFailure splits a verification error into a failure payload (the
// capability ran and rejected the input) or an unavailable error.
func (s *Service) serviceFailure(ctx context.Context, capability verification.Capability, err error) (*ServiceFailure, error) {
	if verification.IsServiceFailure(err) {
		s.logger.WarnContext(ctx, "verification returned a failure result",
			"capability", capability,
			"error", err,
		)
		return &ServiceFailure{Capability: string(capability), Message: verification.MessageOf(err)}, nil
	}
	s.logger.ErrorContext(ctx, "verification capability unavailable",
		"capability", capability,
		"category", verification.CategoryOf(err),
		"error", err,
	)
	return nil, dErrors.Wrap(err, dErrors.CodeServiceUnavailable, string(capability)+" is currently unavailable")
}

func (s *Service) enterReview(rec *models.ComplianceRecord, reason string) {
	rec.Status = models.StatusRequiresManualReview
	rec.ReviewReason = reason
	s.metrics.IncManualReview()
}

func requireOpen(rec *models.ComplianceRecord) error {
	if rec.Status.IsTerminal() {
		return dErrors.New(dErrors.CodePreconditionFailed, "compliance record is finalized as "+string(rec.Status))
	}
	return nil
}

func requireNotInReview(rec *models.ComplianceRecord) error {
	if rec.Status == models.StatusRequiresManualReview {
		return dErrors.New(dErrors.CodePreconditionFailed, "record requires manual review; an officer override is needed first")
	}
	return nil
}

func precondition(msg string) error {
	return dErrors.New(dErrors.CodePreconditionFailed, msg)
}
