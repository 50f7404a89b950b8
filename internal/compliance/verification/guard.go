package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kyc-gateway/pkg/platform/circuit"
)

// DefaultTimeout bounds each verification call when none is configured.
const DefaultTimeout = 30 * time.Second

// CallObserver receives the outcome of each guarded call. Outcome is "ok"
// or the error category.
type CallObserver func(capability Capability, outcome string, elapsed time.Duration)

// Guard wraps a set of verification services with a per-call deadline and a
// circuit breaker per capability. It implements all four capabilities.
type Guard struct {
	services Services
	timeout  time.Duration
	breakers map[Capability]*circuit.Breaker
	observe  CallObserver
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

type GuardOption func(*Guard)

func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBreakerOptions configures every capability's breaker.
func WithBreakerOptions(opts ...circuit.Option) GuardOption {
	return func(g *Guard) {
		for name := range g.breakers {
			g.breakers[name] = circuit.New(string(name), opts...)
		}
	}
}

func WithCallObserver(fn CallObserver) GuardOption {
	return func(g *Guard) {
		g.observe = fn
	}
}

func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGuard(services Services, opts ...GuardOption) *Guard {
	g := &Guard{
		services: services,
		timeout:  DefaultTimeout,
		breakers: map[Capability]*circuit.Breaker{
			CapabilityDocument:  circuit.New(string(CapabilityDocument)),
			CapabilityIdentity:  circuit.New(string(CapabilityIdentity)),
			CapabilitySanctions: circuit.New(string(CapabilitySanctions)),
			CapabilityRisk:      circuit.New(string(CapabilityRisk)),
		},
		logger: slog.Default(),
		tracer: otel.Tracer("kyc-gateway/verification"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Breaker exposes a capability's breaker for health reporting.
func (g *Guard) Breaker(c Capability) *circuit.Breaker {
	return g.breakers[c]
}

func (g *Guard) ProcessDocument(ctx context.Context, req DocumentRequest) (*DocumentResult, error) {
	if g.services.Documents == nil {
		return nil, NewError(ErrorUnavailable, CapabilityDocument, "no document processor configured", nil)
	}
	return call(ctx, g, CapabilityDocument, func(ctx context.Context) (*DocumentResult, error) {
		return g.services.Documents.ProcessDocument(ctx, req)
	})
}

func (g *Guard) VerifyIdentity(ctx context.Context, req IdentityRequest) (*IdentityResult, error) {
	if g.services.Identity == nil {
		return nil, NewError(ErrorUnavailable, CapabilityIdentity, "no identity verifier configured", nil)
	}
	return call(ctx, g, CapabilityIdentity, func(ctx context.Context) (*IdentityResult, error) {
		return g.services.Identity.VerifyIdentity(ctx, req)
	})
}

func (g *Guard) ScreenSanctions(ctx context.Context, req SanctionsRequest) (*SanctionsResult, error) {
	if g.services.Sanctions == nil {
		return nil, NewError(ErrorUnavailable, CapabilitySanctions, "no sanctions screener configured", nil)
	}
	return call(ctx, g, CapabilitySanctions, func(ctx context.Context) (*SanctionsResult, error) {
		return g.services.Sanctions.ScreenSanctions(ctx, req)
	})
}

func (g *Guard) AssessRisk(ctx context.Context, req RiskRequest) (*RiskResult, error) {
	if g.services.Risk == nil {
		return nil, NewError(ErrorUnavailable, CapabilityRisk, "no risk assessor configured", nil)
	}
	return call(ctx, g, CapabilityRisk, func(ctx context.Context) (*RiskResult, error) {
		return g.services.Risk.AssessRisk(ctx, req)
	})
}

type validatable interface {
	Validate() error
}

type outcome[T any] struct {
	res *T
	err error
}

// call runs fn under the capability's breaker and deadline. A result that
// arrives after the deadline is discarded so callers never apply it.
func call[T any](ctx context.Context, g *Guard, capability Capability, fn func(context.Context) (*T, error)) (*T, error) {
	breaker := g.breakers[capability]
	if !breaker.Allow() {
		g.record(capability, string(ErrorUnavailable), 0)
		return nil, NewError(ErrorUnavailable, capability, "capability temporarily disabled", ErrCircuitOpen)
	}

	ctx, span := g.tracer.Start(ctx, "verification."+string(capability),
		trace.WithAttributes(attribute.String("capability", string(capability))))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := g.now()
	done := make(chan outcome[T], 1)
	go func() {
		res, err := fn(callCtx)
		done <- outcome[T]{res: res, err: err}
	}()

	var res *T
	var err error
	select {
	case o := <-done:
		res, err = o.res, o.err
		if err == nil && callCtx.Err() != nil {
			err = callCtx.Err()
		}
	case <-callCtx.Done():
		err = callCtx.Err()
	}
	if err == nil {
		if v, ok := any(res).(validatable); ok {
			err = v.Validate()
		}
	}
	err = normalize(capability, err)
	elapsed := g.now().Sub(start)

	if err == nil {
		breaker.RecordSuccess()
		g.record(capability, "ok", elapsed)
		return res, nil
	}

	category := CategoryOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(category))
	g.record(capability, string(category), elapsed)

	if category == ErrorBadData {
		breaker.RecordSuccess()
		return nil, err
	}
	if _, change := breaker.RecordFailure(); change.Opened {
		g.logger.WarnContext(ctx, "verification circuit opened",
			"capability", capability,
			"error", err,
		)
	}
	return nil, err
}

func normalize(capability Capability, err error) error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(ErrorTimeout, capability, "call did not complete in time", err)
	}
	return NewError(ErrorInternal, capability, "call failed", err)
}

func (g *Guard) record(capability Capability, outcome string, elapsed time.Duration) {
	if g.observe != nil {
		g.observe(capability, outcome, elapsed)
	}
}
