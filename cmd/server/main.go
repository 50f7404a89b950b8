package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"kyc-gateway/internal/compliance/handler"
	"kyc-gateway/internal/compliance/lock"
	"kyc-gateway/internal/compliance/metrics"
	"kyc-gateway/internal/compliance/service"
	"kyc-gateway/internal/compliance/verification"
	"kyc-gateway/internal/compliance/verification/static"
	jwttoken "kyc-gateway/internal/jwt_token"
	"kyc-gateway/internal/platform/config"
	"kyc-gateway/internal/platform/httpserver"
	"kyc-gateway/internal/platform/logger"
	"kyc-gateway/pkg/platform/circuit"
	"kyc-gateway/pkg/platform/middleware/admin"
	"kyc-gateway/pkg/platform/middleware/metadata"
	"kyc-gateway/pkg/platform/middleware/requesttime"
	"kyc-gateway/pkg/platform/tx"
)

const (
	shutdownTimeout = 15 * time.Second
	officerIssuer   = "kyc-gateway"
	officerAudience = "kyc-gateway-admin"
)

// main wires configuration, stores, verification providers and the audit
// sink into the workflow engine, then serves it until SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("kyc-gateway stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	in, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.Close()

	records, err := newRecordStore(ctx, cfg, in)
	if err != nil {
		return err
	}

	verifier, err := newVerifier(cfg, log, m)
	if err != nil {
		return err
	}

	aud, err := newAuditing(ctx, cfg, in, log)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(aud.publisher),
	}
	if in.redis != nil {
		opts = append(opts, service.WithLocker(lock.NewRedis(in.redis.Client, cfg.Redis.LockTTL)))
	}
	if cfg.Store == config.StorePostgres && in.db != nil {
		// record and outbox share the database; commit them together
		opts = append(opts, service.WithTransactor(tx.NewPostgres(in.db)))
	}
	svc := service.New(records, verifier, opts...)

	router := newRouter(cfg, log, handler.New(svc, log, handler.WithRegulatedMode(cfg.RegulatedMode)))
	srv := httpserver.New(cfg.Addr, router, cfg.Verification.Timeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting kyc-gateway",
			"addr", cfg.Addr,
			"store", cfg.Store,
			"regulated_mode", cfg.RegulatedMode,
			"audit_stream", cfg.Kafka.Enabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if aud.relay != nil {
		g.Go(func() error {
			if err := aud.relay.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down kyc-gateway")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newVerifier(cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*verification.Guard, error) {
	provider := static.Default()
	if cfg.Verification.StubFile != "" {
		p, err := static.Load(cfg.Verification.StubFile)
		if err != nil {
			return nil, err
		}
		provider = p
	}
	return verification.NewGuard(provider.Services(),
		verification.WithTimeout(cfg.Verification.Timeout),
		verification.WithBreakerOptions(circuit.WithFailureThreshold(cfg.Verification.CircuitFailureThreshold)),
		verification.WithLogger(log),
		verification.WithCallObserver(func(c verification.Capability, outcome string, elapsed time.Duration) {
			m.ObserveVerificationCall(string(c), outcome, elapsed)
		}),
	), nil
}

func newRouter(cfg config.Server, log *slog.Logger, h *handler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	h.Register(r)
	tokens := jwttoken.NewJWTService(cfg.AdminJWTSecret, officerIssuer, officerAudience)
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireOfficer(tokens, log))
		h.RegisterAdmin(r)
	})
	return r
}
