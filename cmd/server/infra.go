package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"kyc-gateway/internal/compliance/service"
	"kyc-gateway/internal/compliance/store"
	"kyc-gateway/internal/platform/config"
	"kyc-gateway/internal/platform/kafka"
	"kyc-gateway/internal/platform/postgres"
	"kyc-gateway/internal/platform/redis"
	auditpub "kyc-gateway/pkg/platform/audit/publishers/compliance"
	auditmem "kyc-gateway/pkg/platform/audit/store/memory"
	auditpg "kyc-gateway/pkg/platform/audit/store/postgres"
	auditstream "kyc-gateway/pkg/platform/audit/store/stream"
	"kyc-gateway/pkg/platform/audit/worker"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
)

// infra holds the external connections opened at startup.
type infra struct {
	db       *sql.DB
	redis    *redis.Client
	producer *kafka.Producer
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}
	if cfg.Store == config.StorePostgres {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("KYC_STORE=postgres requires DATABASE_URL")
		}
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		in.db = db
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.redis = client
	if cfg.Store == config.StoreRedis && in.redis == nil {
		in.Close()
		return nil, fmt.Errorf("KYC_STORE=redis requires REDIS_URL")
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			in.Close()
			return nil, err
		}
		if err := producer.EnsureTopic(ctx, auditTopicPartitions, auditTopicReplication); err != nil {
			log.Warn("audit topic bootstrap failed", "topic", producer.Topic(), "error", err)
		}
		in.producer = producer
	}
	return in, nil
}

func (in *infra) Close() {
	if in.producer != nil {
		in.producer.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

func newRecordStore(ctx context.Context, cfg config.Server, in *infra) (service.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		s := store.NewPostgres(in.db)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreRedis:
		return store.NewRedis(in.redis.Client), nil
	case config.StoreMemory, "":
		return store.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown KYC_STORE %q", cfg.Store)
	}
}

type auditing struct {
	publisher *auditpub.Publisher
	relay     *worker.Relay
}

// newAuditing picks the audit sink. With Postgres the events go to the
// outbox and a relay forwards them to Kafka; otherwise they are kept in
// memory and, when Kafka is configured, also produced directly.
func newAuditing(ctx context.Context, cfg config.Server, in *infra, log *slog.Logger) (*auditing, error) {
	m := auditpub.NewMetrics()
	if in.db != nil {
		outbox := auditpg.New(in.db)
		if err := outbox.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a := &auditing{publisher: auditpub.New(outbox, auditpub.WithLogger(log), auditpub.WithMetrics(m))}
		if in.producer != nil {
			a.relay = worker.NewRelay(outbox, auditstream.New(in.producer), worker.WithLogger(log))
		}
		return a, nil
	}

	opts := []auditpub.Option{auditpub.WithLogger(log), auditpub.WithMetrics(m)}
	if in.producer != nil {
		opts = append(opts, auditpub.WithStore(auditstream.New(in.producer)))
	}
	return &auditing{publisher: auditpub.New(auditmem.NewInMemoryStore(), opts...)}, nil
}
