package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by KYC_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	RegulatedMode bool
	Store         string
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	Verification  VerificationConfig
	Log           LogConfig
	// AdminJWTSecret signs compliance officer tokens for the admin routes.
	AdminJWTSecret string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LockTTL bounds how long a per-customer lock survives a crashed holder.
	// A live holder renews it every third of the TTL.
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Enabled reports whether an audit stream is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type VerificationConfig struct {
	Timeout                 time.Duration
	StubFile                string
	CircuitFailureThreshold int
}

type LogConfig struct {
	Level  string
	Format string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		// Use a default for development - should be overridden in production
		secret = "dev-admin-secret-change-in-production"
	}

	return Server{
		Addr:          envOr("KYC_ADDR", ":8080"),
		RegulatedMode: os.Getenv("REGULATED_MODE") == "true",
		Store:         strings.ToLower(envOr("KYC_STORE", StoreMemory)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      envDuration("REDIS_LOCK_TTL", 2*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "kyc.audit.compliance"),
		},
		Verification: VerificationConfig{
			Timeout:                 envDuration("VERIFICATION_TIMEOUT", 30*time.Second),
			StubFile:                os.Getenv("VERIFICATION_STUB_FILE"),
			CircuitFailureThreshold: envInt("CIRCUIT_FAILURE_THRESHOLD", 5),
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
		AdminJWTSecret: secret,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
