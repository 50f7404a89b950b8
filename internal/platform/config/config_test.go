package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"KYC_ADDR", "KYC_STORE", "KAFKA_BROKERS", "VERIFICATION_TIMEOUT", "ADMIN_JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.Verification.Timeout)
	assert.Equal(t, 5, cfg.Verification.CircuitFailureThreshold)
	assert.Equal(t, "kyc.audit.compliance", cfg.Kafka.AuditTopic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.NotEmpty(t, cfg.AdminJWTSecret)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("KYC_ADDR", ":9090")
	t.Setenv("KYC_STORE", "Postgres")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("VERIFICATION_TIMEOUT", "5s")
	t.Setenv("CIRCUIT_FAILURE_THRESHOLD", "3")
	t.Setenv("REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Verification.Timeout)
	assert.Equal(t, 3, cfg.Verification.CircuitFailureThreshold)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
