package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kyc-gateway/internal/compliance/models"
	id "kyc-gateway/pkg/domain"
	"kyc-gateway/pkg/platform/sentinel"
)

const (
	recordKeyPrefix = "kyc:record:"
	statusKeyPrefix = "kyc:status:"
)

var allStatuses = []models.Status{
	models.StatusInitiated,
	models.StatusDocumentsCollected,
	models.StatusIdentityVerified,
	models.StatusSanctionsScreened,
	models.StatusRiskAssessed,
	models.StatusApproved,
	models.StatusRejected,
	models.StatusRequiresManualReview,
}

// RedisStore keeps each record as a JSON string plus one sorted set per
// status, scored by update time, for queue listings.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(customerID id.CustomerID) string {
	return recordKeyPrefix + customerID.String()
}

func statusKey(status models.Status) string {
	return statusKeyPrefix + string(status)
}

func (s *RedisStore) Get(ctx context.Context, customerID id.CustomerID) (*models.ComplianceRecord, error) {
	payload, err := s.client.Get(ctx, recordKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("compliance record %s: %w", customerID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find compliance record: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return decodeRecord(payload)
}

// Put writes the record and moves it to its status index in one transaction.
func (s *RedisStore) Put(ctx context.Context, rec *models.ComplianceRecord) error {
	if rec == nil {
		return fmt.Errorf("compliance record is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode compliance record: %w", err)
	}
	member := rec.CustomerID.String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(rec.CustomerID), payload, 0)
		for _, status := range allStatuses {
			if status != rec.Status {
				pipe.ZRem(ctx, statusKey(status), member)
			}
		}
		pipe.ZAdd(ctx, statusKey(rec.Status), redis.Z{
			Score:  float64(rec.UpdatedAt.UnixMilli()),
			Member: member,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save compliance record: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (s *RedisStore) ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.ComplianceRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	members, err := s.client.ZRange(ctx, statusKey(status), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list compliance records: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	if len(members) == 0 {
		return nil, nil
	}
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = recordKeyPrefix + m
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load compliance records: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	out := make([]*models.ComplianceRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
