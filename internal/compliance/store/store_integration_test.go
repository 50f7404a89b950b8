//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/store"
	id "kyc-gateway/pkg/domain"
	"kyc-gateway/pkg/platform/sentinel"
	"kyc-gateway/pkg/testutil/containers"
)

// recordStore is the surface shared by every backend.
type recordStore interface {
	Get(ctx context.Context, customerID id.CustomerID) (*models.ComplianceRecord, error)
	Put(ctx context.Context, rec *models.ComplianceRecord) error
	ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.ComplianceRecord, error)
}

type storeContract struct {
	suite.Suite
	store recordStore
}

func newRecord(status models.Status, at time.Time) *models.ComplianceRecord {
	rec := models.NewComplianceRecord(id.NewCustomerID(), models.CustomerTypeBusiness, at)
	rec.Status = status
	return rec
}

func (s *storeContract) TestRoundTrip() {
	ctx := context.Background()
	rec := newRecord(models.StatusRiskAssessed, time.Now().UTC().Truncate(time.Millisecond))
	rec.BusinessInfo = &models.BusinessInfo{CompanyName: "Analytical Engines Ltd", BusinessType: models.BusinessLLC}
	rec.Verification.IdentityScore = models.Ptr(91)
	rec.RiskAssessment = &models.RiskAssessment{OverallRiskScore: 22, RiskLevel: models.RiskLow, RiskReasons: []string{}}

	s.Require().NoError(s.store.Put(ctx, rec))

	got, err := s.store.Get(ctx, rec.CustomerID)
	s.Require().NoError(err)
	s.Equal(rec.CustomerID, got.CustomerID)
	s.Equal(models.StatusRiskAssessed, got.Status)
	s.Equal("Analytical Engines Ltd", got.BusinessInfo.CompanyName)
	s.Equal(91, *got.Verification.IdentityScore)
	s.Equal(22, got.RiskAssessment.OverallRiskScore)
}

func (s *storeContract) TestNotFound() {
	_, err := s.store.Get(context.Background(), id.NewCustomerID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContract) TestStatusIndexFollowsUpdates() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	rec := newRecord(models.StatusSanctionsScreened, base)
	s.Require().NoError(s.store.Put(ctx, rec))

	rec.Status = models.StatusRequiresManualReview
	rec.UpdatedAt = base.Add(time.Second)
	s.Require().NoError(s.store.Put(ctx, rec))

	queue, err := s.store.ListByStatus(ctx, models.StatusRequiresManualReview, 10)
	s.Require().NoError(err)
	s.Require().Len(queue, 1)
	s.Equal(rec.CustomerID, queue[0].CustomerID)

	screened, err := s.store.ListByStatus(ctx, models.StatusSanctionsScreened, 10)
	s.Require().NoError(err)
	s.Empty(screened)
}

type PostgresStoreSuite struct {
	storeContract
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	pg := store.NewPostgres(s.postgres.DB)
	s.Require().NoError(pg.EnsureSchema(context.Background()))
	s.store = pg
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "compliance_records"))
}

type RedisStoreSuite struct {
	storeContract
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}
