package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/pkg/platform/sentinel"
)

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgres(db)
	ctx := context.Background()
	rec := newRecord(models.StatusIdentityVerified, time.Now().UTC().Truncate(time.Millisecond))
	rec.Verification.IdentityScore = models.Ptr(96)
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM compliance_records WHERE customer_id = $1")).
		WithArgs(rec.CustomerID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(payload))

	got, err := s.Get(ctx, rec.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, rec.CustomerID, got.CustomerID)
	assert.Equal(t, models.StatusIdentityVerified, got.Status)
	assert.Equal(t, 96, *got.Verification.IdentityScore)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM compliance_records")).
		WithArgs(rec.CustomerID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"record"}))

	_, err = s.Get(ctx, rec.CustomerID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM compliance_records")).
		WithArgs(rec.CustomerID.String()).
		WillReturnError(errors.New("connection reset"))

	_, err = s.Get(ctx, rec.CustomerID)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgres(db)
	ctx := context.Background()
	rec := newRecord(models.StatusRequiresManualReview, time.Now())
	rec.Decision = &models.ApprovalDecision{
		Decision:   models.DecisionPendingReview,
		Conditions: []string{"Enhanced due diligence required"},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_records")).
		WithArgs(
			rec.CustomerID.String(),
			"individual",
			"requires_manual_review",
			"pending_review",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			rec.CreatedAt,
			rec.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Put(ctx, rec))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_records")).
		WillReturnError(errors.New("disk full"))

	err = s.Put(ctx, rec)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgres(db)
	ctx := context.Background()
	first := newRecord(models.StatusRequiresManualReview, time.Now().Add(-time.Minute))
	second := newRecord(models.StatusRequiresManualReview, time.Now())
	p1, _ := json.Marshal(first)
	p2, _ := json.Marshal(second)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM compliance_records WHERE status = $1 ORDER BY updated_at ASC, created_at ASC LIMIT $2")).
		WithArgs("requires_manual_review", 10).
		WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(p1).AddRow(p2))

	got, err := s.ListByStatus(ctx, models.StatusRequiresManualReview, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.CustomerID, got[0].CustomerID)
	assert.Equal(t, second.CustomerID, got[1].CustomerID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS compliance_records")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgres(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
