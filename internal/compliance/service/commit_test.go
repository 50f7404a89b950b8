package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-gateway/internal/compliance/lock"
	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/service"
	"kyc-gateway/internal/compliance/store"
	"kyc-gateway/internal/compliance/verification"
	id "kyc-gateway/pkg/domain"
	dErrors "kyc-gateway/pkg/domain-errors"
	auditpub "kyc-gateway/pkg/platform/audit/publishers/compliance"
	outbox "kyc-gateway/pkg/platform/audit/store/postgres"
	"kyc-gateway/pkg/platform/tx"
	"kyc-gateway/pkg/requestcontext"
)

func newPostgresService(t *testing.T) (*service.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.New(store.NewPostgres(db), verification.NewGuard(verification.Services{}),
		service.WithAuditPublisher(auditpub.New(outbox.New(db))),
		service.WithTransactor(tx.NewPostgres(db)),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return svc, mock
}

func expectRecordLoad(t *testing.T, mock sqlmock.Sqlmock, rec *models.ComplianceRecord) {
	t.Helper()
	payload, err := json.Marshal(rec)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM compliance_records WHERE customer_id = $1")).
		WithArgs(rec.CustomerID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(payload))
}

func TestTransactionRollsBackRecordWhenOutboxFails(t *testing.T) {
	svc, mock := newPostgresService(t)
	rec := models.NewComplianceRecord(id.NewCustomerID(), models.CustomerTypeIndividual, fixedNow)

	expectRecordLoad(t, mock, rec)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_outbox")).
		WillReturnError(errors.New("outbox relation is read-only"))
	mock.ExpectRollback()

	ctx := requestcontext.WithActorID(context.Background(), "officer-7")
	_, err := svc.Annotate(ctx, rec.CustomerID, "called the customer")

	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionCommitsRecordWithOutboxEntry(t *testing.T) {
	svc, mock := newPostgresService(t)
	rec := models.NewComplianceRecord(id.NewCustomerID(), models.CustomerTypeIndividual, fixedNow)

	expectRecordLoad(t, mock, rec)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_outbox")).
		WithArgs(sqlmock.AnyArg(), rec.CustomerID.String(), "record_annotated", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := requestcontext.WithActorID(context.Background(), "officer-7")
	note, err := svc.Annotate(ctx, rec.CustomerID, "called the customer")

	require.NoError(t, err)
	assert.Equal(t, "called the customer", note.Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// losingLocker hands out a held context that it cancels with lock.ErrLost
// when lose is called, as the Redis lock does when its key expires.
type losingLocker struct {
	lose context.CancelCauseFunc
}

func (l *losingLocker) Lock(ctx context.Context, _ string) (context.Context, func(), error) {
	held, cancel := context.WithCancelCause(ctx)
	l.lose = cancel
	return held, func() { cancel(nil) }, nil
}

// expiringStore loses the lock right after the record is read.
type expiringStore struct {
	*store.InMemoryStore
	locks *losingLocker
	puts  int
}

func (s *expiringStore) Get(ctx context.Context, customerID id.CustomerID) (*models.ComplianceRecord, error) {
	rec, err := s.InMemoryStore.Get(ctx, customerID)
	s.locks.lose(lock.ErrLost)
	return rec, err
}

func (s *expiringStore) Put(ctx context.Context, rec *models.ComplianceRecord) error {
	s.puts++
	return s.InMemoryStore.Put(ctx, rec)
}

func TestLostLockAbortsSave(t *testing.T) {
	locks := &losingLocker{}
	mem := store.NewInMemoryStore()
	ctx := context.Background()
	customerID := id.NewCustomerID()
	require.NoError(t, mem.Put(ctx, models.NewComplianceRecord(customerID, models.CustomerTypeIndividual, fixedNow)))

	st := &expiringStore{InMemoryStore: mem, locks: locks}
	svc := service.New(st, verification.NewGuard(verification.Services{}),
		service.WithLocker(locks),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	_, err := svc.Annotate(requestcontext.WithActorID(ctx, "officer-7"), customerID, "called the customer")

	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	assert.ErrorIs(t, err, lock.ErrLost)
	assert.Zero(t, st.puts)

	rec, err := mem.Get(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, rec.Annotations)
}
