package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kyc-gateway/internal/compliance/models"
	id "kyc-gateway/pkg/domain"
	"kyc-gateway/pkg/platform/sentinel"
	"kyc-gateway/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// PostgresStore persists records as JSONB documents. Status and decision are
// also kept in columns so review queues can be served from an index.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the compliance_records table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure compliance schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, customerID id.CustomerID) (*models.ComplianceRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM compliance_records WHERE customer_id = $1`,
		customerID.String(),
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("compliance record %s: %w", customerID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find compliance record: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return decodeRecord(payload)
}

// Put upserts the record, joining the transaction carried by ctx if any.
func (s *PostgresStore) Put(ctx context.Context, rec *models.ComplianceRecord) error {
	if rec == nil {
		return fmt.Errorf("compliance record is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode compliance record: %w", err)
	}
	var decision sql.NullString
	conditions := []string{}
	if rec.Decision != nil {
		decision = sql.NullString{String: string(rec.Decision.Decision), Valid: true}
		if rec.Decision.Conditions != nil {
			conditions = rec.Decision.Conditions
		}
	}
	query := `
		INSERT INTO compliance_records
			(customer_id, customer_type, status, decision, decision_conditions, record, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (customer_id) DO UPDATE SET
			status = EXCLUDED.status,
			decision = EXCLUDED.decision,
			decision_conditions = EXCLUDED.decision_conditions,
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		rec.CustomerID.String(),
		string(rec.CustomerType),
		string(rec.Status),
		decision,
		pq.Array(conditions),
		payload,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save compliance record: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.ComplianceRecord, error) {
	query := `SELECT record FROM compliance_records WHERE status = $1 ORDER BY updated_at ASC, created_at ASC`
	args := []any{string(status)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list compliance records: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	defer rows.Close()

	var out []*models.ComplianceRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan compliance record: %w", err)
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance records: %w", err)
	}
	return out, nil
}

func decodeRecord(payload []byte) (*models.ComplianceRecord, error) {
	var rec models.ComplianceRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode compliance record: %w", err)
	}
	return &rec, nil
}
