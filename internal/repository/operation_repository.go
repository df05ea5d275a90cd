package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pdf-toolkit/internal/domain"

	"github.com/google/uuid"
)

// PostgresOperationLedger is the append-only audit trail of attempted
// operations, backed by Postgres.
type PostgresOperationLedger struct {
	db     *sql.DB
	logger domain.Logger
	now    func() time.Time
}

// NewPostgresOperationLedger creates a new operation ledger
func NewPostgresOperationLedger(db *sql.DB, logger domain.Logger) *PostgresOperationLedger {
	return &PostgresOperationLedger{db: db, logger: logger, now: time.Now}
}

// Append inserts a new immutable operation record
func (r *PostgresOperationLedger) Append(ctx context.Context, accountID string, opType domain.OperationType, fileCount int, succeeded bool) (*domain.OperationRecord, error) {
	record := &domain.OperationRecord{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Type:      opType,
		FileCount: fileCount,
		Succeeded: succeeded,
		CreatedAt: r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operations (id, account_id, operation_type, file_count, succeeded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, record.ID, record.AccountID, record.Type, record.FileCount, record.Succeeded, record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append operation: %w", err)
	}
	return record, nil
}

// RecentForAccount returns the newest records for one account, newest first.
// The id tiebreak keeps the order stable for records sharing a timestamp.
func (r *PostgresOperationLedger) RecentForAccount(ctx context.Context, accountID string, limit int) ([]domain.OperationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, operation_type, file_count, succeeded, created_at
		FROM operations
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2;
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Recent returns the newest records across all accounts, newest first.
func (r *PostgresOperationLedger) Recent(ctx context.Context, limit int) ([]domain.OperationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, operation_type, file_count, succeeded, created_at
		FROM operations
		ORDER BY created_at DESC, id DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// GlobalStats aggregates account and operation counts for admin reporting
func (r *PostgresOperationLedger) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	var stats domain.GlobalStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE subscription_tier <> 'free'),
			(SELECT COUNT(*) FROM operations);
	`).Scan(&stats.TotalAccounts, &stats.PaidAccounts, &stats.TotalOperations)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

func collectRecords(rows *sql.Rows) ([]domain.OperationRecord, error) {
	var records []domain.OperationRecord
	for rows.Next() {
		var rec domain.OperationRecord
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Type, &rec.FileCount, &rec.Succeeded, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
