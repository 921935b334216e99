package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"provest/internal/domain"
)

// TransactionRepositoryImpl implements the TransactionRepository interface
type TransactionRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *pgxpool.Pool) domain.TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

const transactionColumns = `
	id, tx_ref, user_id, type, amount, status, description,
	balance_before, balance_after, related_user_id, plan_id, level,
	roi_percentage, roi_days, notes, processed_by, created_at, completed_at
`

// insertTransaction appends a record inside an open database transaction.
// Wallet mutations use this so the record and the balance change commit or
// roll back together.
func insertTransaction(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		txn.ID,
		txn.TxID,
		txn.UserID,
		txn.Type,
		txn.Amount,
		txn.Status,
		txn.Description,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.RelatedUserID,
		txn.PlanID,
		txn.Level,
		txn.ROIPercentage,
		txn.ROIDays,
		txn.Notes,
		txn.ProcessedBy,
		txn.CreatedAt,
		txn.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Create appends a transaction record
func (r *TransactionRepositoryImpl) Create(ctx context.Context, txn *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID,
		&t.TxID,
		&t.UserID,
		&t.Type,
		&t.Amount,
		&t.Status,
		&t.Description,
		&t.BalanceBefore,
		&t.BalanceAfter,
		&t.RelatedUserID,
		&t.PlanID,
		&t.Level,
		&t.ROIPercentage,
		&t.ROIDays,
		&t.Notes,
		&t.ProcessedBy,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return t, nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, id))
}

// GetByRef retrieves a transaction by its human-decodable reference
func (r *TransactionRepositoryImpl) GetByRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_ref = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, ref))
}

// MarkCompleted transitions a non-terminal transaction to completed. The
// terminal guard is part of the statement, so a repeated call reports
// ErrInvalidTransition instead of refreshing a settled record.
func (r *TransactionRepositoryImpl) MarkCompleted(ctx context.Context, id uuid.UUID, processedBy *uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = $1, completed_at = NOW(), processed_by = $2
		WHERE id = $3 AND status NOT IN ('completed', 'failed', 'cancelled')
	`, domain.TxCompleted, processedBy, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// MarkFailed transitions a non-terminal transaction to failed, recording the
// reason in notes. Failed records never credit a wallet.
func (r *TransactionRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string, processedBy *uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = $1, notes = $2, processed_by = $3
		WHERE id = $4 AND status NOT IN ('completed', 'failed', 'cancelled')
	`, domain.TxFailed, reason, processedBy, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// MarkCancelled transitions a pending transaction to cancelled.
func (r *TransactionRepositoryImpl) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = $1
		WHERE id = $2 AND status = 'pending'
	`, domain.TxCancelled, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// ListByUser retrieves a user's transactions, newest first, with optional
// type/status/date filters.
func (r *TransactionRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// SumCompleted sums completed amounts of one type for a user, optionally
// scoped to a plan. The ROI distributor uses this to cap lifetime ROI.
func (r *TransactionRepositoryImpl) SumCompleted(ctx context.Context, userID uuid.UUID, txType string, planID *uuid.UUID) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = 'completed'
	`
	args := []interface{}{userID, txType}
	if planID != nil {
		args = append(args, *planID)
		query += " AND plan_id = $3"
	}

	var total float64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// AggregateByType groups completed sums and counts within a date window.
func (r *TransactionRepositoryImpl) AggregateByType(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TypeAggregate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT type, COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND status = 'completed' AND created_at >= $2 AND created_at < $3
		GROUP BY type
		ORDER BY type
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	defer rows.Close()

	var aggs []domain.TypeAggregate
	for rows.Next() {
		var a domain.TypeAggregate
		if err := rows.Scan(&a.Type, &a.Total, &a.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregates: %w", err)
	}

	return aggs, nil
}
