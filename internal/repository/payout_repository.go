package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"provest/internal/domain"
)

// PayoutRepositoryImpl implements the PayoutRepository interface
type PayoutRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPayoutRepository creates a new PayoutRepository
func NewPayoutRepository(db *pgxpool.Pool) domain.PayoutRepository {
	return &PayoutRepositoryImpl{db: db}
}

const payoutColumns = `
	id, payout_ref, user_id, amount, processing_fee, net_amount, status,
	payment_method, payment_details, transaction_id, retry_count, priority,
	reject_reason, processed_by, processed_at, completed_at, last_retry_at, created_at
`

// Create saves a new payout request
func (r *PayoutRepositoryImpl) Create(ctx context.Context, payout *domain.Payout) error {
	details, err := json.Marshal(payout.PaymentDetails)
	if err != nil {
		return fmt.Errorf("failed to encode payment details: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO payouts (`+payoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		payout.ID,
		payout.PayoutRef,
		payout.UserID,
		payout.Amount,
		payout.ProcessingFee,
		payout.NetAmount,
		payout.Status,
		payout.PaymentMethod,
		details,
		payout.TransactionID,
		payout.RetryCount,
		payout.Priority,
		payout.RejectReason,
		payout.ProcessedBy,
		payout.ProcessedAt,
		payout.CompletedAt,
		payout.LastRetryAt,
		payout.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}

	return nil
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	p := &domain.Payout{}
	var details []byte
	err := row.Scan(
		&p.ID,
		&p.PayoutRef,
		&p.UserID,
		&p.Amount,
		&p.ProcessingFee,
		&p.NetAmount,
		&p.Status,
		&p.PaymentMethod,
		&details,
		&p.TransactionID,
		&p.RetryCount,
		&p.Priority,
		&p.RejectReason,
		&p.ProcessedBy,
		&p.ProcessedAt,
		&p.CompletedAt,
		&p.LastRetryAt,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payout: %w", err)
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &p.PaymentDetails); err != nil {
			return nil, fmt.Errorf("failed to decode payment details: %w", err)
		}
	}
	return p, nil
}

// GetByID retrieves a payout by ID
func (r *PayoutRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`
	return scanPayout(r.db.QueryRow(ctx, query, id))
}

// ListByUser retrieves a user's payouts, newest first
func (r *PayoutRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Payout, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

// ListByStatus retrieves payouts in a given status, oldest first so
// operators work the queue in arrival order (priority first).
func (r *PayoutRepositoryImpl) ListByStatus(ctx context.Context, status string, limit int) ([]*domain.Payout, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE status = $1 ORDER BY priority DESC, created_at ASC LIMIT $2`
	return r.list(ctx, query, status, limit)
}

func (r *PayoutRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Payout, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*domain.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payouts: %w", err)
	}

	return payouts, nil
}

// UpdateStatus persists a transition guarded on the expected current status.
// Zero rows updated means another actor already moved the payout, which
// surfaces as ErrInvalidTransition so side effects are applied exactly once.
func (r *PayoutRepositoryImpl) UpdateStatus(ctx context.Context, payout *domain.Payout, expectedStatus string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payouts
		SET status = $1, retry_count = $2, reject_reason = $3, processed_by = $4,
		    processed_at = $5, completed_at = $6, last_retry_at = $7
		WHERE id = $8 AND status = $9
	`,
		payout.Status,
		payout.RetryCount,
		payout.RejectReason,
		payout.ProcessedBy,
		payout.ProcessedAt,
		payout.CompletedAt,
		payout.LastRetryAt,
		payout.ID,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to update payout status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// SumOpenByUser sums reservation-holding payout amounts per user. The
// consistency checker compares this against wallet.pendingWithdrawal.
func (r *PayoutRepositoryImpl) SumOpenByUser(ctx context.Context) (map[uuid.UUID]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, COALESCE(SUM(amount), 0)
		FROM payouts
		WHERE status IN ('pending', 'approved', 'processing')
		GROUP BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum open payouts: %w", err)
	}
	defer rows.Close()

	sums := make(map[uuid.UUID]float64)
	for rows.Next() {
		var userID uuid.UUID
		var total float64
		if err := rows.Scan(&userID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan open payout sum: %w", err)
		}
		sums[userID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating open payout sums: %w", err)
	}

	return sums, nil
}
