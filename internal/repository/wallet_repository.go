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

// categoryColumns maps income categories to their wallet columns. Only
// values from this map are ever interpolated into SQL.
var categoryColumns = map[string]string{
	domain.CategoryDirect: "direct_income",
	domain.CategoryLevel:  "level_income",
	domain.CategoryROI:    "roi_income",
	domain.CategoryBonus:  "bonus_income",
}

// WalletRepositoryImpl implements the WalletRepository interface
type WalletRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *pgxpool.Pool) domain.WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

// Create creates a wallet for a user
func (r *WalletRepositoryImpl) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (
			id, user_id, direct_income, level_income, roi_income, bonus_income,
			total_balance, pending_withdrawal, total_withdrawn, total_invested,
			active_investment, today_withdrawal, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := r.db.Exec(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.DirectIncome,
		wallet.LevelIncome,
		wallet.ROIIncome,
		wallet.BonusIncome,
		wallet.TotalBalance,
		wallet.PendingWithdrawal,
		wallet.TotalWithdrawn,
		wallet.TotalInvested,
		wallet.ActiveInvestment,
		wallet.TodayWithdrawal,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

const walletColumns = `
	id, user_id, direct_income, level_income, roi_income, bonus_income,
	total_balance, pending_withdrawal, total_withdrawn, total_invested,
	active_investment, today_withdrawal, last_withdrawal_date, created_at, updated_at
`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.DirectIncome,
		&w.LevelIncome,
		&w.ROIIncome,
		&w.BonusIncome,
		&w.TotalBalance,
		&w.PendingWithdrawal,
		&w.TotalWithdrawn,
		&w.TotalInvested,
		&w.ActiveInvestment,
		&w.TodayWithdrawal,
		&w.LastWithdrawalDate,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	return w, nil
}

// GetByUserID retrieves the wallet owned by a user
func (r *WalletRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return scanWallet(r.db.QueryRow(ctx, query, userID))
}

// CreditIncome atomically increments one income category and recomputes the
// total in a single statement, then inserts the paired completed transaction
// record in the same database transaction. No read step, so two concurrent
// credits cannot lose an update.
func (r *WalletRepositoryImpl) CreditIncome(ctx context.Context, userID uuid.UUID, category string, amount float64, record *domain.Transaction) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	column, ok := categoryColumns[category]
	if !ok {
		return domain.ErrInvalidCategory
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	// SET expressions see pre-update values, so the recomputed total is
	// the old category sum plus the credited amount.
	query := fmt.Sprintf(`
		UPDATE wallets
		SET %s = %s + $1,
		    total_balance = direct_income + level_income + roi_income + bonus_income + $1,
		    updated_at = NOW()
		WHERE user_id = $2
		RETURNING total_balance
	`, column, column)

	var totalAfter float64
	if err := tx.QueryRow(ctx, query, amount, userID).Scan(&totalAfter); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	if record != nil {
		record.BalanceBefore = totalAfter - amount
		record.BalanceAfter = totalAfter
		now := time.Now()
		record.Status = domain.TxCompleted
		record.CompletedAt = &now
		if err := insertTransaction(ctx, tx, record); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit credit: %w", err)
	}
	return nil
}

// Debit removes amount proportionally across the categories. The wallet row
// is locked for the whole read-compute-write cycle so a concurrent credit
// cannot slip between the ratio computation and the write.
func (r *WalletRepositoryImpl) Debit(ctx context.Context, userID uuid.UUID, amount float64, record *domain.Transaction) error {
	return r.debitLocked(ctx, userID, amount, record, false)
}

// Invest debits amount and moves it into the invested counters.
func (r *WalletRepositoryImpl) Invest(ctx context.Context, userID uuid.UUID, amount float64, record *domain.Transaction) error {
	return r.debitLocked(ctx, userID, amount, record, true)
}

func (r *WalletRepositoryImpl) debitLocked(ctx context.Context, userID uuid.UUID, amount float64, record *domain.Transaction, invest bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	balanceBefore := wallet.TotalBalance
	if _, err := wallet.Deduct(amount); err != nil {
		return err
	}
	if invest {
		wallet.TotalInvested += amount
		wallet.ActiveInvestment += amount
	}

	if err := writeWallet(ctx, tx, wallet); err != nil {
		return err
	}

	if record != nil {
		record.BalanceBefore = balanceBefore
		record.BalanceAfter = wallet.TotalBalance
		now := time.Now()
		record.Status = domain.TxCompleted
		record.CompletedAt = &now
		if err := insertTransaction(ctx, tx, record); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit debit: %w", err)
	}
	return nil
}

// ReleaseInvestment moves a matured plan amount out of activeInvestment.
func (r *WalletRepositoryImpl) ReleaseInvestment(ctx context.Context, userID uuid.UUID, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE wallets
		SET active_investment = GREATEST(active_investment - $1, 0), updated_at = NOW()
		WHERE user_id = $2
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to release investment: %w", err)
	}
	return nil
}

// Reserve earmarks amount for an open payout. The guard on available
// balance lives in the statement itself, so a concurrent reservation cannot
// overdraw the wallet.
func (r *WalletRepositoryImpl) Reserve(ctx context.Context, userID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE wallets
		SET pending_withdrawal = pending_withdrawal + $1, updated_at = NOW()
		WHERE user_id = $2 AND total_balance - pending_withdrawal >= $1
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to reserve funds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Release returns a reservation to the available balance.
func (r *WalletRepositoryImpl) Release(ctx context.Context, userID uuid.UUID, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE wallets
		SET pending_withdrawal = GREATEST(pending_withdrawal - $1, 0), updated_at = NOW()
		WHERE user_id = $2
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}

// Settle finalizes a processing payout: flips its status to completed,
// releases the reservation, deducts the amount from the categories, bumps
// the withdrawal counters and completes the paired withdrawal record, all in
// one database transaction. The guarded payout update is the exactly-once
// gate; losing it fails with ErrInvalidTransition before anything is
// deducted, and a crash can never leave the status flip and the wallet
// settlement separately committed.
func (r *WalletRepositoryImpl) Settle(ctx context.Context, payout *domain.Payout, record *domain.Transaction, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE payouts
		SET status = $1, processed_by = $2, completed_at = $3
		WHERE id = $4 AND status = $5
	`, payout.Status, payout.ProcessedBy, payout.CompletedAt, payout.ID, domain.PayoutProcessing)
	if err != nil {
		return fmt.Errorf("failed to complete payout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}

	amount := payout.Amount
	wallet, err := lockWallet(ctx, tx, payout.UserID)
	if err != nil {
		return err
	}

	balanceBefore := wallet.TotalBalance
	wallet.ResetDailyWindowIfNeeded(now)

	// The reservation comes off first; the deduction then fits inside the
	// freed available balance.
	wallet.PendingWithdrawal -= amount
	if wallet.PendingWithdrawal < 0 {
		wallet.PendingWithdrawal = 0
	}
	if _, err := wallet.Deduct(amount); err != nil {
		return err
	}
	wallet.TotalWithdrawn += amount
	wallet.TodayWithdrawal += amount
	wallet.LastWithdrawalDate = &now

	if err := writeWallet(ctx, tx, wallet); err != nil {
		return err
	}

	if record != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE transactions
			SET status = $1, completed_at = $2, balance_before = $3, balance_after = $4
			WHERE id = $5 AND status NOT IN ('completed', 'failed', 'cancelled')
		`, domain.TxCompleted, now, balanceBefore, wallet.TotalBalance, record.ID)
		if err != nil {
			return fmt.Errorf("failed to complete withdrawal record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInvalidTransition
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

// Update persists a wallet snapshot.
func (r *WalletRepositoryImpl) Update(ctx context.Context, wallet *domain.Wallet) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if err := writeWallet(ctx, tx, wallet); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit wallet update: %w", err)
	}
	return nil
}

func lockWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, userID))
}

func writeWallet(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	w.RecomputeTotal()
	_, err := tx.Exec(ctx, `
		UPDATE wallets
		SET direct_income = $1, level_income = $2, roi_income = $3, bonus_income = $4,
		    total_balance = $5, pending_withdrawal = $6, total_withdrawn = $7,
		    total_invested = $8, active_investment = $9, today_withdrawal = $10,
		    last_withdrawal_date = $11, updated_at = NOW()
		WHERE id = $12
	`,
		w.DirectIncome,
		w.LevelIncome,
		w.ROIIncome,
		w.BonusIncome,
		w.TotalBalance,
		w.PendingWithdrawal,
		w.TotalWithdrawn,
		w.TotalInvested,
		w.ActiveInvestment,
		w.TodayWithdrawal,
		w.LastWithdrawalDate,
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to write wallet: %w", err)
	}
	return nil
}
