package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"provest/internal/domain"
)

// categoryTxTypes maps an income category to the transaction type recorded
// for a plain credit into it.
var categoryTxTypes = map[string]string{
	domain.CategoryDirect: domain.TxDirectIncome,
	domain.CategoryLevel:  domain.TxLevelIncome,
	domain.CategoryROI:    domain.TxROIIncome,
	domain.CategoryBonus:  domain.TxBonusIncome,
}

// IncomeMeta carries the optional context recorded on an income transaction:
// which downline user triggered it, which plan, which commission tier.
type IncomeMeta struct {
	Type          string
	Description   string
	RelatedUserID *uuid.UUID
	PlanID        *uuid.UUID
	Level         *int
	ROIPercentage *float64
	ROIDays       *int
	ProcessedBy   *uuid.UUID
}

// LedgerService is the wallet engine: every credit and debit flows through
// here so the category buckets, the derived total and the transaction log
// always move together.
type LedgerService struct {
	wallets  domain.WalletRepository
	txns     domain.TransactionRepository
	users    domain.UserRepository
	settings domain.SettingsRepository
	logger   *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	wallets domain.WalletRepository,
	txns domain.TransactionRepository,
	users domain.UserRepository,
	settings domain.SettingsRepository,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		wallets:  wallets,
		txns:     txns,
		users:    users,
		settings: settings,
		logger:   logger,
	}
}

// AddIncome credits amount into a category and records the paired completed
// transaction in the same storage transaction.
func (s *LedgerService) AddIncome(ctx context.Context, userID uuid.UUID, category string, amount float64, meta IncomeMeta) (*domain.Transaction, error) {
	txType := meta.Type
	if txType == "" {
		txType = categoryTxTypes[category]
	}

	txn, err := domain.NewTransaction(userID, txType, amount, meta.Description)
	if err != nil {
		return nil, err
	}
	txn.RelatedUserID = meta.RelatedUserID
	txn.PlanID = meta.PlanID
	txn.Level = meta.Level
	txn.ROIPercentage = meta.ROIPercentage
	txn.ROIDays = meta.ROIDays
	txn.ProcessedBy = meta.ProcessedBy

	if err := s.wallets.CreditIncome(ctx, userID, category, amount, txn); err != nil {
		return nil, err
	}

	// Lifetime earnings is a reporting counter; a miss here does not undo
	// the credited wallet.
	if err := s.users.AddEarnings(ctx, userID, amount); err != nil {
		s.logger.Warn("failed to update lifetime earnings",
			zap.String("user_id", userID.String()), zap.Error(err))
	}

	s.logger.Info("income credited",
		zap.String("user_id", userID.String()),
		zap.String("category", category),
		zap.String("type", txType),
		zap.Float64("amount", amount))

	return txn, nil
}

// Deduct removes amount from the wallet with the proportional split and
// records a completed transaction of the given type.
func (s *LedgerService) Deduct(ctx context.Context, userID uuid.UUID, amount float64, txType, description string) (*domain.Transaction, error) {
	txn, err := domain.NewTransaction(userID, txType, amount, description)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.Debit(ctx, userID, amount, txn); err != nil {
		return nil, err
	}

	s.logger.Info("balance deducted",
		zap.String("user_id", userID.String()),
		zap.String("type", txType),
		zap.Float64("amount", amount))

	return txn, nil
}

// AdminAdjust moves the balance on an administrator's authority. Positive
// amounts credit the bonus category; negative amounts deduct the magnitude
// proportionally across the categories.
func (s *LedgerService) AdminAdjust(ctx context.Context, adminID, userID uuid.UUID, amount float64, note string) (*domain.Transaction, error) {
	if amount < 0 {
		txn, err := domain.NewTransaction(userID, domain.TxAdminAdjustment, -amount, note)
		if err != nil {
			return nil, err
		}
		txn.ProcessedBy = &adminID
		if err := s.wallets.Debit(ctx, userID, -amount, txn); err != nil {
			return nil, err
		}
		s.logger.Info("balance adjusted down",
			zap.String("user_id", userID.String()),
			zap.String("admin_id", adminID.String()),
			zap.Float64("amount", amount))
		return txn, nil
	}
	return s.AddIncome(ctx, userID, domain.CategoryBonus, amount, IncomeMeta{
		Type:        domain.TxAdminAdjustment,
		Description: note,
		ProcessedBy: &adminID,
	})
}

// GetWallet returns the user's wallet, applying (and persisting) the daily
// withdrawal window reset when the calendar day has rolled over.
func (s *LedgerService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.ResetDailyWindowIfNeeded(time.Now()) {
		if err := s.wallets.Update(ctx, wallet); err != nil {
			s.logger.Warn("failed to persist daily window reset",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return wallet, nil
}

// CanWithdraw runs the structured eligibility check against the current
// limits. The result is returned for display regardless of the outcome.
func (s *LedgerService) CanWithdraw(ctx context.Context, userID uuid.UUID, amount float64) (domain.Eligibility, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return domain.Eligibility{}, err
	}
	limits, err := s.settings.WithdrawalLimits(ctx)
	if err != nil {
		s.logger.Warn("failed to load withdrawal limits, using defaults", zap.Error(err))
		limits = domain.DefaultWithdrawalLimits()
	}
	return wallet.CanWithdraw(amount, limits, time.Now()), nil
}

// GetTransactions lists the user's transaction history, newest first.
func (s *LedgerService) GetTransactions(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	return s.txns.ListByUser(ctx, userID, filter)
}

// GetStatement aggregates completed transactions by type in a date window.
func (s *LedgerService) GetStatement(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TypeAggregate, error) {
	return s.txns.AggregateByType(ctx, userID, from, to)
}
