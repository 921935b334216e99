package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"provest/internal/domain"
)

// reservationTolerance absorbs float accumulation noise when comparing a
// wallet's pending reservation against the sum of its open payouts.
const reservationTolerance = 0.01

// ReservationAuditor cross-checks every wallet's pendingWithdrawal against
// the sum of that user's open payout requests. The two are updated in the
// same database transaction, so any drift indicates a bug or manual edit.
// The auditor only reports, it never repairs.
type ReservationAuditor struct {
	users   domain.UserRepository
	wallets domain.WalletRepository
	payouts domain.PayoutRepository
	logger  *zap.Logger
}

func NewReservationAuditor(
	users domain.UserRepository,
	wallets domain.WalletRepository,
	payouts domain.PayoutRepository,
	logger *zap.Logger,
) *ReservationAuditor {
	return &ReservationAuditor{
		users:   users,
		wallets: wallets,
		payouts: payouts,
		logger:  logger,
	}
}

// Audit compares reservations for all users and logs every mismatch.
// It returns the number of wallets that failed the check.
func (s *ReservationAuditor) Audit(ctx context.Context) (int, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load users: %w", err)
	}

	open, err := s.payouts.SumOpenByUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sum open payouts: %w", err)
	}

	mismatches := 0
	for _, user := range users {
		wallet, err := s.wallets.GetByUserID(ctx, user.ID)
		if err != nil {
			s.logger.Error("reservation audit: wallet load failed",
				zap.String("user_id", user.ID.String()), zap.Error(err))
			continue
		}

		reserved := open[user.ID]
		if math.Abs(wallet.PendingWithdrawal-reserved) > reservationTolerance {
			mismatches++
			s.logger.Error("reservation mismatch",
				zap.String("user_id", user.ID.String()),
				zap.Float64("pending_withdrawal", wallet.PendingWithdrawal),
				zap.Float64("open_payouts", reserved))
		}
	}

	if mismatches == 0 {
		s.logger.Info("reservation audit clean", zap.Int("wallets", len(users)))
	} else {
		s.logger.Warn("reservation audit found drift", zap.Int("mismatches", mismatches))
	}

	return mismatches, nil
}
