package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"provest/internal/domain"
)

// PayoutService drives the withdrawal request lifecycle and keeps the
// wallet reservation in lockstep with it: pendingWithdrawal always equals
// the sum of the user's payouts in pending, approved or processing.
//
// Reservation policy: rejection and failure both release the reservation so
// funds are not stuck; a retry re-checks eligibility and re-reserves.
type PayoutService struct {
	payouts  domain.PayoutRepository
	wallets  domain.WalletRepository
	txns     domain.TransactionRepository
	settings domain.SettingsRepository
	logger   *zap.Logger
}

// NewPayoutService creates a new PayoutService
func NewPayoutService(
	payouts domain.PayoutRepository,
	wallets domain.WalletRepository,
	txns domain.TransactionRepository,
	settings domain.SettingsRepository,
	logger *zap.Logger,
) *PayoutService {
	return &PayoutService{
		payouts:  payouts,
		wallets:  wallets,
		txns:     txns,
		settings: settings,
		logger:   logger,
	}
}

// Request creates a payout, reserving the amount in the wallet. The
// eligibility check runs first and its structured result is carried on the
// error when the request is refused.
func (s *PayoutService) Request(ctx context.Context, userID uuid.UUID, amount float64, method string, details map[string]string) (*domain.Payout, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits, err := s.settings.WithdrawalLimits(ctx)
	if err != nil {
		limits = domain.DefaultWithdrawalLimits()
	}

	eligibility := wallet.CanWithdraw(amount, limits, time.Now())
	if !eligibility.Eligible {
		return nil, &domain.EligibilityError{Result: eligibility}
	}

	payout, err := domain.NewPayout(userID, amount, limits.ProcessingFeePercent, method, details)
	if err != nil {
		return nil, err
	}

	// The reservation is taken first; its guard re-checks the available
	// balance atomically.
	if err := s.wallets.Reserve(ctx, userID, amount); err != nil {
		return nil, err
	}

	txn, err := domain.NewTransaction(userID, domain.TxWithdrawal, amount,
		fmt.Sprintf("Withdrawal request %s", payout.PayoutRef))
	if err == nil {
		txn.Notes = payout.PayoutRef
		err = s.txns.Create(ctx, txn)
	}
	if err == nil {
		payout.TransactionID = &txn.ID
		err = s.payouts.Create(ctx, payout)
	}
	if err != nil {
		if relErr := s.wallets.Release(ctx, userID, amount); relErr != nil {
			s.logger.Error("failed to release reservation after payout create failure",
				zap.String("user_id", userID.String()), zap.Error(relErr))
		}
		return nil, err
	}

	s.logger.Info("payout requested",
		zap.String("user_id", userID.String()),
		zap.String("payout_ref", payout.PayoutRef),
		zap.Float64("amount", amount))

	return payout, nil
}

// Cancel withdraws a pending payout. Only the owning user may cancel, and
// only from pending. The reservation is released.
func (s *PayoutService) Cancel(ctx context.Context, userID, payoutID uuid.UUID) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if payout.UserID != userID {
		return domain.ErrNotFound
	}

	if err := payout.Transition(domain.PayoutCancelled, nil); err != nil {
		return err
	}
	if err := s.payouts.UpdateStatus(ctx, payout, domain.PayoutPending); err != nil {
		return err
	}

	s.releaseReservation(ctx, payout)
	if payout.TransactionID != nil {
		if err := s.txns.MarkCancelled(ctx, *payout.TransactionID); err != nil {
			s.logger.Warn("failed to cancel withdrawal record",
				zap.String("payout_ref", payout.PayoutRef), zap.Error(err))
		}
	}

	return nil
}

// Approve moves a pending payout to approved. Admin only; the reservation
// stays in place until completion.
func (s *PayoutService) Approve(ctx context.Context, adminID, payoutID uuid.UUID) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if err := payout.Transition(domain.PayoutApproved, &adminID); err != nil {
		return err
	}
	return s.payouts.UpdateStatus(ctx, payout, domain.PayoutPending)
}

// Reject refuses a pending payout with a reason, releasing the reservation
// so the funds return to the available balance.
func (s *PayoutService) Reject(ctx context.Context, adminID, payoutID uuid.UUID, reason string) error {
	if reason == "" {
		return fmt.Errorf("a rejection reason is required")
	}
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if err := payout.Transition(domain.PayoutRejected, &adminID); err != nil {
		return err
	}
	payout.RejectReason = reason
	if err := s.payouts.UpdateStatus(ctx, payout, domain.PayoutPending); err != nil {
		return err
	}

	s.releaseReservation(ctx, payout)
	if payout.TransactionID != nil {
		if err := s.txns.MarkFailed(ctx, *payout.TransactionID, reason, &adminID); err != nil {
			s.logger.Warn("failed to fail withdrawal record",
				zap.String("payout_ref", payout.PayoutRef), zap.Error(err))
		}
	}

	return nil
}

// StartProcessing moves an approved payout into processing.
func (s *PayoutService) StartProcessing(ctx context.Context, adminID, payoutID uuid.UUID) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if payout.Status != domain.PayoutApproved {
		return domain.ErrInvalidTransition
	}
	if err := payout.Transition(domain.PayoutProcessing, &adminID); err != nil {
		return err
	}
	return s.payouts.UpdateStatus(ctx, payout, domain.PayoutApproved)
}

// Complete finalizes a processing payout. The status flip and the wallet
// settlement commit in one storage transaction guarded on the payout's
// current status: only the caller that wins the guard settles the wallet,
// so a repeated Complete cannot deduct twice, and a crash cannot strand a
// completed payout whose reservation was never settled.
func (s *PayoutService) Complete(ctx context.Context, adminID, payoutID uuid.UUID) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if err := payout.Transition(domain.PayoutCompleted, &adminID); err != nil {
		return err
	}

	var record *domain.Transaction
	if payout.TransactionID != nil {
		record, err = s.txns.GetByID(ctx, *payout.TransactionID)
		if err != nil {
			s.logger.Warn("withdrawal record missing at settlement",
				zap.String("payout_ref", payout.PayoutRef), zap.Error(err))
			record = nil
		}
	}

	if err := s.wallets.Settle(ctx, payout, record, time.Now()); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return err
		}
		return fmt.Errorf("failed to settle payout %s: %w", payout.PayoutRef, err)
	}

	s.logger.Info("payout completed",
		zap.String("user_id", payout.UserID.String()),
		zap.String("payout_ref", payout.PayoutRef),
		zap.Float64("amount", payout.Amount))

	return nil
}

// Fail marks a processing payout failed and releases the reservation. The
// payout stays retryable by an operator.
func (s *PayoutService) Fail(ctx context.Context, adminID, payoutID uuid.UUID, reason string) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if err := payout.Transition(domain.PayoutFailed, &adminID); err != nil {
		return err
	}
	payout.RejectReason = reason
	if err := s.payouts.UpdateStatus(ctx, payout, domain.PayoutProcessing); err != nil {
		return err
	}

	s.releaseReservation(ctx, payout)
	return nil
}

// Retry re-enters processing from failed. Eligibility is re-checked and the
// reservation re-taken; retries never happen automatically.
func (s *PayoutService) Retry(ctx context.Context, adminID, payoutID uuid.UUID) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if payout.Status != domain.PayoutFailed {
		return domain.ErrInvalidTransition
	}

	if err := s.wallets.Reserve(ctx, payout.UserID, payout.Amount); err != nil {
		return err
	}

	if err := payout.Transition(domain.PayoutProcessing, &adminID); err != nil {
		s.releaseReservation(ctx, payout)
		return err
	}
	if err := s.payouts.UpdateStatus(ctx, payout, domain.PayoutFailed); err != nil {
		s.releaseReservation(ctx, payout)
		return err
	}

	s.logger.Info("payout retried",
		zap.String("payout_ref", payout.PayoutRef),
		zap.Int("retry_count", payout.RetryCount))

	return nil
}

// GetPayout retrieves a payout visible to the requesting user; admins see
// every payout, users only their own.
func (s *PayoutService) GetPayout(ctx context.Context, requesterID uuid.UUID, isAdmin bool, payoutID uuid.UUID) (*domain.Payout, error) {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && payout.UserID != requesterID {
		return nil, domain.ErrNotFound
	}
	return payout, nil
}

// ListUserPayouts lists a user's payout history.
func (s *PayoutService) ListUserPayouts(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Payout, error) {
	return s.payouts.ListByUser(ctx, userID, limit)
}

// ListQueue lists payouts awaiting operator action in a given status.
func (s *PayoutService) ListQueue(ctx context.Context, status string, limit int) ([]*domain.Payout, error) {
	return s.payouts.ListByStatus(ctx, status, limit)
}

func (s *PayoutService) releaseReservation(ctx context.Context, payout *domain.Payout) {
	if err := s.wallets.Release(ctx, payout.UserID, payout.Amount); err != nil {
		s.logger.Error("failed to release payout reservation",
			zap.String("user_id", payout.UserID.String()),
			zap.String("payout_ref", payout.PayoutRef),
			zap.Error(err))
	}
}
