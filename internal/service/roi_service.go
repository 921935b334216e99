package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"provest/internal/domain"
	"provest/internal/usecase"
)

// ROIDistributor credits scheduled returns to active plan holders. It runs
// from cron once per day and sweeps every user holding a plan, paying out
// the plan's daily ROI until the cumulative roi_income for that plan
// reaches the plan's total ROI. The transaction log itself is the ledger of
// what has been paid, so the sweep is restartable.
type ROIDistributor struct {
	users   domain.UserRepository
	plans   domain.PlanRepository
	wallets domain.WalletRepository
	txns    domain.TransactionRepository
	ledger  *usecase.LedgerService
	logger  *zap.Logger
}

// NewROIDistributor creates a new ROIDistributor
func NewROIDistributor(
	users domain.UserRepository,
	plans domain.PlanRepository,
	wallets domain.WalletRepository,
	txns domain.TransactionRepository,
	ledger *usecase.LedgerService,
	logger *zap.Logger,
) *ROIDistributor {
	return &ROIDistributor{
		users:   users,
		plans:   plans,
		wallets: wallets,
		txns:    txns,
		ledger:  ledger,
		logger:  logger,
	}
}

// DistributeDaily credits one ROI installment to every active plan holder.
// A failure for one user is logged and does not stop the sweep.
func (s *ROIDistributor) DistributeDaily(ctx context.Context) error {
	holders, err := s.users.GetActivePlanHolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plan holders: %w", err)
	}
	if len(holders) == 0 {
		return nil
	}

	s.logger.Info("starting ROI distribution", zap.Int("holders", len(holders)))

	credited := 0
	matured := 0
	for _, user := range holders {
		if user.CurrentPlanID == nil {
			continue
		}
		done, err := s.distributeFor(ctx, user)
		if err != nil {
			s.logger.Error("ROI credit failed",
				zap.String("user_id", user.ID.String()), zap.Error(err))
			continue
		}
		credited++
		if done {
			matured++
		}
	}

	s.logger.Info("ROI distribution complete",
		zap.Int("credited", credited), zap.Int("matured", matured))

	return nil
}

// distributeFor credits one installment and reports whether the plan
// matured with this payment.
func (s *ROIDistributor) distributeFor(ctx context.Context, user *domain.User) (bool, error) {
	plan, err := s.plans.GetByID(ctx, *user.CurrentPlanID)
	if err != nil {
		return false, err
	}

	totalROI := plan.TotalROIAmount()
	daily := plan.DailyROIAmount()
	if daily <= 0 {
		return false, nil
	}

	paid, err := s.txns.SumCompleted(ctx, user.ID, domain.TxROIIncome, &plan.ID)
	if err != nil {
		return false, err
	}
	remaining := totalROI - paid
	if remaining <= 0 {
		return true, s.mature(ctx, user, plan)
	}

	installment := daily
	if installment > remaining {
		installment = remaining
	}

	roiPct := plan.ROIPercentage
	roiDays := plan.ROIDurationDays
	_, err = s.ledger.AddIncome(ctx, user.ID, domain.CategoryROI, installment, usecase.IncomeMeta{
		Description:   fmt.Sprintf("Daily ROI for plan %s", plan.Name),
		PlanID:        &plan.ID,
		ROIPercentage: &roiPct,
		ROIDays:       &roiDays,
	})
	if err != nil {
		return false, err
	}

	if installment >= remaining {
		return true, s.mature(ctx, user, plan)
	}
	return false, nil
}

// mature closes out a fully paid plan: the invested amount leaves
// activeInvestment and the user no longer holds the plan.
func (s *ROIDistributor) mature(ctx context.Context, user *domain.User, plan *domain.Plan) error {
	if err := s.wallets.ReleaseInvestment(ctx, user.ID, plan.Amount); err != nil {
		return err
	}
	if err := s.users.SetCurrentPlan(ctx, user.ID, nil); err != nil {
		return err
	}
	s.logger.Info("plan matured",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", plan.Name))
	return nil
}
