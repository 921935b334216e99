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

// ErrPlanNotPurchasable is returned when a plan is inactive, hidden, or
// outside its validity window.
var ErrPlanNotPurchasable = errors.New("plan is not purchasable")

// PlanService manages investment plans and the purchase flow.
type PlanService struct {
	plans       domain.PlanRepository
	users       domain.UserRepository
	wallets     domain.WalletRepository
	commissions *CommissionService
	logger      *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(
	plans domain.PlanRepository,
	users domain.UserRepository,
	wallets domain.WalletRepository,
	commissions *CommissionService,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		plans:       plans,
		users:       users,
		wallets:     wallets,
		commissions: commissions,
		logger:      logger,
	}
}

// CreatePlan validates and saves a new plan.
func (s *PlanService) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.ValidFrom.IsZero() {
		plan.ValidFrom = now
	}
	return s.plans.Create(ctx, plan)
}

// UpdatePlan validates and saves plan changes.
func (s *PlanService) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	plan.UpdatedAt = time.Now()
	return s.plans.Update(ctx, plan)
}

// GetPlan retrieves a plan by ID.
func (s *PlanService) GetPlan(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	return s.plans.GetByID(ctx, id)
}

// ListPlans returns the plans a user may see; admins see everything.
func (s *PlanService) ListPlans(ctx context.Context, includeHidden bool) ([]*domain.Plan, error) {
	if includeHidden {
		return s.plans.ListAll(ctx)
	}
	return s.plans.ListVisible(ctx)
}

// Purchase buys a plan from the user's wallet balance. The debit, the
// invested counters and the plan_purchase record commit as one unit; the
// commission distribution to the upline follows.
func (s *PlanService) Purchase(ctx context.Context, userID, planID uuid.UUID) (*domain.Transaction, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsPurchasable(time.Now()) {
		return nil, ErrPlanNotPurchasable
	}

	txn, err := domain.NewTransaction(userID, domain.TxPlanPurchase, plan.Amount,
		fmt.Sprintf("Purchase of plan %s", plan.Name))
	if err != nil {
		return nil, err
	}
	txn.PlanID = &plan.ID
	roiPct := plan.ROIPercentage
	roiDays := plan.ROIDurationDays
	txn.ROIPercentage = &roiPct
	txn.ROIDays = &roiDays

	if err := s.wallets.Invest(ctx, userID, plan.Amount, txn); err != nil {
		return nil, err
	}

	if err := s.users.SetCurrentPlan(ctx, userID, &plan.ID); err != nil {
		s.logger.Error("failed to set current plan",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
	if err := s.plans.IncrementPurchase(ctx, plan.ID, plan.Amount); err != nil {
		s.logger.Error("failed to increment plan purchase counters",
			zap.String("plan_id", plan.ID.String()), zap.Error(err))
	}

	if err := s.commissions.DistributeOnPurchase(ctx, user, plan, plan.Amount); err != nil {
		s.logger.Error("commission distribution failed",
			zap.String("buyer_id", userID.String()),
			zap.String("plan_id", plan.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("plan purchased",
		zap.String("user_id", userID.String()),
		zap.String("plan", plan.Name),
		zap.Float64("amount", plan.Amount))

	return txn, nil
}
