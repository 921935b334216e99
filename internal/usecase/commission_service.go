package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"provest/internal/domain"
)

// CommissionService distributes direct bonuses and level commissions up the
// sponsor chain when a plan is purchased.
type CommissionService struct {
	ledger    *LedgerService
	referrals *ReferralService
	settings  domain.SettingsRepository
	logger    *zap.Logger
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(
	ledger *LedgerService,
	referrals *ReferralService,
	settings domain.SettingsRepository,
	logger *zap.Logger,
) *CommissionService {
	return &CommissionService{
		ledger:    ledger,
		referrals: referrals,
		settings:  settings,
		logger:    logger,
	}
}

// DistributeOnPurchase walks the buyer's upline and credits each ancestor
// their configured share of baseAmount. The immediate sponsor additionally
// receives the direct referral bonus. A chain shorter than the plan's level
// schedule simply pays out fewer commissions. A failed credit to one
// ancestor is logged and does not stop the rest of the chain.
func (s *CommissionService) DistributeOnPurchase(ctx context.Context, buyer *domain.User, plan *domain.Plan, baseAmount float64) error {
	chain, err := s.referrals.SponsorChain(ctx, buyer)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		return nil
	}

	limits, err := s.settings.WithdrawalLimits(ctx)
	if err != nil {
		limits = domain.DefaultWithdrawalLimits()
	}

	// Direct referral bonus goes to the immediate sponsor only.
	if plan.DirectReferralBonus > 0 {
		bonus := baseAmount * plan.DirectReferralBonus / 100
		_, err := s.ledger.AddIncome(ctx, chain[0].ID, domain.CategoryDirect, bonus, IncomeMeta{
			Description:   fmt.Sprintf("Direct referral bonus from %s plan purchase", plan.Name),
			RelatedUserID: &buyer.ID,
			PlanID:        &plan.ID,
		})
		if err != nil {
			s.logger.Error("failed to credit direct referral bonus",
				zap.String("sponsor_id", chain[0].ID.String()),
				zap.String("buyer_id", buyer.ID.String()),
				zap.Error(err))
		}
	}

	maxLevels := len(plan.LevelCommissions)
	if limits.MaxCommissionLevels > 0 && limits.MaxCommissionLevels < maxLevels {
		maxLevels = limits.MaxCommissionLevels
	}

	for i, ancestor := range chain {
		level := i + 1
		if level > maxLevels {
			break
		}
		pct := plan.CommissionForLevel(level)
		if pct <= 0 {
			continue
		}
		commission := baseAmount * pct / 100
		lvl := level
		_, err := s.ledger.AddIncome(ctx, ancestor.ID, domain.CategoryLevel, commission, IncomeMeta{
			Description:   fmt.Sprintf("Level %d commission from %s plan purchase", level, plan.Name),
			RelatedUserID: &buyer.ID,
			PlanID:        &plan.ID,
			Level:         &lvl,
		})
		if err != nil {
			s.logger.Error("failed to credit level commission",
				zap.String("ancestor_id", ancestor.ID.String()),
				zap.String("buyer_id", buyer.ID.String()),
				zap.Int("level", level),
				zap.Error(err))
			continue
		}
	}

	return nil
}
