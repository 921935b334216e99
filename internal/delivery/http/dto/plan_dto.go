package dto

import (
	"time"

	"provest/internal/domain"
)

// PlanInput represents the admin plan create/update payload
type PlanInput struct {
	Name                string                   `json:"name" validate:"required"`
	Description         string                   `json:"description"`
	Amount              float64                  `json:"amount" validate:"required,gt=0"`
	ROIPercentage       float64                  `json:"roi_percentage"`
	ROIDurationDays     int                      `json:"roi_duration_days"`
	ROIFrequency        string                   `json:"roi_frequency"`
	LevelCommissions    []domain.LevelCommission `json:"level_commissions"`
	DirectReferralBonus float64                  `json:"direct_referral_bonus"`
	IsActive            bool                     `json:"is_active"`
	IsVisible           bool                     `json:"is_visible"`
	ValidFrom           *time.Time               `json:"valid_from,omitempty"`
	ValidUntil          *time.Time               `json:"valid_until,omitempty"`
}

// Apply copies the payload onto a plan entity
func (in *PlanInput) Apply(plan *domain.Plan) {
	plan.Name = in.Name
	plan.Description = in.Description
	plan.Amount = in.Amount
	plan.ROIPercentage = in.ROIPercentage
	plan.ROIDurationDays = in.ROIDurationDays
	plan.ROIFrequency = in.ROIFrequency
	plan.LevelCommissions = in.LevelCommissions
	plan.DirectReferralBonus = in.DirectReferralBonus
	plan.IsActive = in.IsActive
	plan.IsVisible = in.IsVisible
	if in.ValidFrom != nil {
		plan.ValidFrom = *in.ValidFrom
	}
	plan.ValidUntil = in.ValidUntil
}

// PurchaseRequest represents the plan purchase payload
type PurchaseRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}
