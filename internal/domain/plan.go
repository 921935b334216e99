package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ROI payout frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// LevelCommission is one entry of a plan's level schedule.
type LevelCommission struct {
	Level      int     `json:"level"`
	Percentage float64 `json:"percentage"`
}

// Plan is an investment plan with an ROI schedule and a per-level
// commission schedule consulted during distribution.
type Plan struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	Amount              float64           `json:"amount"`
	ROIPercentage       float64           `json:"roi_percentage"`
	ROIDurationDays     int               `json:"roi_duration_days"`
	ROIFrequency        string            `json:"roi_frequency"`
	LevelCommissions    []LevelCommission `json:"level_commissions"`
	DirectReferralBonus float64           `json:"direct_referral_bonus"`
	IsActive            bool              `json:"is_active"`
	IsVisible           bool              `json:"is_visible"`
	ValidFrom           time.Time         `json:"valid_from"`
	ValidUntil          *time.Time        `json:"valid_until,omitempty"`
	TotalPurchases      int               `json:"total_purchases"`
	TotalRevenue        float64           `json:"total_revenue"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Validate normalizes and checks the plan before it is saved. The level
// schedule is sorted ascending, then required to be exactly 1..N with no
// gaps or duplicates.
func (p *Plan) Validate() error {
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	sort.Slice(p.LevelCommissions, func(i, j int) bool {
		return p.LevelCommissions[i].Level < p.LevelCommissions[j].Level
	})
	for i, lc := range p.LevelCommissions {
		if lc.Level != i+1 {
			return ErrInvalidLevelSequence
		}
	}
	switch p.ROIFrequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, "":
	default:
		return fmt.Errorf("invalid roi frequency: %s", p.ROIFrequency)
	}
	return nil
}

// IsPurchasable reports whether the plan can be bought right now: it must be
// active, visible, and inside its validity window. A nil ValidUntil means
// unbounded.
func (p *Plan) IsPurchasable(now time.Time) bool {
	if !p.IsActive || !p.IsVisible {
		return false
	}
	if now.Before(p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}

// CommissionForLevel returns the percentage configured for the given level,
// or 0 when the level is beyond the configured depth. Absent levels are a
// deliberate "no commission", never an error.
func (p *Plan) CommissionForLevel(level int) float64 {
	for _, lc := range p.LevelCommissions {
		if lc.Level == level {
			return lc.Percentage
		}
	}
	return 0
}

// TotalROIAmount is the full return paid out over the plan's duration.
func (p *Plan) TotalROIAmount() float64 {
	return p.Amount * p.ROIPercentage / 100
}

// DailyROIAmount spreads the total ROI over the duration expressed in days.
// Weekly and monthly frequencies use 7- and 30-day approximations rather
// than calendar-accurate months.
func (p *Plan) DailyROIAmount() float64 {
	days := p.ROIDurationDays
	switch p.ROIFrequency {
	case FrequencyWeekly:
		days *= 7
	case FrequencyMonthly:
		days *= 30
	}
	if days <= 0 {
		return 0
	}
	return p.TotalROIAmount() / float64(days)
}
