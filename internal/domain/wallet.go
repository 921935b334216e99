package domain

import (
	"time"

	"github.com/google/uuid"

	"provest/internal/utils"
)

// Income categories. Every credit lands in exactly one of these buckets.
const (
	CategoryDirect = "direct"
	CategoryLevel  = "level"
	CategoryROI    = "roi"
	CategoryBonus  = "bonus"
)

// IncomeCategories lists the valid buckets in a fixed order, used when
// splitting a deduction proportionally.
var IncomeCategories = []string{CategoryDirect, CategoryLevel, CategoryROI, CategoryBonus}

// Wallet holds a user's categorized income balances. TotalBalance is always
// derived from the four category buckets and recomputed on every mutation;
// a stored total is never trusted without a fresh recompute.
type Wallet struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	DirectIncome       float64    `json:"direct_income"`
	LevelIncome        float64    `json:"level_income"`
	ROIIncome          float64    `json:"roi_income"`
	BonusIncome        float64    `json:"bonus_income"`
	TotalBalance       float64    `json:"total_balance"`
	PendingWithdrawal  float64    `json:"pending_withdrawal"`
	TotalWithdrawn     float64    `json:"total_withdrawn"`
	TotalInvested      float64    `json:"total_invested"`
	ActiveInvestment   float64    `json:"active_investment"`
	TodayWithdrawal    float64    `json:"today_withdrawal"`
	LastWithdrawalDate *time.Time `json:"last_withdrawal_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewWallet creates an empty wallet for a user.
func NewWallet(userID uuid.UUID) *Wallet {
	now := time.Now()
	return &Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Category returns the balance of a single income bucket.
func (w *Wallet) Category(category string) float64 {
	switch category {
	case CategoryDirect:
		return w.DirectIncome
	case CategoryLevel:
		return w.LevelIncome
	case CategoryROI:
		return w.ROIIncome
	case CategoryBonus:
		return w.BonusIncome
	}
	return 0
}

func (w *Wallet) setCategory(category string, value float64) {
	switch category {
	case CategoryDirect:
		w.DirectIncome = value
	case CategoryLevel:
		w.LevelIncome = value
	case CategoryROI:
		w.ROIIncome = value
	case CategoryBonus:
		w.BonusIncome = value
	}
}

// RecomputeTotal derives TotalBalance from the category buckets.
func (w *Wallet) RecomputeTotal() {
	w.TotalBalance = w.DirectIncome + w.LevelIncome + w.ROIIncome + w.BonusIncome
}

// AvailableBalance is the spendable part of the wallet: total minus funds
// reserved for open payout requests.
func (w *Wallet) AvailableBalance() float64 {
	return w.TotalBalance - w.PendingWithdrawal
}

// AddIncome credits amount to the given category and recomputes the total.
func (w *Wallet) AddIncome(category string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !validCategory(category) {
		return ErrInvalidCategory
	}
	w.setCategory(category, w.Category(category)+amount)
	w.RecomputeTotal()
	w.UpdatedAt = time.Now()
	return nil
}

// Deduct removes amount from the wallet, splitting it across the four
// categories in proportion to each category's share of the total at the time
// of deduction. A category is never driven below zero; any remainder left by
// rounding or capping is taken from the buckets that still have funds,
// largest first. Returns the per-category amounts actually deducted.
func (w *Wallet) Deduct(amount float64) (map[string]float64, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > w.AvailableBalance() {
		return nil, ErrInsufficientBalance
	}

	deducted := make(map[string]float64, len(IncomeCategories))
	total := w.TotalBalance
	applied := 0.0
	for _, cat := range IncomeCategories {
		share := 0.0
		if total > 0 {
			share = amount * w.Category(cat) / total
		}
		if share > w.Category(cat) {
			share = w.Category(cat)
		}
		deducted[cat] = share
		applied += share
	}

	// Distribute any remainder over buckets that still have room.
	remainder := amount - applied
	for remainder > 1e-9 {
		richest := ""
		richestLeft := 0.0
		for _, cat := range IncomeCategories {
			left := w.Category(cat) - deducted[cat]
			if left > richestLeft {
				richest = cat
				richestLeft = left
			}
		}
		if richest == "" {
			break
		}
		take := remainder
		if take > richestLeft {
			take = richestLeft
		}
		deducted[richest] += take
		remainder -= take
	}

	for _, cat := range IncomeCategories {
		w.setCategory(cat, w.Category(cat)-deducted[cat])
		if w.Category(cat) < 0 {
			w.setCategory(cat, 0)
		}
	}
	w.RecomputeTotal()
	w.UpdatedAt = time.Now()
	return deducted, nil
}

// ResetDailyWindowIfNeeded zeroes TodayWithdrawal when the last withdrawal
// happened on a different calendar day than now. Returns true when a reset
// was applied so callers know to persist it.
func (w *Wallet) ResetDailyWindowIfNeeded(now time.Time) bool {
	if w.LastWithdrawalDate == nil {
		return false
	}
	if utils.SameCalendarDay(*w.LastWithdrawalDate, now) {
		return false
	}
	if w.TodayWithdrawal == 0 {
		return false
	}
	w.TodayWithdrawal = 0
	return true
}

// Eligibility is the structured result of a withdrawal check. Limits and the
// remaining daily allowance are filled in regardless of the outcome so the
// client can render them.
type Eligibility struct {
	Eligible       bool    `json:"eligible"`
	Reason         string  `json:"reason,omitempty"`
	MinWithdrawal  float64 `json:"min_withdrawal"`
	MaxPerDay      float64 `json:"max_per_day"`
	Available      float64 `json:"available_balance"`
	RemainingToday float64 `json:"remaining_today"`
}

// CanWithdraw checks whether amount may be requested as a payout right now.
// The daily window is reset first when the calendar day has rolled over.
func (w *Wallet) CanWithdraw(amount float64, limits WithdrawalLimits, now time.Time) Eligibility {
	w.ResetDailyWindowIfNeeded(now)

	result := Eligibility{
		MinWithdrawal:  limits.MinWithdrawal,
		MaxPerDay:      limits.MaxWithdrawalPerDay,
		Available:      w.AvailableBalance(),
		RemainingToday: limits.MaxWithdrawalPerDay - w.TodayWithdrawal,
	}
	if result.RemainingToday < 0 {
		result.RemainingToday = 0
	}

	switch {
	case amount < limits.MinWithdrawal:
		result.Reason = "amount is below the minimum withdrawal"
	case amount > w.AvailableBalance():
		result.Reason = "amount exceeds available balance"
	case w.TodayWithdrawal+amount > limits.MaxWithdrawalPerDay:
		result.Reason = "daily withdrawal limit exceeded"
	default:
		result.Eligible = true
	}
	return result
}

func validCategory(category string) bool {
	for _, c := range IncomeCategories {
		if c == category {
			return true
		}
	}
	return false
}
