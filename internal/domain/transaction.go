package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Transaction types. Withdrawal and investment amounts are stored as
// positive magnitudes; the type implies direction.
const (
	TxDirectIncome    = "direct_income"
	TxLevelIncome     = "level_income"
	TxROIIncome       = "roi_income"
	TxBonusIncome     = "bonus_income"
	TxWithdrawal      = "withdrawal"
	TxInvestment      = "investment"
	TxPlanPurchase    = "plan_purchase"
	TxReferralBonus   = "referral_bonus"
	TxAdminAdjustment = "admin_adjustment"
)

// Transaction statuses.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
	TxCancelled = "cancelled"
)

// Transaction is a single entry in the monetary event log. Identity fields
// are immutable once created; only status, notes and timestamps move.
type Transaction struct {
	ID            uuid.UUID  `json:"id"`
	TxID          string     `json:"tx_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Type          string     `json:"type"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	Description   string     `json:"description,omitempty"`
	BalanceBefore float64    `json:"balance_before"`
	BalanceAfter  float64    `json:"balance_after"`
	RelatedUserID *uuid.UUID `json:"related_user_id,omitempty"`
	PlanID        *uuid.UUID `json:"plan_id,omitempty"`
	Level         *int       `json:"level,omitempty"`
	ROIPercentage *float64   `json:"roi_percentage,omitempty"`
	ROIDays       *int       `json:"roi_days,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ProcessedBy   *uuid.UUID `json:"processed_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewTransaction creates a transaction record. Status defaults to pending;
// synchronous operations mark it completed before persisting.
func NewTransaction(userID uuid.UUID, txType string, amount float64, description string) (*Transaction, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	return &Transaction{
		ID:          uuid.New(),
		TxID:        NewTransactionRef(),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Status:      TxPending,
		Description: description,
		CreatedAt:   time.Now(),
	}, nil
}

// NewTransactionRef generates a human-decodable transaction reference: a
// millisecond timestamp plus a random suffix.
func NewTransactionRef() string {
	return fmt.Sprintf("TXN%d%05d", time.Now().UnixMilli(), rand.Intn(100000))
}

// IsTerminal reports whether the transaction can no longer change status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TxCompleted || t.Status == TxFailed || t.Status == TxCancelled
}

// Complete marks the transaction completed. Completion is one-way: a
// terminal transaction cannot be completed again, which is what keeps a
// repeated call from double-crediting the paired wallet.
func (t *Transaction) Complete(processedBy *uuid.UUID) error {
	if t.IsTerminal() {
		return ErrInvalidTransition
	}
	now := time.Now()
	t.Status = TxCompleted
	t.CompletedAt = &now
	t.ProcessedBy = processedBy
	return nil
}

// Fail marks the transaction failed and records the reason. Terminal.
func (t *Transaction) Fail(reason string, processedBy *uuid.UUID) error {
	if t.IsTerminal() {
		return ErrInvalidTransition
	}
	t.Status = TxFailed
	t.Notes = reason
	t.ProcessedBy = processedBy
	return nil
}

// Cancel marks a pending transaction cancelled.
func (t *Transaction) Cancel() error {
	if t.Status != TxPending {
		return ErrInvalidTransition
	}
	t.Status = TxCancelled
	return nil
}

// TransactionFilter narrows a per-user transaction listing.
type TransactionFilter struct {
	Type   string
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// TypeAggregate is a grouped sum/count over completed transactions, used by
// dashboards and the ROI distributor.
type TypeAggregate struct {
	Type  string  `json:"type"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}
