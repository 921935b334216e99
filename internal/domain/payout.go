package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Payout statuses.
const (
	PayoutPending    = "pending"
	PayoutApproved   = "approved"
	PayoutRejected   = "rejected"
	PayoutProcessing = "processing"
	PayoutCompleted  = "completed"
	PayoutFailed     = "failed"
	PayoutCancelled  = "cancelled"
)

// Payment methods.
const (
	MethodBank   = "bank"
	MethodCrypto = "crypto"
	MethodUPI    = "upi"
	MethodPaypal = "paypal"
)

// payoutTransitions encodes the lifecycle state machine:
//
//	pending    -> approved | rejected | cancelled
//	approved   -> processing
//	processing -> completed | failed
//	failed     -> processing   (operator retry only, never automatic)
//
// completed, rejected and cancelled are terminal.
var payoutTransitions = map[string][]string{
	PayoutPending:    {PayoutApproved, PayoutRejected, PayoutCancelled},
	PayoutApproved:   {PayoutProcessing},
	PayoutProcessing: {PayoutCompleted, PayoutFailed},
	PayoutFailed:     {PayoutProcessing},
}

// Payout is a user-initiated withdrawal request. Creating one reserves the
// amount in the wallet (pendingWithdrawal); the reservation is released when
// the payout reaches a terminal state or fails, and re-taken on retry.
type Payout struct {
	ID             uuid.UUID         `json:"id"`
	PayoutRef      string            `json:"payout_ref"`
	UserID         uuid.UUID         `json:"user_id"`
	Amount         float64           `json:"amount"`
	ProcessingFee  float64           `json:"processing_fee"`
	NetAmount      float64           `json:"net_amount"`
	Status         string            `json:"status"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentDetails map[string]string `json:"payment_details,omitempty"`
	TransactionID  *uuid.UUID        `json:"transaction_id,omitempty"`
	RetryCount     int               `json:"retry_count"`
	Priority       int               `json:"priority"`
	RejectReason   string            `json:"reject_reason,omitempty"`
	ProcessedBy    *uuid.UUID        `json:"processed_by,omitempty"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	LastRetryAt    *time.Time        `json:"last_retry_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewPayout builds a payout request. The processing fee is a percentage of
// the requested amount; the user receives NetAmount.
func NewPayout(userID uuid.UUID, amount, feePercent float64, method string, details map[string]string) (*Payout, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	switch method {
	case MethodBank, MethodCrypto, MethodUPI, MethodPaypal:
	default:
		return nil, fmt.Errorf("invalid payment method: %s", method)
	}
	fee := amount * feePercent / 100
	return &Payout{
		ID:             uuid.New(),
		PayoutRef:      NewPayoutRef(),
		UserID:         userID,
		Amount:         amount,
		ProcessingFee:  fee,
		NetAmount:      amount - fee,
		Status:         PayoutPending,
		PaymentMethod:  method,
		PaymentDetails: details,
		CreatedAt:      time.Now(),
	}, nil
}

// NewPayoutRef generates a human-decodable payout reference.
func NewPayoutRef() string {
	return fmt.Sprintf("WD%d%05d", time.Now().UnixMilli(), rand.Intn(100000))
}

// CanTransition reports whether moving to the target status is a legal move.
func (p *Payout) CanTransition(to string) bool {
	for _, allowed := range payoutTransitions[p.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the payout to the target status or fails with
// ErrInvalidTransition. Timestamp side effects are applied here; reservation
// side effects belong to the payout service.
func (p *Payout) Transition(to string, by *uuid.UUID) error {
	if !p.CanTransition(to) {
		return ErrInvalidTransition
	}
	now := time.Now()
	switch to {
	case PayoutApproved, PayoutRejected:
		p.ProcessedAt = &now
		p.ProcessedBy = by
	case PayoutProcessing:
		if p.Status == PayoutFailed {
			p.LastRetryAt = &now
		}
	case PayoutFailed:
		p.RetryCount++
		p.LastRetryAt = &now
	case PayoutCompleted:
		p.CompletedAt = &now
	}
	p.Status = to
	return nil
}

// IsOpen reports whether the payout still holds a wallet reservation.
// Failed payouts have had their reservation released and re-take it on
// retry.
func (p *Payout) IsOpen() bool {
	return p.Status == PayoutPending || p.Status == PayoutApproved || p.Status == PayoutProcessing
}
