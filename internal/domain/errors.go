package domain

import "errors"

// Business-rule errors returned by the ledger core. Callers map these to
// user-facing responses; none of them are retryable.
var (
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInvalidCategory       = errors.New("unknown income category")
	ErrInsufficientBalance   = errors.New("insufficient available balance")
	ErrWithdrawalNotEligible = errors.New("withdrawal is not eligible")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInvalidLevelSequence  = errors.New("level commissions must be sequential starting at 1")
	ErrCorruptGraph          = errors.New("sponsor chain contains a cycle")
	ErrNotFound              = errors.New("entity not found")
)

// ErrStorageUnavailable wraps transient persistence failures so callers can
// decide on retry with backoff. The core never retries on its own.
var ErrStorageUnavailable = errors.New("storage unavailable")

// EligibilityError carries the structured eligibility result of a refused
// withdrawal so callers can render limits alongside the refusal.
type EligibilityError struct {
	Result Eligibility
}

func (e *EligibilityError) Error() string {
	return "withdrawal is not eligible: " + e.Result.Reason
}

func (e *EligibilityError) Unwrap() error {
	return ErrWithdrawalNotEligible
}

