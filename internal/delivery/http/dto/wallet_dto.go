package dto

// AdjustRequest is an admin balance adjustment payload. Positive amounts
// credit the bonus category, negative amounts deduct proportionally.
type AdjustRequest struct {
	UserID string  `json:"user_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required"`
	Note   string  `json:"note" validate:"required"`
}

// PayoutRequest represents a withdrawal request payload
type PayoutRequest struct {
	Amount         float64           `json:"amount" validate:"required,gt=0"`
	PaymentMethod  string            `json:"payment_method" validate:"required"`
	PaymentDetails map[string]string `json:"payment_details"`
}

// RejectRequest carries the mandatory rejection reason
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// FailRequest carries the failure reason recorded on a processing payout
type FailRequest struct {
	Reason string `json:"reason"`
}
