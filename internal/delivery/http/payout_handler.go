package http

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"provest/internal/delivery/http/dto"
	"provest/internal/domain"
	"provest/internal/middleware"
	"provest/internal/usecase"
)

// PayoutHandler serves the user-facing side of the payout lifecycle:
// requesting, cancelling and listing one's own withdrawals.
type PayoutHandler struct {
	payouts *usecase.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(payouts *usecase.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// Request creates a withdrawal request, reserving its amount
// POST /api/user/payouts
func (h *PayoutHandler) Request(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.PayoutRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Amount <= 0 {
		return BadRequestResponse(c, "Amount must be positive")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	payout, err := h.payouts.Request(ctx, userID, req.Amount, req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		return DomainErrorResponse(c, err, "Wallet", "Failed to create payout request")
	}

	return CreatedResponse(c, payout)
}

// Cancel withdraws a still-pending payout request and releases its
// reservation
// POST /api/user/payouts/:id/cancel
func (h *PayoutHandler) Cancel(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid payout ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.payouts.Cancel(ctx, userID, payoutID); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return BadRequestResponse(c, "Payout can no longer be cancelled")
		}
		return DomainErrorResponse(c, err, "Payout", "Failed to cancel payout")
	}

	return SuccessMessageResponse(c, "Payout cancelled", nil)
}

// List returns the user's payout history, newest first
// GET /api/user/payouts?limit=
func (h *PayoutHandler) List(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payouts, err := h.payouts.ListUserPayouts(ctx, userID, parseIntParam(c.QueryParam("limit"), 50))
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load payouts", err)
	}

	return SuccessResponse(c, payouts)
}

// Get returns one payout, owner or admin only
// GET /api/user/payouts/:id
func (h *PayoutHandler) Get(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid payout ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payout, err := h.payouts.GetPayout(ctx, userID, middleware.IsAdmin(c), payoutID)
	if err != nil {
		return DomainErrorResponse(c, err, "Payout", "Failed to load payout")
	}

	return SuccessResponse(c, payout)
}
