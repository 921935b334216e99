package http

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"provest/internal/delivery/http/dto"
	"provest/internal/middleware"
	"provest/internal/usecase"
)

// PlanHandler serves the plan catalog and purchases.
type PlanHandler struct {
	plans *usecase.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(plans *usecase.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// ListPlans returns the visible plan catalog
// GET /api/plans
func (h *PlanHandler) ListPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plans, err := h.plans.ListPlans(ctx, false)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load plans", err)
	}

	return SuccessResponse(c, plans)
}

// GetPlan returns one plan by ID
// GET /api/plans/:id
func (h *PlanHandler) GetPlan(c echo.Context) error {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid plan ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.plans.GetPlan(ctx, planID)
	if err != nil {
		return DomainErrorResponse(c, err, "Plan", "Failed to load plan")
	}

	return SuccessResponse(c, plan)
}

// Purchase buys a plan with wallet funds and triggers commission
// distribution up the sponsor chain
// POST /api/user/plans/purchase
func (h *PlanHandler) Purchase(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return BadRequestResponse(c, "Invalid plan ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	txn, err := h.plans.Purchase(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, usecase.ErrPlanNotPurchasable) {
			return BadRequestResponse(c, "Plan is not available for purchase")
		}
		return DomainErrorResponse(c, err, "Plan", "Failed to purchase plan")
	}

	return SuccessMessageResponse(c, "Plan purchased", txn)
}
