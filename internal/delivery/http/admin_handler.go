package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"provest/internal/delivery/http/dto"
	"provest/internal/domain"
	"provest/internal/middleware"
	"provest/internal/service"
	"provest/internal/usecase"
)

// AdminHandler serves the operator surface: the payout queue and its
// transitions, plan management, settings, manual adjustments and the
// on-demand maintenance jobs.
type AdminHandler struct {
	payouts  *usecase.PayoutService
	plans    *usecase.PlanService
	ledger   *usecase.LedgerService
	users    domain.UserRepository
	settings domain.SettingsRepository
	roi      *service.ROIDistributor
	auditor  *service.ReservationAuditor
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	payouts *usecase.PayoutService,
	plans *usecase.PlanService,
	ledger *usecase.LedgerService,
	users domain.UserRepository,
	settings domain.SettingsRepository,
	roi *service.ROIDistributor,
	auditor *service.ReservationAuditor,
) *AdminHandler {
	return &AdminHandler{
		payouts:  payouts,
		plans:    plans,
		ledger:   ledger,
		users:    users,
		settings: settings,
		roi:      roi,
		auditor:  auditor,
	}
}

// ListPayoutQueue returns payouts in a status, oldest first
// GET /api/admin/payouts?status=pending&limit=
func (h *AdminHandler) ListPayoutQueue(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = domain.PayoutPending
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payouts, err := h.payouts.ListQueue(ctx, status, parseIntParam(c.QueryParam("limit"), 100))
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load payout queue", err)
	}

	return SuccessResponse(c, payouts)
}

// payoutAction runs one admin payout transition and maps its errors.
func (h *AdminHandler) payoutAction(c echo.Context, action func(ctx context.Context, adminID, payoutID uuid.UUID) error, done string) error {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid payout ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if err := action(ctx, adminID, payoutID); err != nil {
		return DomainErrorResponse(c, err, "Payout", "Payout transition failed")
	}

	return SuccessMessageResponse(c, done, nil)
}

// ApprovePayout moves a pending payout to approved
// POST /api/admin/payouts/:id/approve
func (h *AdminHandler) ApprovePayout(c echo.Context) error {
	return h.payoutAction(c, h.payouts.Approve, "Payout approved")
}

// RejectPayout refuses a pending payout and releases its reservation
// POST /api/admin/payouts/:id/reject
func (h *AdminHandler) RejectPayout(c echo.Context) error {
	var req dto.RejectRequest
	if err := c.Bind(&req); err != nil || req.Reason == "" {
		return BadRequestResponse(c, "A rejection reason is required")
	}
	return h.payoutAction(c, func(ctx context.Context, adminID, payoutID uuid.UUID) error {
		return h.payouts.Reject(ctx, adminID, payoutID, req.Reason)
	}, "Payout rejected")
}

// ProcessPayout moves an approved payout into processing
// POST /api/admin/payouts/:id/process
func (h *AdminHandler) ProcessPayout(c echo.Context) error {
	return h.payoutAction(c, h.payouts.StartProcessing, "Payout processing")
}

// CompletePayout settles a processing payout exactly once
// POST /api/admin/payouts/:id/complete
func (h *AdminHandler) CompletePayout(c echo.Context) error {
	return h.payoutAction(c, h.payouts.Complete, "Payout completed")
}

// FailPayout marks a processing payout failed and releases its reservation
// POST /api/admin/payouts/:id/fail
func (h *AdminHandler) FailPayout(c echo.Context) error {
	var req dto.FailRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	return h.payoutAction(c, func(ctx context.Context, adminID, payoutID uuid.UUID) error {
		return h.payouts.Fail(ctx, adminID, payoutID, req.Reason)
	}, "Payout failed")
}

// RetryPayout re-reserves and resumes a failed payout
// POST /api/admin/payouts/:id/retry
func (h *AdminHandler) RetryPayout(c echo.Context) error {
	return h.payoutAction(c, h.payouts.Retry, "Payout retrying")
}

// ListAllPlans returns every plan including hidden ones
// GET /api/admin/plans
func (h *AdminHandler) ListAllPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plans, err := h.plans.ListPlans(ctx, true)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load plans", err)
	}

	return SuccessResponse(c, plans)
}

// CreatePlan saves a new plan
// POST /api/admin/plans
func (h *AdminHandler) CreatePlan(c echo.Context) error {
	var req dto.PlanInput
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	plan := &domain.Plan{
		ID:        uuid.New(),
		ValidFrom: time.Now(),
	}
	req.Apply(plan)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.plans.CreatePlan(ctx, plan); err != nil {
		return DomainErrorResponse(c, err, "Plan", "Failed to create plan")
	}

	return CreatedResponse(c, plan)
}

// UpdatePlan saves plan changes
// PUT /api/admin/plans/:id
func (h *AdminHandler) UpdatePlan(c echo.Context) error {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid plan ID")
	}

	var req dto.PlanInput
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.plans.GetPlan(ctx, planID)
	if err != nil {
		return DomainErrorResponse(c, err, "Plan", "Failed to load plan")
	}

	req.Apply(plan)
	if err := h.plans.UpdatePlan(ctx, plan); err != nil {
		return DomainErrorResponse(c, err, "Plan", "Failed to update plan")
	}

	return SuccessResponse(c, plan)
}

// GetSettings returns all platform settings
// GET /api/admin/settings
func (h *AdminHandler) GetSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	settings, err := h.settings.GetAll(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load settings", err)
	}

	return SuccessResponse(c, settings)
}

// UpdateSetting validates and upserts one setting
// PUT /api/admin/settings/:key
func (h *AdminHandler) UpdateSetting(c echo.Context) error {
	var setting domain.Setting
	if err := c.Bind(&setting); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	setting.Key = c.Param("key")

	if err := setting.Validate(); err != nil {
		return BadRequestResponse(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.settings.Set(ctx, &setting); err != nil {
		return InternalServerErrorResponse(c, "Failed to save setting", err)
	}

	return SuccessResponse(c, setting)
}

// AdjustBalance applies a manual credit or deduction to a user's wallet
// POST /api/admin/wallets/adjust
func (h *AdminHandler) AdjustBalance(c echo.Context) error {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.AdjustRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return BadRequestResponse(c, "Invalid user ID")
	}
	if req.Amount == 0 || req.Note == "" {
		return BadRequestResponse(c, "A non-zero amount and a note are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	txn, err := h.ledger.AdminAdjust(ctx, adminID, userID, req.Amount, req.Note)
	if err != nil {
		return DomainErrorResponse(c, err, "Wallet", "Failed to adjust balance")
	}

	return SuccessMessageResponse(c, "Balance adjusted", txn)
}

// ListUsers returns all registered users
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	users, err := h.users.GetAll(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load users", err)
	}

	out := make([]*dto.UserOutput, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewUserOutput(user))
	}
	return SuccessResponse(c, out)
}

// TriggerROIDistribution runs the daily ROI sweep on demand
// POST /api/admin/jobs/roi
func (h *AdminHandler) TriggerROIDistribution(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	if err := h.roi.DistributeDaily(ctx); err != nil {
		return InternalServerErrorResponse(c, "ROI distribution failed", err)
	}

	return SuccessMessageResponse(c, "ROI distribution completed", nil)
}

// TriggerReservationAudit runs the reservation consistency check on demand
// POST /api/admin/jobs/audit
func (h *AdminHandler) TriggerReservationAudit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	mismatches, err := h.auditor.Audit(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Reservation audit failed", err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"mismatches": mismatches,
	})
}
