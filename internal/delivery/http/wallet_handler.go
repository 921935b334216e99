package http

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"provest/internal/domain"
	"provest/internal/middleware"
	"provest/internal/usecase"
	"provest/internal/utils"
)

// WalletHandler serves wallet balances, the transaction history and
// withdrawal eligibility checks.
type WalletHandler struct {
	ledger *usecase.LedgerService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(ledger *usecase.LedgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// GetWallet returns the authenticated user's wallet
// GET /api/user/wallet
func (h *WalletHandler) GetWallet(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	wallet, err := h.ledger.GetWallet(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err, "Wallet", "Failed to load wallet")
	}

	return SuccessResponse(c, wallet)
}

// GetTransactions returns the user's transaction history, newest first
// GET /api/user/transactions?type=&status=&from=&to=&limit=&offset=
func (h *WalletHandler) GetTransactions(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	filter := domain.TransactionFilter{
		Type:   c.QueryParam("type"),
		Status: c.QueryParam("status"),
		Limit:  parseIntParam(c.QueryParam("limit"), 50),
		Offset: parseIntParam(c.QueryParam("offset"), 0),
	}
	if from, ok := parseTimeParam(c.QueryParam("from")); ok {
		filter.From = &from
	}
	if to, ok := parseTimeParam(c.QueryParam("to")); ok {
		filter.To = &to
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txns, err := h.ledger.GetTransactions(ctx, userID, filter)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load transactions", err)
	}

	return SuccessResponse(c, txns)
}

// CheckEligibility evaluates whether the user could withdraw the given
// amount right now, without reserving anything
// GET /api/user/wallet/eligibility?amount=100
func (h *WalletHandler) CheckEligibility(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	amount, err := strconv.ParseFloat(c.QueryParam("amount"), 64)
	if err != nil || amount <= 0 {
		return BadRequestResponse(c, "A positive amount query parameter is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	eligibility, err := h.ledger.CanWithdraw(ctx, userID, amount)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to evaluate eligibility", err)
	}

	return SuccessResponse(c, eligibility)
}

// GetStatement returns per-type sums and counts over a date window
// GET /api/user/wallet/statement?from=&to=
func (h *WalletHandler) GetStatement(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	now := time.Now()
	from, ok := parseTimeParam(c.QueryParam("from"))
	if !ok {
		from = utils.StartOfDay(now.AddDate(0, -1, 0))
	}
	to, ok := parseTimeParam(c.QueryParam("to"))
	if !ok {
		to = utils.EndOfDay(now)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.ledger.GetStatement(ctx, userID, from, to)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to build statement", err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"from":       from,
		"to":         to,
		"aggregates": rows,
	})
}

func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func parseTimeParam(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
