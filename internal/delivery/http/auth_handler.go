package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"provest/internal/delivery/http/dto"
	"provest/internal/domain"
	"provest/internal/middleware"
	"provest/internal/usecase"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users     domain.UserRepository
	referrals *usecase.ReferralService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users domain.UserRepository, referrals *usecase.ReferralService) *AuthHandler {
	return &AuthHandler{
		users:     users,
		referrals: referrals,
	}
}

// Register handles user registration, optionally under a sponsor
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Email == "" || req.Name == "" || len(req.Password) < 6 {
		return BadRequestResponse(c, "Email, name and a password of at least 6 characters are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.users.GetByEmail(ctx, req.Email); err == nil {
		return BadRequestResponse(c, "Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	user, err := h.referrals.Register(ctx, usecase.RegisterInput{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		SponsorCode:  req.SponsorCode,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrSponsorNotFound) {
			return BadRequestResponse(c, "Unknown sponsor code")
		}
		return InternalServerErrorResponse(c, "Failed to register user", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}
	setTokenCookie(c, token)

	return CreatedResponse(c, dto.LoginResponse{
		Token: token,
		User:  dto.NewUserOutput(user),
	})
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}
	if !user.IsActive {
		return ForbiddenResponse(c, "Account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}
	setTokenCookie(c, token)

	return SuccessResponse(c, dto.LoginResponse{
		Token: token,
		User:  dto.NewUserOutput(user),
	})
}

// Logout handles user logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	}
	c.SetCookie(cookie)

	return SuccessMessageResponse(c, "Logged out", nil)
}

// Me returns the authenticated user's profile
// GET /api/user/me
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return NotFoundResponse(c, "User not found")
	}

	return SuccessResponse(c, dto.NewUserOutput(user))
}

func setTokenCookie(c echo.Context, token string) {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400,
	}
	c.SetCookie(cookie)
}
