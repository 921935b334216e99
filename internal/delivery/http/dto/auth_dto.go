package dto

import "provest/internal/domain"

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  *UserOutput `json:"user"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	SponsorCode string `json:"sponsor_code"`
}

// UserOutput represents user details in API responses
type UserOutput struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	Name                string  `json:"name"`
	Role                string  `json:"role"`
	ReferralCode        string  `json:"referral_code"`
	Level               int     `json:"level"`
	DirectReferralCount int     `json:"direct_referral_count"`
	TotalTeamSize       int     `json:"total_team_size"`
	TotalEarnings       float64 `json:"total_earnings"`
	CurrentPlanID       *string `json:"current_plan_id,omitempty"`
}

// NewUserOutput maps a user entity to its API representation
func NewUserOutput(user *domain.User) *UserOutput {
	out := &UserOutput{
		ID:                  user.ID.String(),
		Email:               user.Email,
		Name:                user.Name,
		Role:                user.Role,
		ReferralCode:        user.ReferralCode,
		Level:               user.Level,
		DirectReferralCount: user.DirectReferralCount,
		TotalTeamSize:       user.TotalTeamSize,
		TotalEarnings:       user.TotalEarnings,
	}
	if user.CurrentPlanID != nil {
		planID := user.CurrentPlanID.String()
		out.CurrentPlanID = &planID
	}
	return out
}
