package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform member inside the sponsor hierarchy. SponsorID
// points at the referring user; the relation forms a forest and must never
// contain a cycle.
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	PasswordHash        string     `json:"-"` // Never expose password hash in JSON
	Role                string     `json:"role"`
	ReferralCode        string     `json:"referral_code"`
	SponsorID           *uuid.UUID `json:"sponsor_id,omitempty"`
	Level               int        `json:"level"`
	DirectReferralCount int        `json:"direct_referral_count"`
	TotalTeamSize       int        `json:"total_team_size"`
	CurrentPlanID       *uuid.UUID `json:"current_plan_id,omitempty"`
	TotalEarnings       float64    `json:"total_earnings"`
	IsActive            bool       `json:"is_active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// UserRole constants
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)
