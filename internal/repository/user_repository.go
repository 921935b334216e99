package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"provest/internal/domain"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

const userColumns = `
	id, email, name, password_hash, role, referral_code, sponsor_id, level,
	direct_referral_count, total_team_size, current_plan_id, total_earnings,
	is_active, created_at, updated_at
`

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, email, name, password_hash, role, referral_code, sponsor_id,
			level, current_plan_id, total_earnings, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.ReferralCode,
		user.SponsorID,
		user.Level,
		user.CurrentPlanID,
		user.TotalEarnings,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.ReferralCode,
		&user.SponsorID,
		&user.Level,
		&user.DirectReferralCount,
		&user.TotalTeamSize,
		&user.CurrentPlanID,
		&user.TotalEarnings,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// GetByReferralCode retrieves a user by their referral code
func (r *UserRepositoryImpl) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`
	return scanUser(r.db.QueryRow(ctx, query, code))
}

// IncrementTeamCounters bumps the team size (and, for the immediate sponsor,
// the direct referral count) as an atomic increment.
func (r *UserRepositoryImpl) IncrementTeamCounters(ctx context.Context, userID uuid.UUID, direct bool) error {
	query := `
		UPDATE users
		SET total_team_size = total_team_size + 1, updated_at = NOW()
		WHERE id = $1
	`
	if direct {
		query = `
			UPDATE users
			SET total_team_size = total_team_size + 1,
			    direct_referral_count = direct_referral_count + 1,
			    updated_at = NOW()
			WHERE id = $1
		`
	}

	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to increment team counters: %w", err)
	}

	return nil
}

// AddEarnings adds to the user's lifetime earnings counter
func (r *UserRepositoryImpl) AddEarnings(ctx context.Context, userID uuid.UUID, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET total_earnings = total_earnings + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add earnings: %w", err)
	}

	return nil
}

// SetCurrentPlan records the plan the user currently holds (nil clears it)
func (r *UserRepositoryImpl) SetCurrentPlan(ctx context.Context, userID uuid.UUID, planID *uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET current_plan_id = $1, updated_at = NOW()
		WHERE id = $2
	`, planID, userID)
	if err != nil {
		return fmt.Errorf("failed to set current plan: %w", err)
	}

	return nil
}

// GetActivePlanHolders retrieves users currently holding a plan
func (r *UserRepositoryImpl) GetActivePlanHolders(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE current_plan_id IS NOT NULL AND is_active = TRUE ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan holders: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan holders: %w", err)
	}

	return users, nil
}

// GetAll retrieves all users
func (r *UserRepositoryImpl) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
