package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"provest/internal/domain"
)

// PlanRepositoryImpl implements the PlanRepository interface. The level
// schedule is stored as a JSONB column.
type PlanRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *pgxpool.Pool) domain.PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

const planColumns = `
	id, name, description, amount, roi_percentage, roi_duration_days,
	roi_frequency, level_commissions, direct_referral_bonus, is_active,
	is_visible, valid_from, valid_until, total_purchases, total_revenue,
	created_at, updated_at
`

// Create saves a new plan. The plan is validated first; a broken level
// sequence never reaches storage.
func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *domain.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	levels, err := json.Marshal(plan.LevelCommissions)
	if err != nil {
		return fmt.Errorf("failed to encode level commissions: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		plan.ID,
		plan.Name,
		plan.Description,
		plan.Amount,
		plan.ROIPercentage,
		plan.ROIDurationDays,
		plan.ROIFrequency,
		levels,
		plan.DirectReferralBonus,
		plan.IsActive,
		plan.IsVisible,
		plan.ValidFrom,
		plan.ValidUntil,
		plan.TotalPurchases,
		plan.TotalRevenue,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// Update saves plan changes, re-validating the level schedule.
func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *domain.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	levels, err := json.Marshal(plan.LevelCommissions)
	if err != nil {
		return fmt.Errorf("failed to encode level commissions: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE plans
		SET name = $1, description = $2, amount = $3, roi_percentage = $4,
		    roi_duration_days = $5, roi_frequency = $6, level_commissions = $7,
		    direct_referral_bonus = $8, is_active = $9, is_visible = $10,
		    valid_from = $11, valid_until = $12, updated_at = NOW()
		WHERE id = $13
	`,
		plan.Name,
		plan.Description,
		plan.Amount,
		plan.ROIPercentage,
		plan.ROIDurationDays,
		plan.ROIFrequency,
		levels,
		plan.DirectReferralBonus,
		plan.IsActive,
		plan.IsVisible,
		plan.ValidFrom,
		plan.ValidUntil,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	p := &domain.Plan{}
	var levels []byte
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Amount,
		&p.ROIPercentage,
		&p.ROIDurationDays,
		&p.ROIFrequency,
		&levels,
		&p.DirectReferralBonus,
		&p.IsActive,
		&p.IsVisible,
		&p.ValidFrom,
		&p.ValidUntil,
		&p.TotalPurchases,
		&p.TotalRevenue,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	if len(levels) > 0 {
		if err := json.Unmarshal(levels, &p.LevelCommissions); err != nil {
			return nil, fmt.Errorf("failed to decode level commissions: %w", err)
		}
	}
	return p, nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

// ListVisible retrieves plans shown to users
func (r *PlanRepositoryImpl) ListVisible(ctx context.Context) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_visible = TRUE ORDER BY amount ASC`
	return r.list(ctx, query)
}

// ListAll retrieves every plan, for the admin surface
func (r *PlanRepositoryImpl) ListAll(ctx context.Context) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY created_at ASC`
	return r.list(ctx, query)
}

func (r *PlanRepositoryImpl) list(ctx context.Context, query string) ([]*domain.Plan, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// IncrementPurchase bumps the purchase counter and revenue accumulator. The
// amount may differ from the plan's base price for promotional purchases.
func (r *PlanRepositoryImpl) IncrementPurchase(ctx context.Context, id uuid.UUID, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE plans
		SET total_purchases = total_purchases + 1,
		    total_revenue = total_revenue + $1,
		    updated_at = NOW()
		WHERE id = $2
	`, amount, id)
	if err != nil {
		return fmt.Errorf("failed to increment plan purchase: %w", err)
	}

	return nil
}
