package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"provest/internal/domain"
)

// SettingsRepositoryImpl stores admin configuration as typed key/value rows.
type SettingsRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *pgxpool.Pool) domain.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

// Get retrieves a setting by key
func (r *SettingsRepositoryImpl) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var s domain.Setting
	err := r.db.QueryRow(ctx, `
		SELECT key, category, value, value_type, COALESCE(description, ''), updated_at
		FROM settings
		WHERE key = $1
	`, key).Scan(&s.Key, &s.Category, &s.Value, &s.ValueType, &s.Description, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return &s, nil
}

// Set validates and upserts a setting
func (r *SettingsRepositoryImpl) Set(ctx context.Context, setting *domain.Setting) error {
	if err := setting.Validate(); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO settings (key, category, value, value_type, description, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			category = EXCLUDED.category,
			value = EXCLUDED.value,
			value_type = EXCLUDED.value_type,
			description = EXCLUDED.description,
			updated_at = CURRENT_TIMESTAMP
	`, setting.Key, setting.Category, setting.Value, setting.ValueType, setting.Description)

	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", setting.Key, err)
	}

	return nil
}

// GetAll retrieves all settings
func (r *SettingsRepositoryImpl) GetAll(ctx context.Context) ([]*domain.Setting, error) {
	rows, err := r.db.Query(ctx, `
		SELECT key, category, value, value_type, COALESCE(description, ''), updated_at
		FROM settings
		ORDER BY category, key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}
	defer rows.Close()

	var settings []*domain.Setting
	for rows.Next() {
		var s domain.Setting
		if err := rows.Scan(&s.Key, &s.Category, &s.Value, &s.ValueType, &s.Description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, &s)
	}

	return settings, nil
}

// WithdrawalLimits assembles the typed limits consulted by the ledger.
// Missing keys fall back to the defaults.
func (r *SettingsRepositoryImpl) WithdrawalLimits(ctx context.Context) (domain.WithdrawalLimits, error) {
	limits := domain.DefaultWithdrawalLimits()

	rows, err := r.db.Query(ctx, `
		SELECT key, value FROM settings WHERE key = ANY($1)
	`, []string{
		domain.SettingMinWithdrawal,
		domain.SettingMaxWithdrawalPerDay,
		domain.SettingProcessingFee,
		domain.SettingMaxCommissionLevels,
	})
	if err != nil {
		return limits, fmt.Errorf("failed to load withdrawal limits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return limits, err
		}
		s := domain.Setting{Key: key, Value: value, ValueType: domain.ValueNumber}
		switch key {
		case domain.SettingMinWithdrawal:
			limits.MinWithdrawal = s.Number(limits.MinWithdrawal)
		case domain.SettingMaxWithdrawalPerDay:
			limits.MaxWithdrawalPerDay = s.Number(limits.MaxWithdrawalPerDay)
		case domain.SettingProcessingFee:
			limits.ProcessingFeePercent = s.Number(limits.ProcessingFeePercent)
		case domain.SettingMaxCommissionLevels:
			limits.MaxCommissionLevels = int(s.Number(float64(limits.MaxCommissionLevels)))
		}
	}

	return limits, nil
}
