package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"provest/internal/domain"
)

const (
	settingsCacheTTL    = 5 * time.Minute
	withdrawalLimitsKey = "settings:withdrawal_limits"
)

// CachedSettingsRepository puts a Redis cache in front of the settings
// table. Withdrawal limits sit on the hot path of every eligibility check;
// plain settings reads fall through uncached. Cache failures degrade to the
// database, never to an error.
type CachedSettingsRepository struct {
	inner  domain.SettingsRepository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewCachedSettingsRepository wraps a SettingsRepository with a Redis cache
func NewCachedSettingsRepository(inner domain.SettingsRepository, rdb *redis.Client, logger *zap.Logger) domain.SettingsRepository {
	return &CachedSettingsRepository{inner: inner, rdb: rdb, logger: logger}
}

// Get retrieves a setting by key
func (c *CachedSettingsRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	return c.inner.Get(ctx, key)
}

// Set upserts a setting and invalidates the cached limits
func (c *CachedSettingsRepository) Set(ctx context.Context, setting *domain.Setting) error {
	if err := c.inner.Set(ctx, setting); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, withdrawalLimitsKey).Err(); err != nil {
		c.logger.Warn("failed to invalidate settings cache", zap.Error(err))
	}
	return nil
}

// GetAll retrieves all settings
func (c *CachedSettingsRepository) GetAll(ctx context.Context) ([]*domain.Setting, error) {
	return c.inner.GetAll(ctx)
}

// WithdrawalLimits returns the cached limits, loading and caching them on a
// miss.
func (c *CachedSettingsRepository) WithdrawalLimits(ctx context.Context) (domain.WithdrawalLimits, error) {
	cached, err := c.rdb.Get(ctx, withdrawalLimitsKey).Bytes()
	if err == nil {
		var limits domain.WithdrawalLimits
		if err := json.Unmarshal(cached, &limits); err == nil {
			return limits, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("settings cache read failed", zap.Error(err))
	}

	limits, err := c.inner.WithdrawalLimits(ctx)
	if err != nil {
		return limits, err
	}

	if encoded, err := json.Marshal(limits); err == nil {
		if err := c.rdb.Set(ctx, withdrawalLimitsKey, encoded, settingsCacheTTL).Err(); err != nil {
			c.logger.Warn("settings cache write failed", zap.Error(err))
		}
	}

	return limits, nil
}
