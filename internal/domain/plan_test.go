package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanValidateLevelSequence(t *testing.T) {
	base := func() *Plan {
		return &Plan{Name: "Starter", Amount: 100, ROIFrequency: FrequencyDaily}
	}

	t.Run("contiguous schedule passes", func(t *testing.T) {
		p := base()
		p.LevelCommissions = []LevelCommission{{Level: 1, Percentage: 10}, {Level: 2, Percentage: 5}, {Level: 3, Percentage: 2}}
		assert.NoError(t, p.Validate())
	})

	t.Run("unsorted schedule is normalized", func(t *testing.T) {
		p := base()
		p.LevelCommissions = []LevelCommission{{Level: 2, Percentage: 5}, {Level: 1, Percentage: 10}}
		require.NoError(t, p.Validate())
		assert.Equal(t, 1, p.LevelCommissions[0].Level)
		assert.Equal(t, 2, p.LevelCommissions[1].Level)
	})

	t.Run("gap is rejected", func(t *testing.T) {
		p := base()
		p.LevelCommissions = []LevelCommission{{Level: 1, Percentage: 10}, {Level: 3, Percentage: 2}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidLevelSequence)
	})

	t.Run("duplicate level is rejected", func(t *testing.T) {
		p := base()
		p.LevelCommissions = []LevelCommission{{Level: 1, Percentage: 10}, {Level: 1, Percentage: 5}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidLevelSequence)
	})

	t.Run("schedule not starting at one is rejected", func(t *testing.T) {
		p := base()
		p.LevelCommissions = []LevelCommission{{Level: 2, Percentage: 5}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidLevelSequence)
	})

	t.Run("empty schedule is allowed", func(t *testing.T) {
		p := base()
		assert.NoError(t, p.Validate())
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		p := base()
		p.Amount = 0
		assert.ErrorIs(t, p.Validate(), ErrInvalidAmount)
	})

	t.Run("unknown roi frequency is rejected", func(t *testing.T) {
		p := base()
		p.ROIFrequency = "hourly"
		assert.Error(t, p.Validate())
	})
}

func TestPlanIsPurchasable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(24 * time.Hour)

	p := &Plan{
		Amount:    100,
		IsActive:  true,
		IsVisible: true,
		ValidFrom: now.Add(-time.Hour),
	}

	assert.True(t, p.IsPurchasable(now))

	p.ValidUntil = &until
	assert.True(t, p.IsPurchasable(now))
	assert.False(t, p.IsPurchasable(until.Add(time.Minute)))

	assert.False(t, p.IsPurchasable(p.ValidFrom.Add(-time.Minute)))

	p.IsActive = false
	assert.False(t, p.IsPurchasable(now))
	p.IsActive = true
	p.IsVisible = false
	assert.False(t, p.IsPurchasable(now))
}

func TestPlanCommissionForLevel(t *testing.T) {
	p := &Plan{
		LevelCommissions: []LevelCommission{{Level: 1, Percentage: 10}, {Level: 2, Percentage: 5}},
	}

	assert.Equal(t, 10.0, p.CommissionForLevel(1))
	assert.Equal(t, 5.0, p.CommissionForLevel(2))
	// Beyond the configured depth means no commission, not an error.
	assert.Equal(t, 0.0, p.CommissionForLevel(3))
	assert.Equal(t, 0.0, p.CommissionForLevel(0))
}

func TestPlanROIAmounts(t *testing.T) {
	p := &Plan{
		Amount:          1000,
		ROIPercentage:   30,
		ROIDurationDays: 30,
		ROIFrequency:    FrequencyDaily,
	}

	assert.InDelta(t, 300.0, p.TotalROIAmount(), 1e-9)
	assert.InDelta(t, 10.0, p.DailyROIAmount(), 1e-9)

	p.ROIFrequency = FrequencyWeekly
	p.ROIDurationDays = 10 // ten weeks
	assert.InDelta(t, 300.0/70.0, p.DailyROIAmount(), 1e-9)

	p.ROIFrequency = FrequencyMonthly
	p.ROIDurationDays = 3 // three months
	assert.InDelta(t, 300.0/90.0, p.DailyROIAmount(), 1e-9)

	p.ROIDurationDays = 0
	assert.Equal(t, 0.0, p.DailyROIAmount())
}
