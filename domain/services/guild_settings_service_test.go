package services

import (
	"context"
	"math"
	"testing"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDefaultGuildSettings(t *testing.T) {
	NewTestMocks(t)

	defaults := DefaultGuildSettings()
	assert.Equal(t, entities.BettingModePool, defaults.BettingMode)
	assert.Equal(t, 1.0, defaults.HouseMultiplier)
	assert.Equal(t, int64(500), defaults.MaxDebt)
	assert.Equal(t, []int64{2, 3, 5}, defaults.LeverageTiers)
	assert.Equal(t, 900, defaults.BetLockSeconds)
}

func TestGuildSettingsService_GetOrCreateSettings(t *testing.T) {
	m := NewTestMocks(t)
	svc := NewGuildSettingsService(m.GuildSettingsRepo)

	m.GuildSettingsRepo.On("GetOrCreate", mock.Anything, mock.MatchedBy(func(d *entities.GuildSettings) bool {
		return d.BettingMode == entities.BettingModePool && d.MaxDebt == 500
	})).Return(defaultSettings(), nil)

	settings, err := svc.GetOrCreateSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TestGuildID, settings.GuildID)
	m.AssertAllExpectations(t)
}

func TestGuildSettingsService_UpdateSettings(t *testing.T) {
	t.Run("stores valid settings", func(t *testing.T) {
		m := NewTestMocks(t)
		svc := NewGuildSettingsService(m.GuildSettingsRepo)

		settings := defaultSettings()
		settings.BettingMode = entities.BettingModeHouse
		m.GuildSettingsRepo.On("Upsert", mock.Anything, settings).Return(nil)

		require.NoError(t, svc.UpdateSettings(context.Background(), settings))
		m.AssertAllExpectations(t)
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		m := NewTestMocks(t)
		svc := NewGuildSettingsService(m.GuildSettingsRepo)

		settings := defaultSettings()
		settings.BettingMode = "exchange"
		assert.ErrorIs(t, svc.UpdateSettings(context.Background(), settings), common.ErrInvalidBettingMode)
	})

	t.Run("rejects out of range house multiplier", func(t *testing.T) {
		for _, multiplier := range []float64{-0.1, math.NaN(), math.Inf(1), entities.MaxHouseMultiplier * 2} {
			m := NewTestMocks(t)
			svc := NewGuildSettingsService(m.GuildSettingsRepo)

			settings := defaultSettings()
			settings.HouseMultiplier = multiplier
			err := svc.UpdateSettings(context.Background(), settings)
			assert.ErrorIs(t, err, common.ErrInvalidHouseMultiplier, "multiplier %v", multiplier)
			m.GuildSettingsRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		}
	})

	t.Run("rejects leverage tier of one", func(t *testing.T) {
		m := NewTestMocks(t)
		svc := NewGuildSettingsService(m.GuildSettingsRepo)

		settings := defaultSettings()
		settings.LeverageTiers = []int64{1, 2}
		assert.ErrorIs(t, svc.UpdateSettings(context.Background(), settings), common.ErrInvalidLeverage)
		m.GuildSettingsRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}
