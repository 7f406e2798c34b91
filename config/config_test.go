package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(3), cfg.StartingBalance)
	assert.Equal(t, int64(500), cfg.MaxDebt)
	assert.Equal(t, []int64{2, 3, 5}, cfg.LeverageTiers)
	assert.Equal(t, 1.0, cfg.HousePayoutMultiplier)
	assert.Equal(t, "pool", cfg.DefaultBettingMode)
	assert.Equal(t, 900, cfg.BetLockSeconds)
	assert.Equal(t, "nats://nats:4222", cfg.NATSServers)
	assert.Equal(t, 0.05, cfg.AutoBlindPercentage)
	assert.Equal(t, int64(10), cfg.BombPotAnte)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("MAX_DEBT", "250")
	t.Setenv("LEVERAGE_TIERS", "2,10")
	t.Setenv("HOUSE_PAYOUT_MULTIPLIER", "0.5")
	t.Setenv("DEFAULT_BETTING_MODE", "house")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(250), cfg.MaxDebt)
	assert.Equal(t, []int64{2, 10}, cfg.LeverageTiers)
	assert.Equal(t, 0.5, cfg.HousePayoutMultiplier)
	assert.Equal(t, "house", cfg.DefaultBettingMode)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url outside test", map[string]string{"ENVIRONMENT": "production"}},
		{"negative max debt", map[string]string{"ENVIRONMENT": "test", "MAX_DEBT": "-1"}},
		{"leverage tier of one", map[string]string{"ENVIRONMENT": "test", "LEVERAGE_TIERS": "1,2"}},
		{"unknown betting mode", map[string]string{"ENVIRONMENT": "test", "DEFAULT_BETTING_MODE": "exchange"}},
		{"zero bet lock", map[string]string{"ENVIRONMENT": "test", "BET_LOCK_SECONDS": "0"}},
		{"negative house multiplier", map[string]string{"ENVIRONMENT": "test", "HOUSE_PAYOUT_MULTIPLIER": "-1"}},
		{"oversized house multiplier", map[string]string{"ENVIRONMENT": "test", "HOUSE_PAYOUT_MULTIPLIER": "1000"}},
		{"nan house multiplier", map[string]string{"ENVIRONMENT": "test", "HOUSE_PAYOUT_MULTIPLIER": "NaN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load()
			assert.Error(t, err)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@localhost:5432", DatabaseName: "jopacoin"}
	assert.Equal(t, "postgres://u:p@localhost:5432/jopacoin?sslmode=disable", cfg.GetDatabaseURL())
}

func TestSetTestConfig(t *testing.T) {
	defer ResetConfig()

	testCfg := NewTestConfig()
	testCfg.MaxDebt = 42
	SetTestConfig(testCfg)

	assert.Equal(t, int64(42), Get().MaxDebt)
}

func TestParseGuildOverrides(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		data := []byte(`
guilds:
  - guild_id: 111
    betting_mode: house
    house_multiplier: 0.8
    max_debt: 200
    leverage_tiers: [2, 3]
  - guild_id: 222
    bet_lock_seconds: 300
`)
		overrides, err := ParseGuildOverrides(data)
		require.NoError(t, err)
		require.Len(t, overrides, 2)

		assert.Equal(t, int64(111), overrides[0].GuildID)
		require.NotNil(t, overrides[0].BettingMode)
		assert.Equal(t, "house", *overrides[0].BettingMode)
		require.NotNil(t, overrides[0].HouseMultiplier)
		assert.Equal(t, 0.8, *overrides[0].HouseMultiplier)
		assert.Equal(t, []int64{2, 3}, overrides[0].LeverageTiers)

		assert.Nil(t, overrides[1].BettingMode)
		require.NotNil(t, overrides[1].BetLockSeconds)
		assert.Equal(t, 300, *overrides[1].BetLockSeconds)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		bad := map[string]string{
			"missing guild":  "guilds:\n  - betting_mode: pool\n",
			"duplicate":      "guilds:\n  - guild_id: 1\n  - guild_id: 1\n",
			"bad mode":       "guilds:\n  - guild_id: 1\n    betting_mode: exchange\n",
			"bad tier":       "guilds:\n  - guild_id: 1\n    leverage_tiers: [1]\n",
			"negative debt":  "guilds:\n  - guild_id: 1\n    max_debt: -5\n",
			"bad multiplier": "guilds:\n  - guild_id: 1\n    house_multiplier: 500\n",
			"malformed yaml": "guilds: [",
		}
		for name, doc := range bad {
			_, err := ParseGuildOverrides([]byte(doc))
			assert.Error(t, err, name)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		overrides, err := LoadGuildOverrides("")
		require.NoError(t, err)
		assert.Nil(t, overrides)
	})
}
