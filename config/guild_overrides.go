package config

import (
	"fmt"
	"os"

	"jopacoin/domain/entities"

	"gopkg.in/yaml.v3"
)

// GuildOverride holds per-guild economy settings read from GUILD_SETTINGS_FILE.
// Nil fields fall back to the global defaults.
type GuildOverride struct {
	GuildID         int64    `yaml:"guild_id"`
	BettingMode     *string  `yaml:"betting_mode"`
	HouseMultiplier *float64 `yaml:"house_multiplier"`
	MaxDebt         *int64   `yaml:"max_debt"`
	LeverageTiers   []int64  `yaml:"leverage_tiers"`
	BetLockSeconds  *int     `yaml:"bet_lock_seconds"`
}

type guildOverridesFile struct {
	Guilds []GuildOverride `yaml:"guilds"`
}

// LoadGuildOverrides reads the guild overrides file. An empty path yields no overrides.
func LoadGuildOverrides(path string) ([]GuildOverride, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guild settings file %s: %w", path, err)
	}

	return ParseGuildOverrides(data)
}

// ParseGuildOverrides decodes and validates guild overrides from YAML
func ParseGuildOverrides(data []byte) ([]GuildOverride, error) {
	var file guildOverridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse guild settings: %w", err)
	}

	seen := make(map[int64]bool, len(file.Guilds))
	for _, g := range file.Guilds {
		if g.GuildID == 0 {
			return nil, fmt.Errorf("guild override is missing guild_id")
		}
		if seen[g.GuildID] {
			return nil, fmt.Errorf("duplicate guild override for guild %d", g.GuildID)
		}
		seen[g.GuildID] = true

		if g.BettingMode != nil && *g.BettingMode != "pool" && *g.BettingMode != "house" {
			return nil, fmt.Errorf("guild %d: betting_mode must be pool or house, got %q", g.GuildID, *g.BettingMode)
		}
		if g.HouseMultiplier != nil && !validHouseMultiplier(*g.HouseMultiplier) {
			return nil, fmt.Errorf("guild %d: house_multiplier must be between 0 and %v", g.GuildID, entities.MaxHouseMultiplier)
		}
		if g.MaxDebt != nil && *g.MaxDebt < 0 {
			return nil, fmt.Errorf("guild %d: max_debt must not be negative", g.GuildID)
		}
		for _, tier := range g.LeverageTiers {
			if tier < 2 {
				return nil, fmt.Errorf("guild %d: leverage tiers must be at least 2, got %d", g.GuildID, tier)
			}
		}
		if g.BetLockSeconds != nil && *g.BetLockSeconds <= 0 {
			return nil, fmt.Errorf("guild %d: bet_lock_seconds must be positive", g.GuildID)
		}
	}

	return file.Guilds, nil
}
