package entities

import (
	"slices"
	"time"
)

// MaxHouseMultiplier bounds the house payout multiplier
const MaxHouseMultiplier = 100.0

// GuildSettings holds a guild's wagering economy parameters
type GuildSettings struct {
	GuildID         int64       `db:"guild_id"`
	BettingMode     BettingMode `db:"betting_mode"`
	HouseMultiplier float64     `db:"house_multiplier"`
	MaxDebt         int64       `db:"max_debt"`
	LeverageTiers   []int64     `db:"leverage_tiers"`
	BetLockSeconds  int         `db:"bet_lock_seconds"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

// AllowsLeverage reports whether leverage may be used in this guild.
// Leverage 1 is always allowed. With no tiers configured any leverage >= 1 is allowed.
func (s *GuildSettings) AllowsLeverage(leverage int64) bool {
	if leverage < 1 {
		return false
	}
	if leverage == 1 || len(s.LeverageTiers) == 0 {
		return true
	}
	return slices.Contains(s.LeverageTiers, leverage)
}

// BetLockDuration is how long betting stays open after a shuffle
func (s *GuildSettings) BetLockDuration() time.Duration {
	return time.Duration(s.BetLockSeconds) * time.Second
}
