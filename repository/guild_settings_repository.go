package repository

import (
	"context"
	"fmt"

	"jopacoin/domain/entities"
)

// GuildSettingsRepository implements the GuildSettingsRepository interface
type GuildSettingsRepository struct {
	q       Queryable
	guildID int64
}

// newGuildSettingsRepository creates a new guild settings repository with a transaction and guild scope
func newGuildSettingsRepository(tx Queryable, guildID int64) *GuildSettingsRepository {
	return &GuildSettingsRepository{
		q:       tx,
		guildID: guildID,
	}
}

// NewGuildSettingsRepositoryWithTx creates a guild settings repository for startup seeding
func NewGuildSettingsRepositoryWithTx(tx Queryable, guildID int64) *GuildSettingsRepository {
	return newGuildSettingsRepository(tx, guildID)
}

// GetOrCreate retrieves guild settings, inserting defaults if none exist
func (r *GuildSettingsRepository) GetOrCreate(ctx context.Context, defaults *entities.GuildSettings) (*entities.GuildSettings, error) {
	insertQuery := `
		INSERT INTO guild_settings (guild_id, betting_mode, house_multiplier, max_debt, leverage_tiers, bet_lock_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (guild_id) DO NOTHING
	`

	tiers := defaults.LeverageTiers
	if tiers == nil {
		tiers = []int64{}
	}
	_, err := r.q.Exec(ctx, insertQuery,
		r.guildID,
		defaults.BettingMode,
		defaults.HouseMultiplier,
		defaults.MaxDebt,
		tiers,
		defaults.BetLockSeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild settings for guild %d: %w", r.guildID, err)
	}

	query := `
		SELECT guild_id, betting_mode, house_multiplier, max_debt, leverage_tiers, bet_lock_seconds, created_at, updated_at
		FROM guild_settings
		WHERE guild_id = $1
	`

	var settings entities.GuildSettings
	err = r.q.QueryRow(ctx, query, r.guildID).Scan(
		&settings.GuildID,
		&settings.BettingMode,
		&settings.HouseMultiplier,
		&settings.MaxDebt,
		&settings.LeverageTiers,
		&settings.BetLockSeconds,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings for guild %d: %w", r.guildID, err)
	}

	return &settings, nil
}

// Upsert writes the guild's settings
func (r *GuildSettingsRepository) Upsert(ctx context.Context, settings *entities.GuildSettings) error {
	query := `
		INSERT INTO guild_settings (guild_id, betting_mode, house_multiplier, max_debt, leverage_tiers, bet_lock_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (guild_id) DO UPDATE SET
			betting_mode = EXCLUDED.betting_mode,
			house_multiplier = EXCLUDED.house_multiplier,
			max_debt = EXCLUDED.max_debt,
			leverage_tiers = EXCLUDED.leverage_tiers,
			bet_lock_seconds = EXCLUDED.bet_lock_seconds,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	tiers := settings.LeverageTiers
	if tiers == nil {
		tiers = []int64{}
	}
	err := r.q.QueryRow(ctx, query,
		r.guildID,
		settings.BettingMode,
		settings.HouseMultiplier,
		settings.MaxDebt,
		tiers,
		settings.BetLockSeconds,
	).Scan(&settings.CreatedAt, &settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update guild settings for guild %d: %w", r.guildID, err)
	}

	settings.GuildID = r.guildID
	return nil
}
