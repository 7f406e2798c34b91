package cmd

import (
	"context"
	"fmt"

	"jopacoin/config"
	"jopacoin/database"
	"jopacoin/domain/entities"
	"jopacoin/domain/services"
	"jopacoin/repository"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// SeedGuildSettings writes the configured per-guild overrides in one transaction.
// Guilds that already have settings keep any field the override leaves unset.
func SeedGuildSettings(ctx context.Context, db *database.DB, overrides []config.GuildOverride) error {
	if len(overrides) == 0 {
		return nil
	}

	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, override := range overrides {
			repo := repository.NewGuildSettingsRepositoryWithTx(tx, override.GuildID)
			svc := services.NewGuildSettingsService(repo)

			current, err := svc.GetOrCreateSettings(ctx)
			if err != nil {
				return err
			}

			merged := applyOverride(current, override)
			if err := svc.UpdateSettings(ctx, merged); err != nil {
				return fmt.Errorf("failed to seed settings for guild %d: %w", override.GuildID, err)
			}

			log.WithFields(log.Fields{
				"guild_id":     override.GuildID,
				"betting_mode": merged.BettingMode,
				"max_debt":     merged.MaxDebt,
			}).Info("Seeded guild settings")
		}
		return nil
	})
}

func applyOverride(current *entities.GuildSettings, override config.GuildOverride) *entities.GuildSettings {
	merged := *current
	merged.GuildID = override.GuildID

	if override.BettingMode != nil {
		merged.BettingMode = entities.BettingMode(*override.BettingMode)
	}
	if override.HouseMultiplier != nil {
		merged.HouseMultiplier = *override.HouseMultiplier
	}
	if override.MaxDebt != nil {
		merged.MaxDebt = *override.MaxDebt
	}
	if override.LeverageTiers != nil {
		merged.LeverageTiers = append([]int64(nil), override.LeverageTiers...)
	}
	if override.BetLockSeconds != nil {
		merged.BetLockSeconds = *override.BetLockSeconds
	}
	return &merged
}
