package services

import (
	"context"
	"fmt"

	"jopacoin/config"
	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/interfaces"
)

// guildSettingsService implements the GuildSettingsService interface
type guildSettingsService struct {
	guildSettingsRepo interfaces.GuildSettingsRepository
}

// NewGuildSettingsService creates a new guild settings service
func NewGuildSettingsService(guildSettingsRepo interfaces.GuildSettingsRepository) interfaces.GuildSettingsService {
	return &guildSettingsService{
		guildSettingsRepo: guildSettingsRepo,
	}
}

// DefaultGuildSettings returns the settings a guild starts with
func DefaultGuildSettings() *entities.GuildSettings {
	cfg := config.Get()
	tiers := make([]int64, len(cfg.LeverageTiers))
	copy(tiers, cfg.LeverageTiers)

	return &entities.GuildSettings{
		BettingMode:     entities.BettingMode(cfg.DefaultBettingMode),
		HouseMultiplier: cfg.HousePayoutMultiplier,
		MaxDebt:         cfg.MaxDebt,
		LeverageTiers:   tiers,
		BetLockSeconds:  cfg.BetLockSeconds,
	}
}

// GetOrCreateSettings retrieves guild settings or creates default ones if not found
func (s *guildSettingsService) GetOrCreateSettings(ctx context.Context) (*entities.GuildSettings, error) {
	settings, err := s.guildSettingsRepo.GetOrCreate(ctx, DefaultGuildSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to get or create guild settings: %w", err)
	}

	return settings, nil
}

// UpdateSettings validates and stores a guild's settings
func (s *guildSettingsService) UpdateSettings(ctx context.Context, settings *entities.GuildSettings) error {
	if !settings.BettingMode.IsValid() {
		return common.Reject(common.ReasonInvalidBettingMode, "unknown betting mode %q", settings.BettingMode)
	}
	if err := ValidateHouseMultiplier(settings.HouseMultiplier); err != nil {
		return err
	}
	if settings.MaxDebt < 0 {
		return fmt.Errorf("max debt must not be negative")
	}
	for _, tier := range settings.LeverageTiers {
		if tier < 2 {
			return common.Reject(common.ReasonInvalidLeverage, "leverage tiers must be at least 2, got %d", tier)
		}
	}
	if settings.BetLockSeconds <= 0 {
		return fmt.Errorf("bet lock seconds must be positive")
	}

	if err := s.guildSettingsRepo.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}

	return nil
}
