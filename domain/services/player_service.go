package services

import (
	"context"
	"fmt"

	"jopacoin/config"
	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"
	"jopacoin/domain/utils"

	log "github.com/sirupsen/logrus"
)

type playerService struct {
	playerRepo         interfaces.PlayerRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewPlayerService creates a new player service
func NewPlayerService(playerRepo interfaces.PlayerRepository, balanceHistoryRepo interfaces.BalanceHistoryRepository, eventPublisher interfaces.EventPublisher) interfaces.PlayerService {
	return &playerService{
		playerRepo:         playerRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// RegisterPlayer creates an account at the configured starting balance
func (s *playerService) RegisterPlayer(ctx context.Context, discordID int64, username string) (*entities.Player, error) {
	existing, err := s.playerRepo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	startingBalance := config.Get().StartingBalance
	player, err := s.playerRepo.Create(ctx, discordID, username, startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	history := &entities.BalanceHistory{
		DiscordID:       discordID,
		GuildID:         player.GuildID,
		BalanceBefore:   0,
		BalanceAfter:    player.Balance,
		ChangeAmount:    player.Balance,
		TransactionType: entities.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"username": username,
		},
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	if err := s.eventPublisher.Publish(events.PlayerRegisteredEvent{
		GuildID:         player.GuildID,
		DiscordID:       discordID,
		Username:        username,
		StartingBalance: player.Balance,
	}); err != nil {
		log.WithError(err).Error("Failed to publish player registered event")
	}

	return player, nil
}

// GetPlayer returns a registered player
func (s *playerService) GetPlayer(ctx context.Context, discordID int64) (*entities.Player, error) {
	player, err := s.playerRepo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, common.Reject(common.ReasonPlayerNotFound, "player %d is not registered", discordID)
	}
	return player, nil
}
