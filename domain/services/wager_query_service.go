package services

import (
	"context"
	"fmt"

	"jopacoin/domain/entities"
	"jopacoin/domain/interfaces"
)

type wagerQueryService struct {
	wagerRepo interfaces.WagerRepository
}

// NewWagerQueryService creates a read-only wager query service
func NewWagerQueryService(wagerRepo interfaces.WagerRepository) interfaces.WagerQueryService {
	return &wagerQueryService{wagerRepo: wagerRepo}
}

func (s *wagerQueryService) GetPotTotals(ctx context.Context, window entities.BetWindow) (entities.PotTotals, error) {
	totals, err := s.wagerRepo.GetPotTotals(ctx, window)
	if err != nil {
		return entities.PotTotals{}, fmt.Errorf("failed to get pot totals: %w", err)
	}
	return totals, nil
}

func (s *wagerQueryService) GetPendingWagers(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error) {
	wagers, err := s.wagerRepo.GetPendingByWindow(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wagers: %w", err)
	}
	return wagers, nil
}

func (s *wagerQueryService) GetPlayerPendingWagers(ctx context.Context, window entities.BetWindow, discordID int64) ([]*entities.Wager, error) {
	wagers, err := s.wagerRepo.GetPlayerPendingByWindow(ctx, window, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player wagers: %w", err)
	}
	return wagers, nil
}
