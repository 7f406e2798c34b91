package services

import (
	"context"
	"fmt"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"
	"jopacoin/domain/utils"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	playerRepo         interfaces.PlayerRepository
	wagerRepo          interfaces.WagerRepository
	pendingMatchRepo   interfaces.PendingMatchRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	guildSettingsRepo  interfaces.GuildSettingsRepository
	settlementRepo     interfaces.MatchSettlementRepository
	eventPublisher     interfaces.EventPublisher
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	playerRepo interfaces.PlayerRepository,
	wagerRepo interfaces.WagerRepository,
	pendingMatchRepo interfaces.PendingMatchRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	guildSettingsRepo interfaces.GuildSettingsRepository,
	settlementRepo interfaces.MatchSettlementRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		playerRepo:         playerRepo,
		wagerRepo:          wagerRepo,
		pendingMatchRepo:   pendingMatchRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		guildSettingsRepo:  guildSettingsRepo,
		settlementRepo:     settlementRepo,
		eventPublisher:     eventPublisher,
	}
}

// Settle pays out every unsettled wager in the window and tags it with the
// match id. A window with nothing left to settle returns an empty result.
func (s *settlementService) Settle(ctx context.Context, req entities.SettleRequest) (*entities.SettlementResult, error) {
	if !req.WinningTeam.IsValid() {
		return nil, common.Reject(common.ReasonInvalidTeam, "winning team must be radiant or dire, got %q", req.WinningTeam)
	}

	var match *entities.PendingMatch
	if req.Window.IsKeyed() {
		m, err := s.pendingMatchRepo.GetByIDForUpdate(ctx, *req.Window.PendingMatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock pending match: %w", err)
		}
		match = m
	}

	wagers, err := s.wagerRepo.LockPendingByWindow(ctx, req.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending wagers: %w", err)
	}

	result := &entities.SettlementResult{
		MatchID:     req.MatchID,
		WinningTeam: req.WinningTeam,
		Winners:     []entities.SettlementEntry{},
		Losers:      []entities.SettlementEntry{},
	}

	// A replay with another winner is a conflict even once the window is drained
	recorded, err := s.settlementRepo.GetForUpdate(ctx, req.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement record: %w", err)
	}
	if recorded != nil && recorded.WinningTeam != req.WinningTeam {
		return nil, common.Reject(common.ReasonSettlementConflict, "match %d was already settled with %s winning", req.MatchID, recorded.WinningTeam)
	}

	if len(wagers) == 0 {
		if match != nil {
			if err := s.pendingMatchRepo.Delete(ctx, match.ID); err != nil {
				return nil, fmt.Errorf("failed to retire pending match: %w", err)
			}
		}
		return result, nil
	}

	mode, multiplier, err := s.resolveMode(ctx, req, match, recorded)
	if err != nil {
		return nil, err
	}
	result.Mode = mode

	calculator, err := NewPayoutCalculator(mode, multiplier)
	if err != nil {
		return nil, err
	}
	plan := calculator.Calculate(wagers, req.WinningTeam)

	var changes []entities.BalanceChange
	if deltas := utils.DeltasFromMap(plan.BalanceDeltas); len(deltas) > 0 {
		changes, err = s.playerRepo.ApplyBalanceDeltas(ctx, deltas)
		if err != nil {
			return nil, fmt.Errorf("failed to credit payouts: %w", err)
		}
	}

	txType := entities.TransactionTypeWagerPayout
	if plan.Refunded {
		txType = entities.TransactionTypeWagerRefund
	}
	histories := utils.HistoriesForChanges(changes, txType, entities.RelatedTypeMatch, req.MatchID, map[string]any{
		"winning_team": string(req.WinningTeam),
		"betting_mode": string(mode),
	})
	if err := utils.RecordBalanceChanges(ctx, s.balanceHistoryRepo, s.eventPublisher, histories); err != nil {
		return nil, err
	}

	if err := s.wagerRepo.ApplySettlement(ctx, req.MatchID, plan.Payouts); err != nil {
		return nil, fmt.Errorf("failed to write payouts: %w", err)
	}

	record := &entities.MatchSettlement{
		MatchID:         req.MatchID,
		SettlementID:    utils.NewID(),
		PendingMatchID:  req.Window.PendingMatchID,
		WinningTeam:     req.WinningTeam,
		BettingMode:     mode,
		HouseMultiplier: multiplier,
		WagerCount:      len(wagers),
		TotalPaid:       plan.TotalCredited(),
	}
	if err := s.settlementRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	if match != nil {
		if err := s.pendingMatchRepo.Delete(ctx, match.ID); err != nil {
			return nil, fmt.Errorf("failed to retire pending match: %w", err)
		}
	}

	fillResult(result, wagers, plan)

	if err := s.eventPublisher.Publish(events.MatchSettledEvent{
		GuildID:        record.GuildID,
		MatchID:        req.MatchID,
		SettlementID:   record.SettlementID,
		PendingMatchID: req.Window.PendingMatchID,
		WinningTeam:    req.WinningTeam,
		BettingMode:    mode,
		WinnerCount:    len(result.Winners),
		LoserCount:     len(result.Losers),
		TotalPot:       result.TotalPot,
		TotalPaid:      result.TotalPaid,
		Refunded:       plan.Refunded,
	}); err != nil {
		log.WithError(err).Error("Failed to publish match settled event")
	}

	return result, nil
}

// resolveMode picks the payout rules. A repeated pass reuses what was
// recorded the first time; otherwise an explicit request wins over the
// pending match, which wins over the guild default.
func (s *settlementService) resolveMode(ctx context.Context, req entities.SettleRequest, match *entities.PendingMatch, recorded *entities.MatchSettlement) (entities.BettingMode, float64, error) {
	if recorded != nil {
		return recorded.BettingMode, recorded.HouseMultiplier, nil
	}

	settings, err := s.guildSettingsRepo.GetOrCreate(ctx, DefaultGuildSettings())
	if err != nil {
		return "", 0, fmt.Errorf("failed to get guild settings: %w", err)
	}

	mode := settings.BettingMode
	switch {
	case req.Mode != nil:
		mode = *req.Mode
	case match != nil:
		mode = match.BettingMode
	}

	multiplier := settings.HouseMultiplier
	if req.HouseMultiplier != nil {
		multiplier = *req.HouseMultiplier
	}
	if mode == entities.BettingModeHouse {
		if err := ValidateHouseMultiplier(multiplier); err != nil {
			return "", 0, err
		}
	}

	return mode, multiplier, nil
}

func fillResult(result *entities.SettlementResult, wagers []*entities.Wager, plan *entities.PayoutPlan) {
	for _, w := range wagers {
		wp, _ := plan.PayoutFor(w.ID)
		entry := entities.SettlementEntry{
			WagerID:        w.ID,
			DiscordID:      w.DiscordID,
			Team:           w.Team,
			Amount:         w.Amount,
			Leverage:       w.Leverage,
			EffectiveStake: w.EffectiveStake(),
			Payout:         wp.Payout,
			Refunded:       wp.Outcome == entities.WagerOutcomeRefunded,
			IsBlind:        w.IsBlind,
		}
		result.TotalPot += entry.EffectiveStake
		result.TotalPaid += entry.Payout

		if wp.Outcome == entities.WagerOutcomeWon {
			entry.Multiplier = plan.Multiplier
			result.Winners = append(result.Winners, entry)
		} else {
			result.Losers = append(result.Losers, entry)
		}
	}
}
