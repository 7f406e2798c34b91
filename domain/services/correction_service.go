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

type correctionService struct {
	playerRepo         interfaces.PlayerRepository
	wagerRepo          interfaces.WagerRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	settlementRepo     interfaces.MatchSettlementRepository
	eventPublisher     interfaces.EventPublisher
}

// NewCorrectionService creates a new correction service
func NewCorrectionService(
	playerRepo interfaces.PlayerRepository,
	wagerRepo interfaces.WagerRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	settlementRepo interfaces.MatchSettlementRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.CorrectionService {
	return &correctionService{
		playerRepo:         playerRepo,
		wagerRepo:          wagerRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		settlementRepo:     settlementRepo,
		eventPublisher:     eventPublisher,
	}
}

// Correct moves a settled match to a new winner. Only wagers whose outcome
// flips are touched: credited winnings are clawed back from old winners and
// new winners are paid the difference between their fresh payout and
// whatever they were credited before.
func (s *correctionService) Correct(ctx context.Context, req entities.CorrectRequest) (*entities.CorrectionResult, error) {
	if !req.OldWinningTeam.IsValid() || !req.NewWinningTeam.IsValid() {
		return nil, common.Reject(common.ReasonInvalidTeam, "winning teams must be radiant or dire")
	}

	recorded, err := s.settlementRepo.GetForUpdate(ctx, req.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement record: %w", err)
	}
	if recorded == nil {
		return nil, common.Reject(common.ReasonStaleCorrection, "match %d has no recorded settlement", req.MatchID)
	}
	if recorded.WinningTeam != req.OldWinningTeam {
		return nil, common.Reject(common.ReasonStaleCorrection, "match %d is recorded with %s winning, not %s", req.MatchID, recorded.WinningTeam, req.OldWinningTeam)
	}

	mode := recorded.BettingMode
	if req.Mode != nil {
		mode = *req.Mode
	}

	result := &entities.CorrectionResult{
		MatchID:        req.MatchID,
		OldWinningTeam: req.OldWinningTeam,
		NewWinningTeam: req.NewWinningTeam,
		Mode:           mode,
		Reversed:       []entities.SettlementEntry{},
		NewWinners:     []entities.SettlementEntry{},
		BalanceDeltas:  map[int64]int64{},
	}
	if req.OldWinningTeam == req.NewWinningTeam {
		return result, nil
	}

	calculator, err := NewPayoutCalculator(mode, recorded.HouseMultiplier)
	if err != nil {
		return nil, err
	}

	wagers, err := s.wagerRepo.LockByMatchID(ctx, req.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settled wagers: %w", err)
	}
	plan := calculator.Calculate(wagers, req.NewWinningTeam)

	var updates []entities.WagerPayout
	for _, w := range wagers {
		next, ok := plan.PayoutFor(w.ID)
		if !ok {
			continue
		}
		prev := previousOutcome(w, req.OldWinningTeam)
		if prev == next.Outcome {
			continue
		}

		credited := w.RecordedPayout()
		if credited < 0 {
			credited = 0
		}
		delta := next.Payout - credited
		if delta != 0 {
			result.BalanceDeltas[w.DiscordID] += delta
		}
		updates = append(updates, next)

		entry := entities.SettlementEntry{
			WagerID:        w.ID,
			DiscordID:      w.DiscordID,
			Team:           w.Team,
			Amount:         w.Amount,
			Leverage:       w.Leverage,
			EffectiveStake: w.EffectiveStake(),
			Payout:         next.Payout,
			Refunded:       next.Outcome == entities.WagerOutcomeRefunded,
			IsBlind:        w.IsBlind,
		}
		if next.Outcome == entities.WagerOutcomeWon {
			entry.Multiplier = plan.Multiplier
			result.NewWinners = append(result.NewWinners, entry)
		} else {
			result.Reversed = append(result.Reversed, entry)
		}
	}

	if len(updates) > 0 {
		if err := s.wagerRepo.UpdatePayouts(ctx, updates); err != nil {
			return nil, fmt.Errorf("failed to rewrite payouts: %w", err)
		}
	}

	var net int64
	if deltas := utils.DeltasFromMap(result.BalanceDeltas); len(deltas) > 0 {
		changes, err := s.playerRepo.ApplyBalanceDeltas(ctx, deltas)
		if err != nil {
			return nil, fmt.Errorf("failed to apply correction deltas: %w", err)
		}

		var clawbacks, payouts []entities.BalanceChange
		for _, c := range changes {
			net += c.BalanceAfter - c.BalanceBefore
			if c.BalanceAfter < c.BalanceBefore {
				clawbacks = append(clawbacks, c)
			} else {
				payouts = append(payouts, c)
			}
		}
		metadata := map[string]any{
			"old_winning_team": string(req.OldWinningTeam),
			"new_winning_team": string(req.NewWinningTeam),
		}
		histories := append(
			utils.HistoriesForChanges(clawbacks, entities.TransactionTypeCorrectionClawback, entities.RelatedTypeMatch, req.MatchID, metadata),
			utils.HistoriesForChanges(payouts, entities.TransactionTypeCorrectionPayout, entities.RelatedTypeMatch, req.MatchID, metadata)...,
		)
		if err := utils.RecordBalanceChanges(ctx, s.balanceHistoryRepo, s.eventPublisher, histories); err != nil {
			return nil, err
		}
	}

	if err := s.settlementRepo.UpdateWinner(ctx, req.MatchID, req.NewWinningTeam); err != nil {
		return nil, fmt.Errorf("failed to update recorded winner: %w", err)
	}

	correction := &entities.MatchCorrection{
		ID:               utils.NewID(),
		MatchID:          req.MatchID,
		OldWinningTeam:   req.OldWinningTeam,
		NewWinningTeam:   req.NewWinningTeam,
		BettingMode:      mode,
		CorrectedBy:      req.CorrectedBy,
		WagersAffected:   len(updates),
		NetBalanceChange: net,
	}
	if err := s.settlementRepo.RecordCorrection(ctx, correction); err != nil {
		return nil, fmt.Errorf("failed to record correction: %w", err)
	}
	result.CorrectionID = correction.ID

	if err := s.eventPublisher.Publish(events.MatchCorrectedEvent{
		GuildID:          correction.GuildID,
		MatchID:          req.MatchID,
		CorrectionID:     correction.ID,
		OldWinningTeam:   req.OldWinningTeam,
		NewWinningTeam:   req.NewWinningTeam,
		WagersAffected:   correction.WagersAffected,
		NetBalanceChange: net,
	}); err != nil {
		log.WithError(err).Error("Failed to publish match corrected event")
	}

	return result, nil
}

// previousOutcome is the recorded outcome, derived from the team for rows settled without one
func previousOutcome(w *entities.Wager, oldWinner entities.Team) entities.WagerOutcome {
	if w.Outcome != nil {
		return *w.Outcome
	}
	if w.Team == oldWinner {
		return entities.WagerOutcomeWon
	}
	return entities.WagerOutcomeLost
}
