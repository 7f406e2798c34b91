package services

import (
	"context"
	"fmt"

	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"
	"jopacoin/domain/utils"

	log "github.com/sirupsen/logrus"
)

type refundService struct {
	playerRepo         interfaces.PlayerRepository
	wagerRepo          interfaces.WagerRepository
	pendingMatchRepo   interfaces.PendingMatchRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewRefundService creates a new refund service
func NewRefundService(
	playerRepo interfaces.PlayerRepository,
	wagerRepo interfaces.WagerRepository,
	pendingMatchRepo interfaces.PendingMatchRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.RefundService {
	return &refundService{
		playerRepo:         playerRepo,
		wagerRepo:          wagerRepo,
		pendingMatchRepo:   pendingMatchRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// RefundPendingWagers returns every unsettled stake in the window, deletes
// the wagers and retires the pending match.
func (s *refundService) RefundPendingWagers(ctx context.Context, window entities.BetWindow) (int, error) {
	var match *entities.PendingMatch
	if window.IsKeyed() {
		m, err := s.pendingMatchRepo.GetByIDForUpdate(ctx, *window.PendingMatchID)
		if err != nil {
			return 0, fmt.Errorf("failed to lock pending match: %w", err)
		}
		match = m
	}

	wagers, err := s.wagerRepo.LockPendingByWindow(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending wagers: %w", err)
	}

	var total int64
	if len(wagers) > 0 {
		deltas := make(map[int64]int64)
		ids := make([]int64, 0, len(wagers))
		for _, w := range wagers {
			deltas[w.DiscordID] += w.EffectiveStake()
			total += w.EffectiveStake()
			ids = append(ids, w.ID)
		}

		changes, err := s.playerRepo.ApplyBalanceDeltas(ctx, utils.DeltasFromMap(deltas))
		if err != nil {
			return 0, fmt.Errorf("failed to refund stakes: %w", err)
		}

		var relatedID int64
		if window.IsKeyed() {
			relatedID = *window.PendingMatchID
		}
		histories := utils.HistoriesForChanges(changes, entities.TransactionTypeWagerRefund, entities.RelatedTypePendingMatch, relatedID, map[string]any{
			"reason": "match_aborted",
		})
		if !window.IsKeyed() {
			for _, h := range histories {
				h.RelatedID = nil
				h.RelatedType = nil
			}
		}
		if err := utils.RecordBalanceChanges(ctx, s.balanceHistoryRepo, s.eventPublisher, histories); err != nil {
			return 0, err
		}

		deleted, err := s.wagerRepo.DeleteByIDs(ctx, ids)
		if err != nil {
			return 0, fmt.Errorf("failed to delete refunded wagers: %w", err)
		}
		if deleted != int64(len(ids)) {
			return 0, fmt.Errorf("failed to delete refunded wagers: expected %d rows, deleted %d", len(ids), deleted)
		}
	}

	if match != nil {
		if err := s.pendingMatchRepo.Delete(ctx, match.ID); err != nil {
			return 0, fmt.Errorf("failed to retire pending match: %w", err)
		}
	}

	if len(wagers) > 0 {
		if err := s.eventPublisher.Publish(events.WagersRefundedEvent{
			GuildID:        wagers[0].GuildID,
			PendingMatchID: window.PendingMatchID,
			WagerCount:     len(wagers),
			TotalRefunded:  total,
		}); err != nil {
			log.WithError(err).Error("Failed to publish wagers refunded event")
		}
	}

	return len(wagers), nil
}
