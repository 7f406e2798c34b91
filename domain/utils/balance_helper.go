package utils

import (
	"context"
	"fmt"
	"sort"

	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordBalanceChange records a balance history entry and emits the matching event.
// This is the single entry point for recording one balance change.
func RecordBalanceChange(ctx context.Context, balanceHistoryRepo interfaces.BalanceHistoryRepository, eventPublisher interfaces.EventPublisher, history *entities.BalanceHistory) error {
	if err := balanceHistoryRepo.Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	publishBalanceChange(eventPublisher, history)
	return nil
}

// RecordBalanceChanges records entries for a batched balance update in one round trip
func RecordBalanceChanges(ctx context.Context, balanceHistoryRepo interfaces.BalanceHistoryRepository, eventPublisher interfaces.EventPublisher, histories []*entities.BalanceHistory) error {
	if len(histories) == 0 {
		return nil
	}

	if err := balanceHistoryRepo.RecordBatch(ctx, histories); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	for _, history := range histories {
		publishBalanceChange(eventPublisher, history)
	}
	return nil
}

// HistoriesForChanges builds one history entry per applied change
func HistoriesForChanges(changes []entities.BalanceChange, txType entities.TransactionType, relatedType entities.RelatedType, relatedID int64, metadata map[string]any) []*entities.BalanceHistory {
	histories := make([]*entities.BalanceHistory, 0, len(changes))
	for _, change := range changes {
		if change.BalanceAfter == change.BalanceBefore {
			continue
		}
		histories = append(histories, entities.NewBalanceHistory(change, txType, relatedType, relatedID, metadata))
	}
	return histories
}

// DeltasFromMap turns a per-player map into a slice ordered by discord id, dropping zeros
func DeltasFromMap(deltas map[int64]int64) []entities.BalanceDelta {
	out := make([]entities.BalanceDelta, 0, len(deltas))
	for discordID, amount := range deltas {
		if amount == 0 {
			continue
		}
		out = append(out, entities.BalanceDelta{DiscordID: discordID, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscordID < out[j].DiscordID })
	return out
}

func publishBalanceChange(eventPublisher interfaces.EventPublisher, history *entities.BalanceHistory) {
	event := events.BalanceChangeEvent{
		GuildID:         history.GuildID,
		DiscordID:       history.DiscordID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		ChangeAmount:    history.ChangeAmount,
		TransactionType: history.TransactionType,
	}
	log.WithFields(log.Fields{
		"discordID":       event.DiscordID,
		"guildID":         event.GuildID,
		"oldBalance":      event.OldBalance,
		"newBalance":      event.NewBalance,
		"transactionType": event.TransactionType,
		"changeAmount":    event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}
}
