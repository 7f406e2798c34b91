package entities

import (
	"errors"
	"time"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeWager        RelatedType = "wager"
	RelatedTypeMatch        RelatedType = "match"
	RelatedTypePendingMatch RelatedType = "pending_match"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	DiscordID           int64           `db:"discord_id"`
	GuildID             int64           `db:"guild_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

// NewBalanceHistory builds a history entry for an applied balance change
func NewBalanceHistory(change BalanceChange, txType TransactionType, relatedType RelatedType, relatedID int64, metadata map[string]any) *BalanceHistory {
	return &BalanceHistory{
		DiscordID:           change.DiscordID,
		BalanceBefore:       change.BalanceBefore,
		BalanceAfter:        change.BalanceAfter,
		ChangeAmount:        change.BalanceAfter - change.BalanceBefore,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		RelatedID:           &relatedID,
		RelatedType:         &relatedType,
	}
}

// ValidateTransaction performs basic validation on the transaction
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.ChangeAmount == 0 && bh.TransactionType != TransactionTypeInitial {
		return errors.New("change amount cannot be zero")
	}

	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}

	return nil
}
