package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"jopacoin/domain/entities"

	"github.com/jackc/pgx/v5"
)

const insertBalanceHistory = `
	INSERT INTO balance_history
	(discord_id, guild_id, balance_before, balance_after, change_amount, transaction_type, transaction_metadata, related_id, related_type)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at
`

// BalanceHistoryRepository implements the BalanceHistoryRepository interface
type BalanceHistoryRepository struct {
	q       Queryable
	guildID int64
}

// newBalanceHistoryRepository creates a new balance history repository with a transaction and guild scope
func newBalanceHistoryRepository(tx Queryable, guildID int64) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{
		q:       tx,
		guildID: guildID,
	}
}

func (r *BalanceHistoryRepository) insertArgs(history *entities.BalanceHistory) ([]any, error) {
	metadataJSON, err := json.Marshal(history.TransactionMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	return []any{
		history.DiscordID,
		r.guildID,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		history.TransactionType,
		metadataJSON,
		history.RelatedID,
		history.RelatedType,
	}, nil
}

// Record creates a new balance history entry
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args, err := r.insertArgs(history)
	if err != nil {
		return err
	}

	if err := r.q.QueryRow(ctx, insertBalanceHistory, args...).Scan(&history.ID, &history.CreatedAt); err != nil {
		return fmt.Errorf("failed to record balance history for player %d: %w", history.DiscordID, err)
	}

	history.GuildID = r.guildID
	return nil
}

// RecordBatch inserts all entries in one round trip
func (r *BalanceHistoryRepository) RecordBatch(ctx context.Context, histories []*entities.BalanceHistory) error {
	if len(histories) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, h := range histories {
		args, err := r.insertArgs(h)
		if err != nil {
			return err
		}
		batch.Queue(insertBalanceHistory, args...)
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()

	for _, h := range histories {
		if err := results.QueryRow().Scan(&h.ID, &h.CreatedAt); err != nil {
			return fmt.Errorf("failed to record balance history for player %d: %w", h.DiscordID, err)
		}
		h.GuildID = r.guildID
	}

	return nil
}

// GetByPlayer returns a player's most recent entries, newest first
func (r *BalanceHistoryRepository) GetByPlayer(ctx context.Context, discordID int64, limit int) ([]*entities.BalanceHistory, error) {
	query := `
		SELECT id, discord_id, guild_id, balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, related_id, related_type, created_at
		FROM balance_history
		WHERE discord_id = $1 AND guild_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, discordID, r.guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history for player %d: %w", discordID, err)
	}
	defer rows.Close()

	histories := []*entities.BalanceHistory{}
	for rows.Next() {
		var history entities.BalanceHistory
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.DiscordID,
			&history.GuildID,
			&history.BalanceBefore,
			&history.BalanceAfter,
			&history.ChangeAmount,
			&history.TransactionType,
			&metadataJSON,
			&history.RelatedID,
			&history.RelatedType,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.TransactionMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance history: %w", err)
	}

	return histories, nil
}
