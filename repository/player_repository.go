package repository

import (
	"context"
	"errors"
	"fmt"

	"jopacoin/database"
	"jopacoin/domain/entities"

	"github.com/jackc/pgx/v5"
)

const playerColumns = `guild_id, discord_id, username, balance, created_at, updated_at`

// PlayerRepository implements the PlayerRepository interface
type PlayerRepository struct {
	q       Queryable
	guildID int64
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *database.DB, guildID int64) *PlayerRepository {
	return &PlayerRepository{q: db.Pool, guildID: guildID}
}

// newPlayerRepository creates a new player repository with a transaction and guild scope
func newPlayerRepository(tx Queryable, guildID int64) *PlayerRepository {
	return &PlayerRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanPlayer(row rowScanner) (*entities.Player, error) {
	var p entities.Player
	err := row.Scan(&p.GuildID, &p.DiscordID, &p.Username, &p.Balance, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByDiscordID retrieves a player by their Discord ID in the current guild
func (r *PlayerRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE guild_id = $1 AND discord_id = $2`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, r.guildID, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d in guild %d: %w", discordID, r.guildID, err)
	}
	return player, nil
}

// GetByDiscordIDForUpdate retrieves a player and holds the row lock
func (r *PlayerRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE guild_id = $1 AND discord_id = $2 FOR UPDATE`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, r.guildID, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock player %d in guild %d: %w", discordID, r.guildID, err)
	}
	return player, nil
}

// GetByDiscordIDs retrieves the registered players among discordIDs
func (r *PlayerRepository) GetByDiscordIDs(ctx context.Context, discordIDs []int64) ([]*entities.Player, error) {
	if len(discordIDs) == 0 {
		return []*entities.Player{}, nil
	}

	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE guild_id = $1 AND discord_id = ANY($2)
		ORDER BY discord_id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, discordIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get players in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	players := []*entities.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// Create creates a new player with the starting balance in the current guild
func (r *PlayerRepository) Create(ctx context.Context, discordID int64, username string, startingBalance int64) (*entities.Player, error) {
	query := `
		INSERT INTO players (guild_id, discord_id, username, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + playerColumns

	player, err := scanPlayer(r.q.QueryRow(ctx, query, r.guildID, discordID, username, startingBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create player %d in guild %d: %w", discordID, r.guildID, err)
	}
	return player, nil
}

// ApplyBalanceDeltas adds every delta in a single statement. Rows are locked
// in discord id order. Every delta must name a registered player.
func (r *PlayerRepository) ApplyBalanceDeltas(ctx context.Context, deltas []entities.BalanceDelta) ([]entities.BalanceChange, error) {
	if len(deltas) == 0 {
		return []entities.BalanceChange{}, nil
	}

	ids := make([]int64, len(deltas))
	amounts := make([]int64, len(deltas))
	for i, d := range deltas {
		ids[i] = d.DiscordID
		amounts[i] = d.Amount
	}

	query := `
		WITH locked AS (
			SELECT discord_id
			FROM players
			WHERE guild_id = $1 AND discord_id = ANY($2::bigint[])
			ORDER BY discord_id
			FOR UPDATE
		)
		UPDATE players p
		SET balance = p.balance + d.delta, updated_at = NOW()
		FROM unnest($2::bigint[], $3::bigint[]) AS d(discord_id, delta)
		JOIN locked l ON l.discord_id = d.discord_id
		WHERE p.guild_id = $1 AND p.discord_id = d.discord_id
		RETURNING p.discord_id, p.balance - d.delta, p.balance
	`

	rows, err := r.q.Query(ctx, query, r.guildID, ids, amounts)
	if err != nil {
		return nil, fmt.Errorf("failed to apply balance deltas in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	byID := make(map[int64]entities.BalanceChange, len(deltas))
	for rows.Next() {
		var c entities.BalanceChange
		if err := rows.Scan(&c.DiscordID, &c.BalanceBefore, &c.BalanceAfter); err != nil {
			return nil, fmt.Errorf("failed to scan balance change: %w", err)
		}
		byID[c.DiscordID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to apply balance deltas in guild %d: %w", r.guildID, err)
	}

	changes := make([]entities.BalanceChange, 0, len(deltas))
	for _, d := range deltas {
		c, ok := byID[d.DiscordID]
		if !ok {
			return nil, fmt.Errorf("player %d not found in guild %d", d.DiscordID, r.guildID)
		}
		changes = append(changes, c)
	}

	return changes, nil
}
