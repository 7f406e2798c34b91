package repository

import (
	"context"
	"errors"
	"fmt"

	"jopacoin/domain/entities"

	"github.com/jackc/pgx/v5"
)

const pendingMatchColumns = `id, guild_id, radiant_ids, dire_ids, betting_mode, is_bomb_pot, shuffled_at, bet_lock_until, created_at`

// PendingMatchRepository implements the PendingMatchRepository interface
type PendingMatchRepository struct {
	q       Queryable
	guildID int64
}

// newPendingMatchRepository creates a new pending match repository with a transaction and guild scope
func newPendingMatchRepository(tx Queryable, guildID int64) *PendingMatchRepository {
	return &PendingMatchRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanPendingMatch(row rowScanner) (*entities.PendingMatch, error) {
	var m entities.PendingMatch
	err := row.Scan(
		&m.ID,
		&m.GuildID,
		&m.RadiantIDs,
		&m.DireIDs,
		&m.BettingMode,
		&m.IsBombPot,
		&m.ShuffledAt,
		&m.BetLockUntil,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a pending match
func (r *PendingMatchRepository) Create(ctx context.Context, match *entities.PendingMatch) error {
	query := `
		INSERT INTO pending_matches (guild_id, radiant_ids, dire_ids, betting_mode, is_bomb_pot, shuffled_at, bet_lock_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		match.RadiantIDs,
		match.DireIDs,
		match.BettingMode,
		match.IsBombPot,
		match.ShuffledAt,
		match.BetLockUntil,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pending match in guild %d: %w", r.guildID, err)
	}

	match.GuildID = r.guildID
	return nil
}

func (r *PendingMatchRepository) getOne(ctx context.Context, id int64, lock string) (*entities.PendingMatch, error) {
	query := `SELECT ` + pendingMatchColumns + ` FROM pending_matches WHERE guild_id = $1 AND id = $2 ` + lock

	m, err := scanPendingMatch(r.q.QueryRow(ctx, query, r.guildID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending match %d: %w", id, err)
	}
	return m, nil
}

// GetByID retrieves a pending match
func (r *PendingMatchRepository) GetByID(ctx context.Context, id int64) (*entities.PendingMatch, error) {
	return r.getOne(ctx, id, "")
}

// GetByIDForShare retrieves a pending match holding a share lock, which
// blocks settlement and refund until the transaction ends
func (r *PendingMatchRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.PendingMatch, error) {
	return r.getOne(ctx, id, "FOR SHARE")
}

// GetByIDForUpdate retrieves a pending match holding an exclusive lock
func (r *PendingMatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.PendingMatch, error) {
	return r.getOne(ctx, id, "FOR UPDATE")
}

// List returns all pending matches in the guild
func (r *PendingMatchRepository) List(ctx context.Context) ([]*entities.PendingMatch, error) {
	query := `SELECT ` + pendingMatchColumns + ` FROM pending_matches WHERE guild_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending matches in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	matches := []*entities.PendingMatch{}
	for rows.Next() {
		m, err := scanPendingMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending match: %w", err)
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// FindRosteredPlayers returns which of discordIDs sit on any pending roster
func (r *PendingMatchRepository) FindRosteredPlayers(ctx context.Context, discordIDs []int64) ([]int64, error) {
	if len(discordIDs) == 0 {
		return []int64{}, nil
	}

	query := `
		SELECT DISTINCT p.id
		FROM pending_matches pm
		CROSS JOIN LATERAL unnest(pm.radiant_ids || pm.dire_ids) AS p(id)
		WHERE pm.guild_id = $1 AND p.id = ANY($2)
		ORDER BY p.id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, discordIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find rostered players: %w", err)
	}
	defer rows.Close()

	found := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan rostered player: %w", err)
		}
		found = append(found, id)
	}

	return found, rows.Err()
}

// Delete removes a pending match
func (r *PendingMatchRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM pending_matches WHERE guild_id = $1 AND id = $2`, r.guildID, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending match %d: %w", id, err)
	}
	return nil
}
