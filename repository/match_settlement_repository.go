package repository

import (
	"context"
	"errors"
	"fmt"

	"jopacoin/domain/entities"

	"github.com/jackc/pgx/v5"
)

const settlementColumns = `guild_id, match_id, settlement_id, pending_match_id, winning_team, betting_mode,
	house_multiplier, wager_count, total_paid, settled_at, updated_at`

// MatchSettlementRepository implements the MatchSettlementRepository interface
type MatchSettlementRepository struct {
	q       Queryable
	guildID int64
}

// newMatchSettlementRepository creates a new settlement repository with a transaction and guild scope
func newMatchSettlementRepository(tx Queryable, guildID int64) *MatchSettlementRepository {
	return &MatchSettlementRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanSettlement(row rowScanner) (*entities.MatchSettlement, error) {
	var s entities.MatchSettlement
	err := row.Scan(
		&s.GuildID,
		&s.MatchID,
		&s.SettlementID,
		&s.PendingMatchID,
		&s.WinningTeam,
		&s.BettingMode,
		&s.HouseMultiplier,
		&s.WagerCount,
		&s.TotalPaid,
		&s.SettledAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MatchSettlementRepository) get(ctx context.Context, matchID int64, lock string) (*entities.MatchSettlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM match_settlements WHERE guild_id = $1 AND match_id = $2 ` + lock

	s, err := scanSettlement(r.q.QueryRow(ctx, query, r.guildID, matchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement for match %d: %w", matchID, err)
	}
	return s, nil
}

// GetForUpdate returns the locked settlement record of a match
func (r *MatchSettlementRepository) GetForUpdate(ctx context.Context, matchID int64) (*entities.MatchSettlement, error) {
	return r.get(ctx, matchID, "FOR UPDATE")
}

// Get returns the settlement record of a match
func (r *MatchSettlementRepository) Get(ctx context.Context, matchID int64) (*entities.MatchSettlement, error) {
	return r.get(ctx, matchID, "")
}

// Upsert records a settlement pass. The first pass fixes the settlement id,
// mode and multiplier; later passes add to the counts.
func (r *MatchSettlementRepository) Upsert(ctx context.Context, settlement *entities.MatchSettlement) error {
	query := `
		INSERT INTO match_settlements
		(guild_id, match_id, settlement_id, pending_match_id, winning_team, betting_mode, house_multiplier, wager_count, total_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (guild_id, match_id) DO UPDATE SET
			wager_count = match_settlements.wager_count + EXCLUDED.wager_count,
			total_paid = match_settlements.total_paid + EXCLUDED.total_paid,
			updated_at = NOW()
		RETURNING ` + settlementColumns

	saved, err := scanSettlement(r.q.QueryRow(ctx, query,
		r.guildID,
		settlement.MatchID,
		settlement.SettlementID,
		settlement.PendingMatchID,
		settlement.WinningTeam,
		settlement.BettingMode,
		settlement.HouseMultiplier,
		settlement.WagerCount,
		settlement.TotalPaid,
	))
	if err != nil {
		return fmt.Errorf("failed to record settlement for match %d: %w", settlement.MatchID, err)
	}

	*settlement = *saved
	return nil
}

// UpdateWinner changes the recorded winner
func (r *MatchSettlementRepository) UpdateWinner(ctx context.Context, matchID int64, winningTeam entities.Team) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE match_settlements SET winning_team = $3, updated_at = NOW()
		WHERE guild_id = $1 AND match_id = $2
	`, r.guildID, matchID, winningTeam)
	if err != nil {
		return fmt.Errorf("failed to update winner for match %d: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement for match %d not found in guild %d", matchID, r.guildID)
	}
	return nil
}

// RecordCorrection appends a correction audit row
func (r *MatchSettlementRepository) RecordCorrection(ctx context.Context, correction *entities.MatchCorrection) error {
	query := `
		INSERT INTO match_corrections
		(id, guild_id, match_id, old_winning_team, new_winning_team, betting_mode, corrected_by, wagers_affected, net_balance_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING corrected_at
	`

	err := r.q.QueryRow(ctx, query,
		correction.ID,
		r.guildID,
		correction.MatchID,
		correction.OldWinningTeam,
		correction.NewWinningTeam,
		correction.BettingMode,
		correction.CorrectedBy,
		correction.WagersAffected,
		correction.NetBalanceChange,
	).Scan(&correction.CorrectedAt)
	if err != nil {
		return fmt.Errorf("failed to record correction for match %d: %w", correction.MatchID, err)
	}

	correction.GuildID = r.guildID
	return nil
}

// GetCorrections returns a match's corrections, oldest first
func (r *MatchSettlementRepository) GetCorrections(ctx context.Context, matchID int64) ([]*entities.MatchCorrection, error) {
	query := `
		SELECT id, guild_id, match_id, old_winning_team, new_winning_team, betting_mode,
		       corrected_by, wagers_affected, net_balance_change, corrected_at
		FROM match_corrections
		WHERE guild_id = $1 AND match_id = $2
		ORDER BY corrected_at, id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get corrections for match %d: %w", matchID, err)
	}
	defer rows.Close()

	corrections := []*entities.MatchCorrection{}
	for rows.Next() {
		var c entities.MatchCorrection
		err := rows.Scan(
			&c.ID,
			&c.GuildID,
			&c.MatchID,
			&c.OldWinningTeam,
			&c.NewWinningTeam,
			&c.BettingMode,
			&c.CorrectedBy,
			&c.WagersAffected,
			&c.NetBalanceChange,
			&c.CorrectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, &c)
	}

	return corrections, rows.Err()
}
