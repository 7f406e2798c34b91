package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jopacoin/domain/entities"

	"github.com/jackc/pgx/v5"
)

const wagerColumns = `id, guild_id, discord_id, match_id, pending_match_id, team, amount, leverage,
	is_blind, odds_at_placement, bet_time, payout, outcome, settled_at, created_at`

// WagerRepository implements the WagerRepository interface
type WagerRepository struct {
	q       Queryable
	guildID int64
}

// newWagerRepository creates a new wager repository with a transaction and guild scope
func newWagerRepository(tx Queryable, guildID int64) *WagerRepository {
	return &WagerRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanWager(row rowScanner) (*entities.Wager, error) {
	var w entities.Wager
	err := row.Scan(
		&w.ID,
		&w.GuildID,
		&w.DiscordID,
		&w.MatchID,
		&w.PendingMatchID,
		&w.Team,
		&w.Amount,
		&w.Leverage,
		&w.IsBlind,
		&w.OddsAtPlacement,
		&w.BetTime,
		&w.Payout,
		&w.Outcome,
		&w.SettledAt,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func collectWagers(rows pgx.Rows) ([]*entities.Wager, error) {
	defer rows.Close()

	wagers := []*entities.Wager{}
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}
	return wagers, nil
}

// windowFilter builds the predicate selecting a window's unsettled wagers.
// $1 is always the guild id; the window's own argument follows.
func windowFilter(window entities.BetWindow) (string, []any) {
	if window.IsKeyed() {
		return `guild_id = $1 AND match_id IS NULL AND pending_match_id = $2`, []any{*window.PendingMatchID}
	}
	return `guild_id = $1 AND match_id IS NULL AND pending_match_id IS NULL AND bet_time >= $2`, []any{window.Since}
}

// Create inserts a wager
func (r *WagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	if wager.BetTime.IsZero() {
		wager.BetTime = time.Now().UTC()
	}

	query := `
		INSERT INTO wagers (guild_id, discord_id, pending_match_id, team, amount, leverage, is_blind, odds_at_placement, bet_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		wager.DiscordID,
		wager.PendingMatchID,
		wager.Team,
		wager.Amount,
		wager.Leverage,
		wager.IsBlind,
		wager.OddsAtPlacement,
		wager.BetTime,
	).Scan(&wager.ID, &wager.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wager for player %d: %w", wager.DiscordID, err)
	}

	wager.GuildID = r.guildID
	return nil
}

// GetByID retrieves a wager by its ID
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE guild_id = $1 AND id = $2`

	w, err := scanWager(r.q.QueryRow(ctx, query, r.guildID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}
	return w, nil
}

// GetPendingByWindow returns the unsettled wagers of a window
func (r *WagerRepository) GetPendingByWindow(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error) {
	filter, args := windowFilter(window)
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE ` + filter + ` ORDER BY bet_time, id`

	rows, err := r.q.Query(ctx, query, append([]any{r.guildID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wagers: %w", err)
	}
	return collectWagers(rows)
}

// LockPendingByWindow returns the unsettled wagers of a window with row locks held
func (r *WagerRepository) LockPendingByWindow(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error) {
	filter, args := windowFilter(window)
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE ` + filter + ` ORDER BY bet_time, id FOR UPDATE`

	rows, err := r.q.Query(ctx, query, append([]any{r.guildID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pending wagers: %w", err)
	}
	return collectWagers(rows)
}

// GetPlayerPendingByWindow returns one player's unsettled wagers in a window
func (r *WagerRepository) GetPlayerPendingByWindow(ctx context.Context, window entities.BetWindow, discordID int64) ([]*entities.Wager, error) {
	filter, args := windowFilter(window)
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE ` + filter + ` AND discord_id = $3 ORDER BY bet_time, id`

	rows, err := r.q.Query(ctx, query, append(append([]any{r.guildID}, args...), discordID)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wagers for player %d: %w", discordID, err)
	}
	return collectWagers(rows)
}

// GetPotTotals sums effective stake per side
func (r *WagerRepository) GetPotTotals(ctx context.Context, window entities.BetWindow) (entities.PotTotals, error) {
	filter, args := windowFilter(window)
	query := `
		SELECT
			COALESCE(SUM(amount * leverage) FILTER (WHERE team = 'radiant'), 0),
			COALESCE(SUM(amount * leverage) FILTER (WHERE team = 'dire'), 0)
		FROM wagers
		WHERE ` + filter

	var totals entities.PotTotals
	err := r.q.QueryRow(ctx, query, append([]any{r.guildID}, args...)...).Scan(&totals.Radiant, &totals.Dire)
	if err != nil {
		return entities.PotTotals{}, fmt.Errorf("failed to get pot totals: %w", err)
	}
	return totals, nil
}

// LockByMatchID returns a match's settled wagers ordered by id with row locks held
func (r *WagerRepository) LockByMatchID(ctx context.Context, matchID int64) ([]*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE guild_id = $1 AND match_id = $2 ORDER BY id FOR UPDATE`

	rows, err := r.q.Query(ctx, query, r.guildID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wagers for match %d: %w", matchID, err)
	}
	return collectWagers(rows)
}

func payoutArrays(payouts []entities.WagerPayout) ([]int64, []int64, []string) {
	ids := make([]int64, len(payouts))
	amounts := make([]int64, len(payouts))
	outcomes := make([]string, len(payouts))
	for i, p := range payouts {
		ids[i] = p.WagerID
		amounts[i] = p.Payout
		outcomes[i] = string(p.Outcome)
	}
	return ids, amounts, outcomes
}

// ApplySettlement tags unsettled wagers with the match id and writes their payouts
func (r *WagerRepository) ApplySettlement(ctx context.Context, matchID int64, payouts []entities.WagerPayout) error {
	if len(payouts) == 0 {
		return nil
	}

	ids, amounts, outcomes := payoutArrays(payouts)
	query := `
		UPDATE wagers w
		SET match_id = $2, payout = u.payout, outcome = u.outcome, settled_at = NOW()
		FROM unnest($3::bigint[], $4::bigint[], $5::text[]) AS u(id, payout, outcome)
		WHERE w.guild_id = $1 AND w.id = u.id AND w.match_id IS NULL
	`

	tag, err := r.q.Exec(ctx, query, r.guildID, matchID, ids, amounts, outcomes)
	if err != nil {
		return fmt.Errorf("failed to settle wagers for match %d: %w", matchID, err)
	}
	if tag.RowsAffected() != int64(len(payouts)) {
		return fmt.Errorf("settled %d of %d wagers for match %d", tag.RowsAffected(), len(payouts), matchID)
	}
	return nil
}

// UpdatePayouts rewrites payout and outcome of settled wagers
func (r *WagerRepository) UpdatePayouts(ctx context.Context, payouts []entities.WagerPayout) error {
	if len(payouts) == 0 {
		return nil
	}

	ids, amounts, outcomes := payoutArrays(payouts)
	query := `
		UPDATE wagers w
		SET payout = u.payout, outcome = u.outcome
		FROM unnest($2::bigint[], $3::bigint[], $4::text[]) AS u(id, payout, outcome)
		WHERE w.guild_id = $1 AND w.id = u.id AND w.match_id IS NOT NULL
	`

	tag, err := r.q.Exec(ctx, query, r.guildID, ids, amounts, outcomes)
	if err != nil {
		return fmt.Errorf("failed to update wager payouts: %w", err)
	}
	if tag.RowsAffected() != int64(len(payouts)) {
		return fmt.Errorf("updated %d of %d wager payouts", tag.RowsAffected(), len(payouts))
	}
	return nil
}

// DeleteByIDs removes unsettled wagers
func (r *WagerRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.q.Exec(ctx, `DELETE FROM wagers WHERE guild_id = $1 AND id = ANY($2) AND match_id IS NULL`, r.guildID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %d wagers: %w", len(ids), err)
	}
	return tag.RowsAffected(), nil
}
