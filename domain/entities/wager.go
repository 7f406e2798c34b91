package entities

import "time"

// WagerOutcome is the settled result of a wager
type WagerOutcome string

const (
	WagerOutcomeWon      WagerOutcome = "won"
	WagerOutcomeLost     WagerOutcome = "lost"
	WagerOutcomeRefunded WagerOutcome = "refunded"
)

// Wager is a single bet on one side of a match
type Wager struct {
	ID              int64         `db:"id"`
	GuildID         int64         `db:"guild_id"`
	DiscordID       int64         `db:"discord_id"`
	MatchID         *int64        `db:"match_id"`
	PendingMatchID  *int64        `db:"pending_match_id"`
	Team            Team          `db:"team"`
	Amount          int64         `db:"amount"`
	Leverage        int64         `db:"leverage"`
	IsBlind         bool          `db:"is_blind"`
	OddsAtPlacement *float64      `db:"odds_at_placement"`
	BetTime         time.Time     `db:"bet_time"`
	Payout          *int64        `db:"payout"`
	Outcome         *WagerOutcome `db:"outcome"`
	SettledAt       *time.Time    `db:"settled_at"`
	CreatedAt       time.Time     `db:"created_at"`
}

// EffectiveStake is the amount actually debited, and the basis for payouts
func (w *Wager) EffectiveStake() int64 {
	leverage := w.Leverage
	if leverage < 1 {
		leverage = 1
	}
	return w.Amount * leverage
}

// IsSettled reports whether the wager has been tagged with a match
func (w *Wager) IsSettled() bool {
	return w.MatchID != nil
}

// RecordedPayout returns the payout written at settlement, or 0
func (w *Wager) RecordedPayout() int64 {
	if w.Payout == nil {
		return 0
	}
	return *w.Payout
}

// BetWindow selects the unsettled wagers that belong to one match.
//
// With PendingMatchID set it matches exactly the wagers stamped with that id.
// Without it, it is a timestamp window over wagers that carry no pending
// match id and were placed at or after Since. The two keys never mix.
type BetWindow struct {
	PendingMatchID *int64
	Since          time.Time
}

// WindowForPendingMatch returns the window keyed by a pending match id
func WindowForPendingMatch(pendingMatchID int64) BetWindow {
	return BetWindow{PendingMatchID: &pendingMatchID}
}

// WindowSince returns a timestamp window for wagers placed without a pending match id
func WindowSince(since time.Time) BetWindow {
	return BetWindow{Since: since}
}

// IsKeyed reports whether the window is keyed by pending match id
func (w BetWindow) IsKeyed() bool {
	return w.PendingMatchID != nil
}

// PotTotals is the effective stake on each side of a window
type PotTotals struct {
	Radiant int64
	Dire    int64
}

// Total is the combined effective stake
func (p PotTotals) Total() int64 {
	return p.Radiant + p.Dire
}

// For returns the stake on the given side
func (p PotTotals) For(team Team) int64 {
	if team == TeamRadiant {
		return p.Radiant
	}
	return p.Dire
}

// Multiplier is the pool payout multiplier a winner on team would currently receive.
// It is nil while the side has no stake.
func (p PotTotals) Multiplier(team Team) *float64 {
	side := p.For(team)
	if side <= 0 {
		return nil
	}
	m := float64(p.Total()) / float64(side)
	return &m
}
