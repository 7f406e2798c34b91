package entities

import "time"

// SettlementEntry describes what happened to one wager at settlement or correction
type SettlementEntry struct {
	WagerID        int64
	DiscordID      int64
	Team           Team
	Amount         int64
	Leverage       int64
	EffectiveStake int64
	Payout         int64
	Multiplier     *float64
	Refunded       bool
	IsBlind        bool
}

// SettlementResult is the winners/losers breakdown returned for display.
// Refunded wagers are reported as losers with Refunded set.
type SettlementResult struct {
	MatchID     int64
	WinningTeam Team
	Mode        BettingMode
	Winners     []SettlementEntry
	Losers      []SettlementEntry
	TotalPot    int64
	TotalPaid   int64
}

// IsEmpty reports whether no wagers were settled
func (r *SettlementResult) IsEmpty() bool {
	return len(r.Winners) == 0 && len(r.Losers) == 0
}

// WagerPayout is the payout column value assigned to one wager
type WagerPayout struct {
	WagerID int64
	Payout  int64
	Outcome WagerOutcome
}

// PayoutPlan is the pure output of a payout calculator: the per-wager payouts
// and the per-player balance credits they add up to.
type PayoutPlan struct {
	Payouts       []WagerPayout
	BalanceDeltas map[int64]int64
	Multiplier    *float64
	Refunded      bool
}

// PayoutFor returns the planned payout for a wager
func (p *PayoutPlan) PayoutFor(wagerID int64) (WagerPayout, bool) {
	for _, wp := range p.Payouts {
		if wp.WagerID == wagerID {
			return wp, true
		}
	}
	return WagerPayout{}, false
}

// TotalCredited sums the balance deltas
func (p *PayoutPlan) TotalCredited() int64 {
	var total int64
	for _, d := range p.BalanceDeltas {
		total += d
	}
	return total
}

// MatchSettlement is the persisted record of how a match was settled
type MatchSettlement struct {
	GuildID         int64       `db:"guild_id"`
	MatchID         int64       `db:"match_id"`
	SettlementID    string      `db:"settlement_id"`
	PendingMatchID  *int64      `db:"pending_match_id"`
	WinningTeam     Team        `db:"winning_team"`
	BettingMode     BettingMode `db:"betting_mode"`
	HouseMultiplier float64     `db:"house_multiplier"`
	WagerCount      int         `db:"wager_count"`
	TotalPaid       int64       `db:"total_paid"`
	SettledAt       time.Time   `db:"settled_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

// MatchCorrection is the audit record of a corrected match result
type MatchCorrection struct {
	ID               string      `db:"id"`
	GuildID          int64       `db:"guild_id"`
	MatchID          int64       `db:"match_id"`
	OldWinningTeam   Team        `db:"old_winning_team"`
	NewWinningTeam   Team        `db:"new_winning_team"`
	BettingMode      BettingMode `db:"betting_mode"`
	CorrectedBy      *int64      `db:"corrected_by"`
	WagersAffected   int         `db:"wagers_affected"`
	NetBalanceChange int64       `db:"net_balance_change"`
	CorrectedAt      time.Time   `db:"corrected_at"`
}

// CorrectionResult reports the wagers whose outcome flipped and the net balance changes
type CorrectionResult struct {
	MatchID        int64
	OldWinningTeam Team
	NewWinningTeam Team
	Mode           BettingMode
	Reversed       []SettlementEntry
	NewWinners     []SettlementEntry
	BalanceDeltas  map[int64]int64
	CorrectionID   string
}

// IsNoop reports whether the correction changed nothing
func (r *CorrectionResult) IsNoop() bool {
	return len(r.Reversed) == 0 && len(r.NewWinners) == 0
}
