package events

import "jopacoin/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWagerPlaced        EventType = "wager_placed"
	EventTypeBalanceChange      EventType = "balance_change"
	EventTypePendingMatchOpened EventType = "pending_match_opened"
	EventTypeMatchSettled       EventType = "match_settled"
	EventTypeMatchCorrected     EventType = "match_corrected"
	EventTypeWagersRefunded     EventType = "wagers_refunded"
	EventTypePlayerRegistered   EventType = "player_registered"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GuildScoped is implemented by events that belong to one guild
type GuildScoped interface {
	Event
	Guild() int64
}

// WagerPlacedEvent is emitted after a wager is debited and stored
type WagerPlacedEvent struct {
	GuildID         int64                `json:"guild_id"`
	WagerID         int64                `json:"wager_id"`
	DiscordID       int64                `json:"discord_id"`
	PendingMatchID  *int64               `json:"pending_match_id,omitempty"`
	Team            entities.Team        `json:"team"`
	Amount          int64                `json:"amount"`
	Leverage        int64                `json:"leverage"`
	EffectiveStake  int64                `json:"effective_stake"`
	IsBlind         bool                 `json:"is_blind"`
	OddsAtPlacement *float64             `json:"odds_at_placement,omitempty"`
	BettingMode     entities.BettingMode `json:"betting_mode,omitempty"`
}

func (e WagerPlacedEvent) Type() EventType { return EventTypeWagerPlaced }
func (e WagerPlacedEvent) Guild() int64    { return e.GuildID }

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	GuildID         int64                    `json:"guild_id"`
	DiscordID       int64                    `json:"discord_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	ChangeAmount    int64                    `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
}

func (e BalanceChangeEvent) Type() EventType { return EventTypeBalanceChange }
func (e BalanceChangeEvent) Guild() int64    { return e.GuildID }

// PendingMatchOpenedEvent is emitted when betting opens on a shuffled match
type PendingMatchOpenedEvent struct {
	GuildID        int64                `json:"guild_id"`
	PendingMatchID int64                `json:"pending_match_id"`
	RadiantIDs     []int64              `json:"radiant_ids"`
	DireIDs        []int64              `json:"dire_ids"`
	BettingMode    entities.BettingMode `json:"betting_mode"`
	IsBombPot      bool                 `json:"is_bomb_pot"`
	BetLockUntil   int64                `json:"bet_lock_until"`
}

func (e PendingMatchOpenedEvent) Type() EventType { return EventTypePendingMatchOpened }
func (e PendingMatchOpenedEvent) Guild() int64    { return e.GuildID }

// MatchSettledEvent summarises a settlement
type MatchSettledEvent struct {
	GuildID        int64                `json:"guild_id"`
	MatchID        int64                `json:"match_id"`
	SettlementID   string               `json:"settlement_id"`
	PendingMatchID *int64               `json:"pending_match_id,omitempty"`
	WinningTeam    entities.Team        `json:"winning_team"`
	BettingMode    entities.BettingMode `json:"betting_mode"`
	WinnerCount    int                  `json:"winner_count"`
	LoserCount     int                  `json:"loser_count"`
	TotalPot       int64                `json:"total_pot"`
	TotalPaid      int64                `json:"total_paid"`
	Refunded       bool                 `json:"refunded"`
}

func (e MatchSettledEvent) Type() EventType { return EventTypeMatchSettled }
func (e MatchSettledEvent) Guild() int64    { return e.GuildID }

// MatchCorrectedEvent is emitted when a settled result is flipped
type MatchCorrectedEvent struct {
	GuildID          int64         `json:"guild_id"`
	MatchID          int64         `json:"match_id"`
	CorrectionID     string        `json:"correction_id"`
	OldWinningTeam   entities.Team `json:"old_winning_team"`
	NewWinningTeam   entities.Team `json:"new_winning_team"`
	WagersAffected   int           `json:"wagers_affected"`
	NetBalanceChange int64         `json:"net_balance_change"`
}

func (e MatchCorrectedEvent) Type() EventType { return EventTypeMatchCorrected }
func (e MatchCorrectedEvent) Guild() int64    { return e.GuildID }

// WagersRefundedEvent is emitted when a window's wagers are returned unsettled
type WagersRefundedEvent struct {
	GuildID        int64  `json:"guild_id"`
	PendingMatchID *int64 `json:"pending_match_id,omitempty"`
	WagerCount     int    `json:"wager_count"`
	TotalRefunded  int64  `json:"total_refunded"`
}

func (e WagersRefundedEvent) Type() EventType { return EventTypeWagersRefunded }
func (e WagersRefundedEvent) Guild() int64    { return e.GuildID }

// PlayerRegisteredEvent represents a new player account
type PlayerRegisteredEvent struct {
	GuildID         int64  `json:"guild_id"`
	DiscordID       int64  `json:"discord_id"`
	Username        string `json:"username"`
	StartingBalance int64  `json:"starting_balance"`
}

func (e PlayerRegisteredEvent) Type() EventType { return EventTypePlayerRegistered }
func (e PlayerRegisteredEvent) Guild() int64    { return e.GuildID }
