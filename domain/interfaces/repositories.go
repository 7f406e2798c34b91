package interfaces

import (
	"context"

	"jopacoin/domain/entities"
	"jopacoin/domain/events"
)

// PlayerRepository defines the interface for player balance access.
// Implementations are scoped to one guild.
type PlayerRepository interface {
	// GetByDiscordID retrieves a player, or nil when not registered
	GetByDiscordID(ctx context.Context, discordID int64) (*entities.Player, error)

	// GetByDiscordIDForUpdate retrieves a player and locks the row until the transaction ends
	GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.Player, error)

	// GetByDiscordIDs retrieves the registered players among the given ids
	GetByDiscordIDs(ctx context.Context, discordIDs []int64) ([]*entities.Player, error)

	// Create creates a new player with the starting balance
	Create(ctx context.Context, discordID int64, username string, startingBalance int64) (*entities.Player, error)

	// ApplyBalanceDeltas adds every delta in one statement and returns the before/after balances
	ApplyBalanceDeltas(ctx context.Context, deltas []entities.BalanceDelta) ([]entities.BalanceChange, error)
}

// WagerRepository defines the interface for wager data access
type WagerRepository interface {
	// Create inserts a wager and fills in its id and timestamps
	Create(ctx context.Context, wager *entities.Wager) error

	// GetByID retrieves a wager by its ID
	GetByID(ctx context.Context, id int64) (*entities.Wager, error)

	// GetPendingByWindow returns the unsettled wagers of a window ordered by bet time
	GetPendingByWindow(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error)

	// LockPendingByWindow is GetPendingByWindow holding row locks until the transaction ends
	LockPendingByWindow(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error)

	// GetPlayerPendingByWindow returns one player's unsettled wagers in a window
	GetPlayerPendingByWindow(ctx context.Context, window entities.BetWindow, discordID int64) ([]*entities.Wager, error)

	// GetPotTotals sums the effective stake per side of a window
	GetPotTotals(ctx context.Context, window entities.BetWindow) (entities.PotTotals, error)

	// LockByMatchID returns the settled wagers of a match ordered by id, locked
	LockByMatchID(ctx context.Context, matchID int64) ([]*entities.Wager, error)

	// ApplySettlement tags wagers with the match id and writes their payouts in one statement
	ApplySettlement(ctx context.Context, matchID int64, payouts []entities.WagerPayout) error

	// UpdatePayouts rewrites the payout and outcome of already settled wagers in one statement
	UpdatePayouts(ctx context.Context, payouts []entities.WagerPayout) error

	// DeleteByIDs removes wagers and returns how many rows were deleted
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// PendingMatchRepository defines the interface for pending match access
type PendingMatchRepository interface {
	// Create inserts a pending match and fills in its id
	Create(ctx context.Context, match *entities.PendingMatch) error

	// GetByID retrieves a pending match, or nil
	GetByID(ctx context.Context, id int64) (*entities.PendingMatch, error)

	// GetByIDForShare retrieves a pending match and blocks concurrent settlement of it
	GetByIDForShare(ctx context.Context, id int64) (*entities.PendingMatch, error)

	// GetByIDForUpdate retrieves a pending match with an exclusive lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.PendingMatch, error)

	// List returns the guild's pending matches ordered by id
	List(ctx context.Context) ([]*entities.PendingMatch, error)

	// FindRosteredPlayers returns which of the given players are already on a pending roster
	FindRosteredPlayers(ctx context.Context, discordIDs []int64) ([]int64, error)

	// Delete retires a pending match
	Delete(ctx context.Context, id int64) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// RecordBatch creates several entries in one round trip
	RecordBatch(ctx context.Context, histories []*entities.BalanceHistory) error

	// GetByPlayer returns a player's most recent entries
	GetByPlayer(ctx context.Context, discordID int64, limit int) ([]*entities.BalanceHistory, error)
}

// GuildSettingsRepository defines the interface for guild settings access
type GuildSettingsRepository interface {
	// GetOrCreate returns the guild's settings, inserting defaults when none exist
	GetOrCreate(ctx context.Context, defaults *entities.GuildSettings) (*entities.GuildSettings, error)

	// Upsert writes the settings, replacing any existing row
	Upsert(ctx context.Context, settings *entities.GuildSettings) error
}

// MatchSettlementRepository defines the interface for settlement records and correction audit
type MatchSettlementRepository interface {
	// GetForUpdate returns the settlement record of a match, locked, or nil
	GetForUpdate(ctx context.Context, matchID int64) (*entities.MatchSettlement, error)

	// Get returns the settlement record of a match, or nil
	Get(ctx context.Context, matchID int64) (*entities.MatchSettlement, error)

	// Upsert records a settlement pass. A repeated pass for the same match
	// accumulates the wager count and total paid.
	Upsert(ctx context.Context, settlement *entities.MatchSettlement) error

	// UpdateWinner changes the recorded winner after a correction
	UpdateWinner(ctx context.Context, matchID int64, winningTeam entities.Team) error

	// RecordCorrection appends a correction audit row
	RecordCorrection(ctx context.Context, correction *entities.MatchCorrection) error

	// GetCorrections returns the audit trail of a match, oldest first
	GetCorrections(ctx context.Context, matchID int64) ([]*entities.MatchCorrection, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
