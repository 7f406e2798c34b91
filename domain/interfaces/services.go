package interfaces

import (
	"context"

	"jopacoin/domain/entities"
)

// PayoutCalculator turns a window's wagers and the winning side into payouts.
// Implementations are pure.
type PayoutCalculator interface {
	Mode() entities.BettingMode
	Calculate(wagers []*entities.Wager, winningTeam entities.Team) *entities.PayoutPlan
}

// PlayerService defines the interface for player accounts
type PlayerService interface {
	// RegisterPlayer creates an account at the starting balance. Registering
	// twice returns the existing account.
	RegisterPlayer(ctx context.Context, discordID int64, username string) (*entities.Player, error)

	// GetPlayer returns a player or a PlayerNotFound rejection
	GetPlayer(ctx context.Context, discordID int64) (*entities.Player, error)
}

// GuildSettingsService defines the interface for guild settings
type GuildSettingsService interface {
	GetOrCreateSettings(ctx context.Context) (*entities.GuildSettings, error)
	UpdateSettings(ctx context.Context, settings *entities.GuildSettings) error
}

// PlacementService defines the interface for placing wagers
type PlacementService interface {
	// PlaceBet debits the effective stake and stores the wager in the given window
	PlaceBet(ctx context.Context, req entities.PlaceBetRequest) (*entities.Wager, error)

	// PlaceBetOnActiveMatch resolves the pending match from the ledger and places an audience wager on it
	PlaceBetOnActiveMatch(ctx context.Context, req entities.ActiveBetRequest) (*entities.Wager, error)
}

// SettlementService defines the interface for paying out a finished match
type SettlementService interface {
	Settle(ctx context.Context, req entities.SettleRequest) (*entities.SettlementResult, error)
}

// CorrectionService defines the interface for correcting a settled result
type CorrectionService interface {
	Correct(ctx context.Context, req entities.CorrectRequest) (*entities.CorrectionResult, error)
}

// RefundService defines the interface for returning unsettled stakes
type RefundService interface {
	// RefundPendingWagers credits back every unsettled wager in the window and returns how many were refunded
	RefundPendingWagers(ctx context.Context, window entities.BetWindow) (int, error)
}

// PendingMatchService defines the interface for the pending match lifecycle
type PendingMatchService interface {
	OpenPendingMatch(ctx context.Context, req entities.OpenPendingMatchRequest) (*entities.PendingMatch, error)
	GetPendingMatch(ctx context.Context, pendingMatchID int64) (*entities.PendingMatch, error)
	ListPendingMatches(ctx context.Context) ([]*entities.PendingMatch, error)
}

// WagerQueryService defines the interface for read-only wager queries
type WagerQueryService interface {
	GetPotTotals(ctx context.Context, window entities.BetWindow) (entities.PotTotals, error)
	GetPendingWagers(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error)
	GetPlayerPendingWagers(ctx context.Context, window entities.BetWindow, discordID int64) ([]*entities.Wager, error)
}
