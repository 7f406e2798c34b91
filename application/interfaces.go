package application

import (
	"context"

	"jopacoin/domain/entities"
)

// Ledger is the transactional entry point to the jopacoin ledger. Every call
// runs in its own unit of work scoped to one guild. Errors are either a
// *common.RejectionError, returned as is, or a *common.FaultError.
type Ledger interface {
	// Players
	RegisterPlayer(ctx context.Context, guildID, discordID int64, username string) (*entities.Player, error)
	GetPlayer(ctx context.Context, guildID, discordID int64) (*entities.Player, error)
	GetBalanceHistory(ctx context.Context, guildID, discordID int64, limit int) ([]*entities.BalanceHistory, error)

	// Pending matches
	OpenPendingMatch(ctx context.Context, guildID int64, req entities.OpenPendingMatchRequest) (*entities.PendingMatch, error)
	GetPendingMatch(ctx context.Context, guildID, pendingMatchID int64) (*entities.PendingMatch, error)
	ListPendingMatches(ctx context.Context, guildID int64) ([]*entities.PendingMatch, error)

	// Wagers
	PlaceBet(ctx context.Context, guildID int64, req entities.PlaceBetRequest) (*entities.Wager, error)
	PlaceBetOnActiveMatch(ctx context.Context, guildID int64, req entities.ActiveBetRequest) (*entities.Wager, error)
	CreateBlindBets(ctx context.Context, guildID, pendingMatchID int64) (*entities.BlindBetResult, error)
	GetPotTotals(ctx context.Context, guildID int64, window entities.BetWindow) (entities.PotTotals, error)
	GetPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow) ([]*entities.Wager, error)
	GetPlayerPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow, discordID int64) ([]*entities.Wager, error)

	// Results
	Settle(ctx context.Context, guildID int64, req entities.SettleRequest) (*entities.SettlementResult, error)
	Correct(ctx context.Context, guildID int64, req entities.CorrectRequest) (*entities.CorrectionResult, error)
	RefundPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow) (int, error)
	GetSettlement(ctx context.Context, guildID, matchID int64) (*entities.MatchSettlement, []*entities.MatchCorrection, error)

	// Guild settings
	GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)
	UpdateGuildSettings(ctx context.Context, guildID int64, settings *entities.GuildSettings) error
}

// MatchResultHandler applies match lifecycle commands received from the match recorder
type MatchResultHandler interface {
	HandleMatchRecorded(ctx context.Context, data []byte) error
	HandleMatchCorrected(ctx context.Context, data []byte) error
	HandleMatchAborted(ctx context.Context, data []byte) error
}
