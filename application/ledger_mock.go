package application

import (
	"context"

	"jopacoin/domain/entities"

	"github.com/stretchr/testify/mock"
)

// MockLedger is a mock implementation of Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) RegisterPlayer(ctx context.Context, guildID, discordID int64, username string) (*entities.Player, error) {
	args := m.Called(ctx, guildID, discordID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockLedger) GetPlayer(ctx context.Context, guildID, discordID int64) (*entities.Player, error) {
	args := m.Called(ctx, guildID, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockLedger) GetBalanceHistory(ctx context.Context, guildID, discordID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, guildID, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

func (m *MockLedger) OpenPendingMatch(ctx context.Context, guildID int64, req entities.OpenPendingMatchRequest) (*entities.PendingMatch, error) {
	args := m.Called(ctx, guildID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingMatch), args.Error(1)
}

func (m *MockLedger) GetPendingMatch(ctx context.Context, guildID, pendingMatchID int64) (*entities.PendingMatch, error) {
	args := m.Called(ctx, guildID, pendingMatchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingMatch), args.Error(1)
}

func (m *MockLedger) ListPendingMatches(ctx context.Context, guildID int64) ([]*entities.PendingMatch, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PendingMatch), args.Error(1)
}

func (m *MockLedger) PlaceBet(ctx context.Context, guildID int64, req entities.PlaceBetRequest) (*entities.Wager, error) {
	args := m.Called(ctx, guildID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockLedger) PlaceBetOnActiveMatch(ctx context.Context, guildID int64, req entities.ActiveBetRequest) (*entities.Wager, error) {
	args := m.Called(ctx, guildID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockLedger) CreateBlindBets(ctx context.Context, guildID, pendingMatchID int64) (*entities.BlindBetResult, error) {
	args := m.Called(ctx, guildID, pendingMatchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BlindBetResult), args.Error(1)
}

func (m *MockLedger) GetPotTotals(ctx context.Context, guildID int64, window entities.BetWindow) (entities.PotTotals, error) {
	args := m.Called(ctx, guildID, window)
	return args.Get(0).(entities.PotTotals), args.Error(1)
}

func (m *MockLedger) GetPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow) ([]*entities.Wager, error) {
	args := m.Called(ctx, guildID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockLedger) GetPlayerPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow, discordID int64) ([]*entities.Wager, error) {
	args := m.Called(ctx, guildID, window, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockLedger) Settle(ctx context.Context, guildID int64, req entities.SettleRequest) (*entities.SettlementResult, error) {
	args := m.Called(ctx, guildID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementResult), args.Error(1)
}

func (m *MockLedger) Correct(ctx context.Context, guildID int64, req entities.CorrectRequest) (*entities.CorrectionResult, error) {
	args := m.Called(ctx, guildID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CorrectionResult), args.Error(1)
}

func (m *MockLedger) RefundPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow) (int, error) {
	args := m.Called(ctx, guildID, window)
	return args.Int(0), args.Error(1)
}

func (m *MockLedger) GetSettlement(ctx context.Context, guildID, matchID int64) (*entities.MatchSettlement, []*entities.MatchCorrection, error) {
	args := m.Called(ctx, guildID, matchID)
	var settlement *entities.MatchSettlement
	if v := args.Get(0); v != nil {
		settlement = v.(*entities.MatchSettlement)
	}
	var corrections []*entities.MatchCorrection
	if v := args.Get(1); v != nil {
		corrections = v.([]*entities.MatchCorrection)
	}
	return settlement, corrections, args.Error(2)
}

func (m *MockLedger) GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockLedger) UpdateGuildSettings(ctx context.Context, guildID int64, settings *entities.GuildSettings) error {
	args := m.Called(ctx, guildID, settings)
	return args.Error(0)
}
