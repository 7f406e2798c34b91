package testhelpers

import (
	"context"

	"jopacoin/domain/entities"
	"jopacoin/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockPlayerRepository is a mock implementation of PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.Player, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.Player, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByDiscordIDs(ctx context.Context, discordIDs []int64) ([]*entities.Player, error) {
	args := m.Called(ctx, discordIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) Create(ctx context.Context, discordID int64, username string, startingBalance int64) (*entities.Player, error) {
	args := m.Called(ctx, discordID, username, startingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) ApplyBalanceDeltas(ctx context.Context, deltas []entities.BalanceDelta) ([]entities.BalanceChange, error) {
	args := m.Called(ctx, deltas)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.BalanceChange), args.Error(1)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetPendingByWindow(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) LockPendingByWindow(ctx context.Context, window entities.BetWindow) ([]*entities.Wager, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetPlayerPendingByWindow(ctx context.Context, window entities.BetWindow, discordID int64) ([]*entities.Wager, error) {
	args := m.Called(ctx, window, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetPotTotals(ctx context.Context, window entities.BetWindow) (entities.PotTotals, error) {
	args := m.Called(ctx, window)
	return args.Get(0).(entities.PotTotals), args.Error(1)
}

func (m *MockWagerRepository) LockByMatchID(ctx context.Context, matchID int64) ([]*entities.Wager, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) ApplySettlement(ctx context.Context, matchID int64, payouts []entities.WagerPayout) error {
	args := m.Called(ctx, matchID, payouts)
	return args.Error(0)
}

func (m *MockWagerRepository) UpdatePayouts(ctx context.Context, payouts []entities.WagerPayout) error {
	args := m.Called(ctx, payouts)
	return args.Error(0)
}

func (m *MockWagerRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockPendingMatchRepository is a mock implementation of PendingMatchRepository
type MockPendingMatchRepository struct {
	mock.Mock
}

func (m *MockPendingMatchRepository) Create(ctx context.Context, match *entities.PendingMatch) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockPendingMatchRepository) GetByID(ctx context.Context, id int64) (*entities.PendingMatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingMatch), args.Error(1)
}

func (m *MockPendingMatchRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.PendingMatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingMatch), args.Error(1)
}

func (m *MockPendingMatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.PendingMatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingMatch), args.Error(1)
}

func (m *MockPendingMatchRepository) List(ctx context.Context) ([]*entities.PendingMatch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PendingMatch), args.Error(1)
}

func (m *MockPendingMatchRepository) FindRosteredPlayers(ctx context.Context, discordIDs []int64) ([]int64, error) {
	args := m.Called(ctx, discordIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockPendingMatchRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) RecordBatch(ctx context.Context, histories []*entities.BalanceHistory) error {
	args := m.Called(ctx, histories)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByPlayer(ctx context.Context, discordID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockGuildSettingsRepository is a mock implementation of GuildSettingsRepository
type MockGuildSettingsRepository struct {
	mock.Mock
}

func (m *MockGuildSettingsRepository) GetOrCreate(ctx context.Context, defaults *entities.GuildSettings) (*entities.GuildSettings, error) {
	args := m.Called(ctx, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) Upsert(ctx context.Context, settings *entities.GuildSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockMatchSettlementRepository is a mock implementation of MatchSettlementRepository
type MockMatchSettlementRepository struct {
	mock.Mock
}

func (m *MockMatchSettlementRepository) GetForUpdate(ctx context.Context, matchID int64) (*entities.MatchSettlement, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MatchSettlement), args.Error(1)
}

func (m *MockMatchSettlementRepository) Get(ctx context.Context, matchID int64) (*entities.MatchSettlement, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MatchSettlement), args.Error(1)
}

func (m *MockMatchSettlementRepository) Upsert(ctx context.Context, settlement *entities.MatchSettlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockMatchSettlementRepository) UpdateWinner(ctx context.Context, matchID int64, winningTeam entities.Team) error {
	args := m.Called(ctx, matchID, winningTeam)
	return args.Error(0)
}

func (m *MockMatchSettlementRepository) RecordCorrection(ctx context.Context, correction *entities.MatchCorrection) error {
	args := m.Called(ctx, correction)
	return args.Error(0)
}

func (m *MockMatchSettlementRepository) GetCorrections(ctx context.Context, matchID int64) ([]*entities.MatchCorrection, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MatchCorrection), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
