package services

import (
	"context"
	"math"
	"testing"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSettlement(m *TestMocks) *settlementService {
	return NewSettlementService(m.PlayerRepo, m.WagerRepo, m.PendingMatchRepo, m.BalanceHistoryRepo, m.GuildSettingsRepo, m.SettlementRepo, m.EventPublisher).(*settlementService)
}

func houseMode() *entities.BettingMode {
	mode := entities.BettingModeHouse
	return &mode
}

func TestSettlementService_Settle_HouseSingleWinner(t *testing.T) {
	m := NewTestMocks(t)
	ctx := context.Background()
	window := entities.WindowForPendingMatch(TestPendingMatchID)
	match := openMatch(TestPendingMatchID, []int64{TestPlayerB}, []int64{TestPlayerC})

	m.PendingMatchRepo.On("GetByIDForUpdate", mock.Anything, TestPendingMatchID).Return(match, nil)
	m.WagerRepo.On("LockPendingByWindow", mock.Anything, window).Return([]*entities.Wager{
		wager(1, TestPlayerA, entities.TeamRadiant, 10, 1),
	}, nil)
	m.SettlementRepo.On("GetForUpdate", mock.Anything, TestMatchID).Return(nil, nil)
	m.ExpectSettings(defaultSettings())
	m.PlayerRepo.On("ApplyBalanceDeltas", mock.Anything, []entities.BalanceDelta{{DiscordID: TestPlayerA, Amount: 20}}).
		Return([]entities.BalanceChange{{DiscordID: TestPlayerA, BalanceBefore: 0, BalanceAfter: 20}}, nil)
	m.BalanceHistoryRepo.On("RecordBatch", mock.Anything, mock.MatchedBy(func(h []*entities.BalanceHistory) bool {
		return len(h) == 1 && h[0].ChangeAmount == 20 && h[0].TransactionType == entities.TransactionTypeWagerPayout
	})).Return(nil)
	m.WagerRepo.On("ApplySettlement", mock.Anything, TestMatchID, []entities.WagerPayout{
		{WagerID: 1, Payout: 20, Outcome: entities.WagerOutcomeWon},
	}).Return(nil)
	m.SettlementRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *entities.MatchSettlement) bool {
		return s.MatchID == TestMatchID && s.BettingMode == entities.BettingModeHouse && s.TotalPaid == 20 && len(s.SettlementID) == 26
	})).Return(nil)
	m.PendingMatchRepo.On("Delete", mock.Anything, TestPendingMatchID).Return(nil)
	m.AllowAnyEvents()

	result, err := newSettlement(m).Settle(ctx, entities.SettleRequest{
		MatchID:     TestMatchID,
		Window:      window,
		WinningTeam: entities.TeamRadiant,
		Mode:        houseMode(),
	})
	require.NoError(t, err)

	require.Len(t, result.Winners, 1)
	assert.Empty(t, result.Losers)
	assert.Equal(t, int64(20), result.Winners[0].Payout)
	assert.Equal(t, int64(20), result.TotalPaid)
	m.AssertAllExpectations(t)
}

func TestSettlementService_Settle_PoolUsesPendingMatchMode(t *testing.T) {
	m := NewTestMocks(t)
	window := entities.WindowForPendingMatch(TestPendingMatchID)
	match := openMatch(TestPendingMatchID, []int64{TestPlayerC}, []int64{TestPlayerD})

	m.PendingMatchRepo.On("GetByIDForUpdate", mock.Anything, TestPendingMatchID).Return(match, nil)
	m.WagerRepo.On("LockPendingByWindow", mock.Anything, window).Return([]*entities.Wager{
		wager(1, TestPlayerA, entities.TeamRadiant, 10, 1),
		wager(2, TestPlayerB, entities.TeamDire, 10, 1),
	}, nil)
	m.SettlementRepo.On("GetForUpdate", mock.Anything, TestMatchID).Return(nil, nil)
	houseDefault := defaultSettings()
	houseDefault.BettingMode = entities.BettingModeHouse
	m.ExpectSettings(houseDefault)
	m.PlayerRepo.On("ApplyBalanceDeltas", mock.Anything, []entities.BalanceDelta{{DiscordID: TestPlayerA, Amount: 20}}).
		Return([]entities.BalanceChange{{DiscordID: TestPlayerA, BalanceBefore: 0, BalanceAfter: 20}}, nil)
	m.BalanceHistoryRepo.On("RecordBatch", mock.Anything, mock.Anything).Return(nil)
	m.WagerRepo.On("ApplySettlement", mock.Anything, TestMatchID, []entities.WagerPayout{
		{WagerID: 1, Payout: 20, Outcome: entities.WagerOutcomeWon},
		{WagerID: 2, Payout: 0, Outcome: entities.WagerOutcomeLost},
	}).Return(nil)
	m.SettlementRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *entities.MatchSettlement) bool {
		return s.BettingMode == entities.BettingModePool
	})).Return(nil)
	m.PendingMatchRepo.On("Delete", mock.Anything, TestPendingMatchID).Return(nil)
	m.AllowAnyEvents()

	result, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
		MatchID: TestMatchID, Window: window, WinningTeam: entities.TeamRadiant,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.BettingModePool, result.Mode)
	require.Len(t, result.Winners, 1)
	require.Len(t, result.Losers, 1)
	require.NotNil(t, result.Winners[0].Multiplier)
	assert.Equal(t, 2.0, *result.Winners[0].Multiplier)
	assert.Equal(t, int64(0), result.Losers[0].Payout)
	m.AssertAllExpectations(t)
}

func TestSettlementService_Settle_EmptyWindowIsNoop(t *testing.T) {
	m := NewTestMocks(t)
	window := entities.WindowForPendingMatch(TestPendingMatchID)

	m.PendingMatchRepo.On("GetByIDForUpdate", mock.Anything, TestPendingMatchID).Return(nil, nil)
	m.WagerRepo.On("LockPendingByWindow", mock.Anything, window).Return([]*entities.Wager{}, nil)
	m.SettlementRepo.On("GetForUpdate", mock.Anything, TestMatchID).Return(nil, nil)

	result, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
		MatchID: TestMatchID, Window: window, WinningTeam: entities.TeamDire,
	})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	m.PlayerRepo.AssertNotCalled(t, "ApplyBalanceDeltas", mock.Anything, mock.Anything)
	m.SettlementRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_RefundWhenWinnerUnbacked(t *testing.T) {
	m := NewTestMocks(t)
	window := entities.WindowForPendingMatch(TestPendingMatchID)

	m.PendingMatchRepo.On("GetByIDForUpdate", mock.Anything, TestPendingMatchID).Return(nil, nil)
	m.WagerRepo.On("LockPendingByWindow", mock.Anything, window).Return([]*entities.Wager{
		wager(1, TestPlayerA, entities.TeamDire, 10, 2),
		wager(2, TestPlayerB, entities.TeamDire, 5, 1),
	}, nil)
	m.SettlementRepo.On("GetForUpdate", mock.Anything, TestMatchID).Return(nil, nil)
	m.ExpectSettings(defaultSettings())
	m.PlayerRepo.On("ApplyBalanceDeltas", mock.Anything, []entities.BalanceDelta{
		{DiscordID: TestPlayerA, Amount: 20},
		{DiscordID: TestPlayerB, Amount: 5},
	}).Return([]entities.BalanceChange{
		{DiscordID: TestPlayerA, BalanceBefore: 0, BalanceAfter: 20},
		{DiscordID: TestPlayerB, BalanceBefore: 0, BalanceAfter: 5},
	}, nil)
	m.BalanceHistoryRepo.On("RecordBatch", mock.Anything, mock.MatchedBy(func(h []*entities.BalanceHistory) bool {
		return len(h) == 2 && h[0].TransactionType == entities.TransactionTypeWagerRefund
	})).Return(nil)
	m.WagerRepo.On("ApplySettlement", mock.Anything, TestMatchID, mock.Anything).Return(nil)
	m.SettlementRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.AllowAnyEvents()

	result, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
		MatchID: TestMatchID, Window: window, WinningTeam: entities.TeamRadiant,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Winners)
	require.Len(t, result.Losers, 2)
	for _, entry := range result.Losers {
		assert.True(t, entry.Refunded)
		assert.Equal(t, entry.EffectiveStake, entry.Payout)
	}
	m.AssertAllExpectations(t)
}

func TestSettlementService_Settle_ConflictingWinner(t *testing.T) {
	m := NewTestMocks(t)
	window := entities.WindowSince(openMatch(1, nil, nil).ShuffledAt)

	m.WagerRepo.On("LockPendingByWindow", mock.Anything, window).Return([]*entities.Wager{
		wager(1, TestPlayerA, entities.TeamDire, 10, 1),
	}, nil)
	m.SettlementRepo.On("GetForUpdate", mock.Anything, TestMatchID).Return(&entities.MatchSettlement{
		MatchID: TestMatchID, WinningTeam: entities.TeamRadiant, BettingMode: entities.BettingModePool,
	}, nil)

	_, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
		MatchID: TestMatchID, Window: window, WinningTeam: entities.TeamDire,
	})
	assert.ErrorIs(t, err, common.ErrSettlementConflict)
	m.PendingMatchRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_InvalidWinner(t *testing.T) {
	m := NewTestMocks(t)
	_, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
		MatchID: TestMatchID, Window: entities.WindowForPendingMatch(1), WinningTeam: "draw",
	})
	assert.ErrorIs(t, err, common.ErrInvalidTeam)
}

func TestSettlementService_Settle_DrainedWindowReplayWithOtherWinnerConflicts(t *testing.T) {
	m := NewTestMocks(t)
	window := entities.WindowForPendingMatch(TestPendingMatchID)

	m.PendingMatchRepo.On("GetByIDForUpdate", mock.Anything, TestPendingMatchID).Return(nil, nil)
	m.WagerRepo.On("LockPendingByWindow", mock.Anything, window).Return([]*entities.Wager{}, nil)
	m.SettlementRepo.On("GetForUpdate", mock.Anything, TestMatchID).Return(&entities.MatchSettlement{
		MatchID: TestMatchID, WinningTeam: entities.TeamRadiant, BettingMode: entities.BettingModePool,
	}, nil)

	_, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
		MatchID: TestMatchID, Window: window, WinningTeam: entities.TeamDire,
	})
	assert.ErrorIs(t, err, common.ErrSettlementConflict)

	// the same winner replayed is still a no-op
	result, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
		MatchID: TestMatchID, Window: window, WinningTeam: entities.TeamRadiant,
	})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestSettlementService_Settle_RejectsBadHouseMultiplier(t *testing.T) {
	for name, multiplier := range map[string]float64{
		"negative": -0.5,
		"nan":      math.NaN(),
		"infinite": math.Inf(1),
		"huge":     1e300,
	} {
		t.Run(name, func(t *testing.T) {
			m := NewTestMocks(t)
			window := entities.WindowForPendingMatch(TestPendingMatchID)

			m.PendingMatchRepo.On("GetByIDForUpdate", mock.Anything, TestPendingMatchID).Return(nil, nil)
			m.WagerRepo.On("LockPendingByWindow", mock.Anything, window).Return([]*entities.Wager{
				wager(1, TestPlayerA, entities.TeamRadiant, 10, 1),
			}, nil)
			m.SettlementRepo.On("GetForUpdate", mock.Anything, TestMatchID).Return(nil, nil)
			m.ExpectSettings(defaultSettings())

			mult := multiplier
			_, err := newSettlement(m).Settle(context.Background(), entities.SettleRequest{
				MatchID:         TestMatchID,
				Window:          window,
				WinningTeam:     entities.TeamRadiant,
				Mode:            houseMode(),
				HouseMultiplier: &mult,
			})
			require.ErrorIs(t, err, common.ErrInvalidHouseMultiplier)
			assert.True(t, common.IsRejection(err))
			m.PlayerRepo.AssertNotCalled(t, "ApplyBalanceDeltas", mock.Anything, mock.Anything)
		})
	}
}
