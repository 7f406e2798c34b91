package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"jopacoin/application"
	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/infrastructure"
	"jopacoin/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_HouseModeWinnerDoublesStake(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()
	f.setMode(t, entities.BettingModeHouse, 1.0)

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	match := f.openMatch(t, []int64{11}, []int64{12})

	wager, err := f.ledger.PlaceBetOnActiveMatch(ctx, testGuildID, entities.ActiveBetRequest{
		DiscordID: 1,
		Team:      entities.TeamRadiant,
		Amount:    10,
		Leverage:  1,
	})
	require.NoError(t, err)
	require.NotNil(t, wager.PendingMatchID)
	assert.Equal(t, match.ID, *wager.PendingMatchID)
	assert.Equal(t, int64(90), testutil.Balance(t, f.db, testGuildID, 1))

	result, err := f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{
		MatchID:     5001,
		Window:      match.Window(),
		WinningTeam: entities.TeamRadiant,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.BettingModeHouse, result.Mode)
	require.Len(t, result.Winners, 1)
	assert.Equal(t, int64(20), result.Winners[0].Payout)
	assert.Equal(t, int64(110), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, []int64{20}, f.payouts(t, 1))

	// Conservation: winners are credited stake × (1 + multiplier)
	assert.Equal(t, int64(10)*2, result.TotalPaid)

	_, err = f.ledger.GetPendingMatch(ctx, testGuildID, match.ID)
	assert.ErrorIs(t, err, common.ErrNoPendingMatch)
	assert.Len(t, f.published.ofType(events.EventTypeMatchSettled), 1)
}

func TestLedger_PoolModeEvenSides(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 100)
	before := testutil.SumBalances(t, f.db, testGuildID)

	match := f.openMatch(t, []int64{11}, []int64{12})
	f.bet(t, match.Window(), 1, entities.TeamRadiant, 10, 1)
	f.bet(t, match.Window(), 2, entities.TeamDire, 10, 1)

	result, err := f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{
		MatchID:     5002,
		Window:      match.Window(),
		WinningTeam: entities.TeamRadiant,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.BettingModePool, result.Mode)
	require.Len(t, result.Winners, 1)
	require.Len(t, result.Losers, 1)
	assert.Equal(t, int64(20), result.Winners[0].Payout)
	assert.Equal(t, int64(0), result.Losers[0].Payout)
	assert.Equal(t, []int64{20}, f.payouts(t, 1))
	assert.Equal(t, []int64{0}, f.payouts(t, 2))

	// Pool conservation: the whole pot goes back out
	assert.Equal(t, result.TotalPot, result.TotalPaid)
	assert.Equal(t, before, testutil.SumBalances(t, f.db, testGuildID))
}

func TestLedger_PoolCeilingOncePerPlayer(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 100)
	before := testutil.SumBalances(t, f.db, testGuildID)

	match := f.openMatch(t, []int64{11}, []int64{12})
	for i := 0; i < 3; i++ {
		f.bet(t, match.Window(), 1, entities.TeamRadiant, 7, 1)
	}
	f.bet(t, match.Window(), 2, entities.TeamDire, 10, 1)

	result, err := f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{
		MatchID:     5003,
		Window:      match.Window(),
		WinningTeam: entities.TeamRadiant,
	})
	require.NoError(t, err)

	// 21 × 31/21 = 31 for the player, not 3 × ceil(7 × 31/21) = 33
	assert.Equal(t, []int64{10, 10, 11}, f.payouts(t, 1))
	assert.Equal(t, int64(31), result.TotalPaid)
	assert.Equal(t, int64(110), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, before, testutil.SumBalances(t, f.db, testGuildID))
}

func TestLedger_UnbackedOutcomeRefundsEveryone(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 100)

	match := f.openMatch(t, []int64{11}, []int64{12})
	f.bet(t, match.Window(), 1, entities.TeamRadiant, 10, 2)
	f.bet(t, match.Window(), 2, entities.TeamRadiant, 5, 1)

	result, err := f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{
		MatchID:     5004,
		Window:      match.Window(),
		WinningTeam: entities.TeamDire,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Winners)
	require.Len(t, result.Losers, 2)
	for _, loser := range result.Losers {
		assert.True(t, loser.Refunded)
		assert.Equal(t, loser.EffectiveStake, loser.Payout)
	}
	assert.Equal(t, int64(100), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, int64(100), testutil.Balance(t, f.db, testGuildID, 2))
}

func TestLedger_SettlementIsIdempotent(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 100)

	window := entities.WindowSince(time.Now().Add(-time.Minute))
	f.bet(t, window, 1, entities.TeamRadiant, 10, 1)
	f.bet(t, window, 2, entities.TeamDire, 10, 1)

	req := entities.SettleRequest{MatchID: 5005, Window: window, WinningTeam: entities.TeamDire}
	first, err := f.ledger.Settle(ctx, testGuildID, req)
	require.NoError(t, err)
	assert.False(t, first.IsEmpty())

	second, err := f.ledger.Settle(ctx, testGuildID, req)
	require.NoError(t, err)
	assert.True(t, second.IsEmpty())

	// The window is drained, but a replay naming the other winner still conflicts
	flipped := req
	flipped.WinningTeam = entities.TeamRadiant
	_, err = f.ledger.Settle(ctx, testGuildID, flipped)
	assert.ErrorIs(t, err, common.ErrSettlementConflict)

	assert.Equal(t, int64(90), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, int64(110), testutil.Balance(t, f.db, testGuildID, 2))

	settlement, corrections, err := f.ledger.GetSettlement(ctx, testGuildID, 5005)
	require.NoError(t, err)
	require.NotNil(t, settlement)
	assert.Equal(t, 2, settlement.WagerCount)
	assert.Empty(t, corrections)
}

func TestLedger_ConflictingSecondSettlementIsRejected(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 100)

	window := entities.WindowSince(time.Now().Add(-time.Minute))
	f.bet(t, window, 1, entities.TeamRadiant, 10, 1)
	_, err := f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{MatchID: 5006, Window: window, WinningTeam: entities.TeamRadiant})
	require.NoError(t, err)

	// A late wager in the same window settled against the opposite result
	f.bet(t, window, 2, entities.TeamDire, 10, 1)
	_, err = f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{MatchID: 5006, Window: window, WinningTeam: entities.TeamDire})
	assert.ErrorIs(t, err, common.ErrSettlementConflict)
	assert.Equal(t, int64(90), testutil.Balance(t, f.db, testGuildID, 2))
}

func TestLedger_CorrectionOnlyTouchesFlippedWagers(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3, 4} {
		testutil.SeedPlayer(t, f.db, testGuildID, id, 100)
	}

	match := f.openMatch(t, []int64{11}, []int64{12})
	f.bet(t, match.Window(), 1, entities.TeamRadiant, 10, 1)
	f.bet(t, match.Window(), 2, entities.TeamDire, 10, 1)

	// An unrelated match settled in the same guild
	other := f.openMatch(t, []int64{21}, []int64{22})
	f.bet(t, other.Window(), 3, entities.TeamRadiant, 10, 1)
	f.bet(t, other.Window(), 4, entities.TeamDire, 10, 1)
	_, err := f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{MatchID: 6001, Window: other.Window(), WinningTeam: entities.TeamDire})
	require.NoError(t, err)

	_, err = f.ledger.Settle(ctx, testGuildID, entities.SettleRequest{MatchID: 6000, Window: match.Window(), WinningTeam: entities.TeamRadiant})
	require.NoError(t, err)
	assert.Equal(t, int64(110), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, int64(90), testutil.Balance(t, f.db, testGuildID, 2))

	before := testutil.SumBalances(t, f.db, testGuildID)
	correctedBy := int64(77)
	result, err := f.ledger.Correct(ctx, testGuildID, entities.CorrectRequest{
		MatchID:        6000,
		OldWinningTeam: entities.TeamRadiant,
		NewWinningTeam: entities.TeamDire,
		CorrectedBy:    &correctedBy,
	})
	require.NoError(t, err)

	assert.Len(t, result.Reversed, 1)
	assert.Len(t, result.NewWinners, 1)
	assert.Equal(t, map[int64]int64{1: -20, 2: 20}, result.BalanceDeltas)
	assert.Equal(t, int64(90), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, int64(110), testutil.Balance(t, f.db, testGuildID, 2))
	assert.Equal(t, []int64{0}, f.payouts(t, 1))
	assert.Equal(t, []int64{20}, f.payouts(t, 2))
	assert.Equal(t, before, testutil.SumBalances(t, f.db, testGuildID))

	// The other match is untouched
	assert.Equal(t, int64(90), testutil.Balance(t, f.db, testGuildID, 3))
	assert.Equal(t, int64(110), testutil.Balance(t, f.db, testGuildID, 4))

	settlement, corrections, err := f.ledger.GetSettlement(ctx, testGuildID, 6000)
	require.NoError(t, err)
	assert.Equal(t, entities.TeamDire, settlement.WinningTeam)
	require.Len(t, corrections, 1)
	assert.Equal(t, result.CorrectionID, corrections[0].ID)
	require.NotNil(t, corrections[0].CorrectedBy)
	assert.Equal(t, correctedBy, *corrections[0].CorrectedBy)

	// Replaying the same correction is stale now
	_, err = f.ledger.Correct(ctx, testGuildID, entities.CorrectRequest{
		MatchID:        6000,
		OldWinningTeam: entities.TeamRadiant,
		NewWinningTeam: entities.TeamDire,
	})
	assert.ErrorIs(t, err, common.ErrStaleCorrection)
}

func TestLedger_InDebtPlayerCannotBetUnleveraged(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, -50)

	_, err := f.ledger.PlaceBet(ctx, testGuildID, entities.PlaceBetRequest{
		DiscordID: 1,
		Team:      entities.TeamRadiant,
		Amount:    10,
		Leverage:  1,
		Window:    entities.WindowSince(time.Now()),
	})
	assert.ErrorIs(t, err, common.ErrInDebt)
	assert.False(t, common.IsFault(err))
	assert.Equal(t, int64(-50), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, 0, f.wagerCount(t))
}

func TestLedger_LeveragedBetIntoDebt(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 0)

	wager, err := f.ledger.PlaceBet(ctx, testGuildID, entities.PlaceBetRequest{
		DiscordID: 1,
		Team:      entities.TeamDire,
		Amount:    20,
		Leverage:  5,
		Window:    entities.WindowSince(time.Now()),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), wager.EffectiveStake())
	assert.Equal(t, int64(-100), testutil.Balance(t, f.db, testGuildID, 1))

	// Once in debt, further bets are refused outright
	_, err = f.ledger.PlaceBet(ctx, testGuildID, entities.PlaceBetRequest{
		DiscordID: 1,
		Team:      entities.TeamDire,
		Amount:    1,
		Leverage:  2,
		Window:    entities.WindowSince(time.Now()),
	})
	assert.ErrorIs(t, err, common.ErrInDebt)

	// From zero, 5 × 120 would land at -600, 100 past the floor
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 0)
	_, err = f.ledger.PlaceBet(ctx, testGuildID, entities.PlaceBetRequest{
		DiscordID: 2,
		Team:      entities.TeamDire,
		Amount:    120,
		Leverage:  5,
		Window:    entities.WindowSince(time.Now()),
	})
	var rejection *common.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, common.ReasonDebtLimitExceeded, rejection.Reason)
	assert.Equal(t, int64(100), rejection.Shortfall)
	assert.Equal(t, int64(-100), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, int64(0), testutil.Balance(t, f.db, testGuildID, 2))
}

func TestLedger_NoHedging(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	match := f.openMatch(t, []int64{11}, []int64{12})
	f.bet(t, match.Window(), 1, entities.TeamRadiant, 10, 1)

	_, err := f.ledger.PlaceBet(ctx, testGuildID, entities.PlaceBetRequest{
		DiscordID: 1,
		Team:      entities.TeamDire,
		Amount:    10,
		Leverage:  1,
		Window:    match.Window(),
	})
	assert.ErrorIs(t, err, common.ErrTeamConflict)

	// Same side is fine
	f.bet(t, match.Window(), 1, entities.TeamRadiant, 5, 1)

	mine, err := f.ledger.GetPlayerPendingWagers(ctx, testGuildID, match.Window(), 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, w := range mine {
		assert.Equal(t, entities.TeamRadiant, w.Team)
	}
}

func TestLedger_ActiveMatchResolution(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 11, 100)

	bet := func(discordID int64, team entities.Team) error {
		_, err := f.ledger.PlaceBetOnActiveMatch(ctx, testGuildID, entities.ActiveBetRequest{
			DiscordID: discordID,
			Team:      team,
			Amount:    5,
			Leverage:  1,
		})
		return err
	}

	assert.ErrorIs(t, bet(1, entities.TeamRadiant), common.ErrNoPendingMatch)

	f.openMatch(t, []int64{11}, []int64{12})
	assert.ErrorIs(t, bet(11, entities.TeamDire), common.ErrWrongTeamForParticipant)
	require.NoError(t, bet(11, entities.TeamRadiant))

	second := f.openMatch(t, []int64{21}, []int64{22})
	assert.ErrorIs(t, bet(1, entities.TeamRadiant), common.ErrAmbiguousMatch)

	// A participant of exactly one open match is routed to it
	require.NoError(t, bet(11, entities.TeamRadiant))

	// An explicit selector removes the ambiguity
	wager, err := f.ledger.PlaceBetOnActiveMatch(ctx, testGuildID, entities.ActiveBetRequest{
		DiscordID:      1,
		Team:           entities.TeamDire,
		Amount:         5,
		Leverage:       1,
		PendingMatchID: &second.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, *wager.PendingMatchID)

	matches, err := f.ledger.ListPendingMatches(ctx, testGuildID)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestLedger_RefundAbortedMatch(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 100)

	match := f.openMatch(t, []int64{11}, []int64{12})
	f.bet(t, match.Window(), 1, entities.TeamRadiant, 10, 3)
	f.bet(t, match.Window(), 2, entities.TeamDire, 4, 1)

	totals, err := f.ledger.GetPotTotals(ctx, testGuildID, match.Window())
	require.NoError(t, err)
	assert.Equal(t, entities.PotTotals{Radiant: 30, Dire: 4}, totals)

	refunded, err := f.ledger.RefundPendingWagers(ctx, testGuildID, match.Window())
	require.NoError(t, err)
	assert.Equal(t, 2, refunded)

	assert.Equal(t, int64(100), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, int64(100), testutil.Balance(t, f.db, testGuildID, 2))
	assert.Equal(t, 0, f.wagerCount(t))

	_, err = f.ledger.GetPendingMatch(ctx, testGuildID, match.ID)
	assert.ErrorIs(t, err, common.ErrNoPendingMatch)
	assert.Len(t, f.published.ofType(events.EventTypeWagersRefunded), 1)
}

func TestLedger_CreateBlindBets(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 100)
	testutil.SeedPlayer(t, f.db, testGuildID, 2, 49)
	testutil.SeedPlayer(t, f.db, testGuildID, 3, 50)

	match := f.openMatch(t, []int64{1, 2}, []int64{3})

	result, err := f.ledger.CreateBlindBets(ctx, testGuildID, match.ID)
	require.NoError(t, err)

	require.Len(t, result.Placed, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, int64(2), result.Skipped[0].DiscordID)
	assert.Equal(t, int64(5), result.TotalRadiant)
	assert.Equal(t, int64(2), result.TotalDire)
	for _, w := range result.Placed {
		assert.True(t, w.IsBlind)
		assert.Equal(t, int64(1), w.Leverage)
	}

	assert.Equal(t, int64(95), testutil.Balance(t, f.db, testGuildID, 1))
	assert.Equal(t, int64(49), testutil.Balance(t, f.db, testGuildID, 2))
	assert.Equal(t, int64(48), testutil.Balance(t, f.db, testGuildID, 3))

	_, err = f.ledger.CreateBlindBets(ctx, testGuildID, match.ID+1000)
	assert.ErrorIs(t, err, common.ErrNoPendingMatch)
}

func TestLedger_FaultRollsBackEverything(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	published := &capturePublisher{}
	factory := &failingHistoryFactory{inner: infrastructure.NewUnitOfWorkFactoryWrapper(testDB.DB, published)}
	ledger := application.NewLedger(factory)

	testutil.SeedPlayer(t, testDB.DB, testGuildID, 1, 100)

	_, err := ledger.PlaceBet(ctx, testGuildID, entities.PlaceBetRequest{
		DiscordID: 1,
		Team:      entities.TeamRadiant,
		Amount:    10,
		Leverage:  1,
		Window:    entities.WindowSince(time.Now()),
	})
	require.Error(t, err)
	assert.True(t, common.IsFault(err))
	assert.False(t, common.IsRejection(err))
	assert.ErrorIs(t, err, errHistoryUnavailable)

	// Neither the debit nor the wager row survived, and nothing was published
	assert.Equal(t, int64(100), testutil.Balance(t, testDB.DB, testGuildID, 1))
	var wagers int
	require.NoError(t, testDB.DB.QueryRow(ctx, `SELECT COUNT(*) FROM wagers`).Scan(&wagers))
	assert.Equal(t, 0, wagers)
	assert.Empty(t, published.ofType(events.EventTypeWagerPlaced))
}

func TestLedger_ConcurrentPlacementsRespectBalance(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, f.db, testGuildID, 1, 10)
	window := entities.WindowSince(time.Now().Add(-time.Minute))

	const attempts = 6
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.PlaceBet(ctx, testGuildID, entities.PlaceBetRequest{
				DiscordID: 1,
				Team:      entities.TeamRadiant,
				Amount:    4,
				Leverage:  1,
				Window:    window,
			})
		}(i)
	}
	wg.Wait()

	var placed int
	for _, err := range errs {
		if err == nil {
			placed++
			continue
		}
		assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	}
	assert.Equal(t, 2, placed)
	assert.Equal(t, int64(2), testutil.Balance(t, f.db, testGuildID, 1))
}

func TestLedger_RegisterPlayer(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	player, err := f.ledger.RegisterPlayer(ctx, testGuildID, 42, "sven")
	require.NoError(t, err)
	assert.Equal(t, int64(3), player.Balance)

	again, err := f.ledger.RegisterPlayer(ctx, testGuildID, 42, "sven")
	require.NoError(t, err)
	assert.Equal(t, player.CreatedAt, again.CreatedAt)

	history, err := f.ledger.GetBalanceHistory(ctx, testGuildID, 42, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entities.TransactionTypeInitial, history[0].TransactionType)

	_, err = f.ledger.GetPlayer(ctx, testGuildID, 43)
	assert.ErrorIs(t, err, common.ErrPlayerNotFound)
	assert.Len(t, f.published.ofType(events.EventTypePlayerRegistered), 1)
}
