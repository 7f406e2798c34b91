package repository

import (
	"context"
	"testing"

	"jopacoin/domain/entities"
	"jopacoin/domain/utils"
	"jopacoin/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSettlementRepository_UpsertAccumulates(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := newMatchSettlementRepository(testDB.DB.Pool, testGuildID)

	firstID := utils.NewID()
	first := &entities.MatchSettlement{
		MatchID:         900,
		SettlementID:    firstID,
		WinningTeam:     entities.TeamRadiant,
		BettingMode:     entities.BettingModeHouse,
		HouseMultiplier: 1.0,
		WagerCount:      2,
		TotalPaid:       20,
	}
	require.NoError(t, repo.Upsert(ctx, first))
	assert.Equal(t, testGuildID, first.GuildID)

	second := &entities.MatchSettlement{
		MatchID:         900,
		SettlementID:    utils.NewID(),
		WinningTeam:     entities.TeamRadiant,
		BettingMode:     entities.BettingModePool,
		HouseMultiplier: 3.0,
		WagerCount:      1,
		TotalPaid:       5,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, firstID, second.SettlementID)
	assert.Equal(t, entities.BettingModeHouse, second.BettingMode)
	assert.Equal(t, 3, second.WagerCount)
	assert.Equal(t, int64(25), second.TotalPaid)
}

func TestMatchSettlementRepository_Corrections(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := newMatchSettlementRepository(testDB.DB.Pool, testGuildID)

	require.NoError(t, repo.Upsert(ctx, &entities.MatchSettlement{
		MatchID:      901,
		SettlementID: utils.NewID(),
		WinningTeam:  entities.TeamRadiant,
		BettingMode:  entities.BettingModePool,
	}))

	require.NoError(t, repo.UpdateWinner(ctx, 901, entities.TeamDire))
	assert.Error(t, repo.UpdateWinner(ctx, 902, entities.TeamDire))

	correctedBy := int64(77)
	require.NoError(t, repo.RecordCorrection(ctx, &entities.MatchCorrection{
		ID:               utils.NewID(),
		MatchID:          901,
		OldWinningTeam:   entities.TeamRadiant,
		NewWinningTeam:   entities.TeamDire,
		BettingMode:      entities.BettingModePool,
		CorrectedBy:      &correctedBy,
		WagersAffected:   2,
		NetBalanceChange: 0,
	}))

	record, err := repo.Get(ctx, 901)
	require.NoError(t, err)
	assert.Equal(t, entities.TeamDire, record.WinningTeam)

	corrections, err := repo.GetCorrections(ctx, 901)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, correctedBy, *corrections[0].CorrectedBy)
}
