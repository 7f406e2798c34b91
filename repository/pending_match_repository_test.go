package repository

import (
	"context"
	"testing"

	"jopacoin/domain/entities"
	"jopacoin/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMatchRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := newPendingMatchRepository(testDB.DB.Pool, testGuildID)

	first := testutil.CreateTestPendingMatch([]int64{1, 2}, []int64{3, 4}, entities.BettingModePool)
	second := testutil.CreateTestPendingMatch([]int64{5}, []int64{6}, entities.BettingModeHouse)
	second.IsBombPot = true
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, testGuildID, first.GuildID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int64{1, 2}, got.RadiantIDs)
	assert.Equal(t, []int64{3, 4}, got.DireIDs)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[1].IsBombPot)

	busy, err := repo.FindRosteredPlayers(ctx, []int64{4, 6, 9})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6}, busy)

	require.NoError(t, repo.Delete(ctx, first.ID))
	gone, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	busy, err = repo.FindRosteredPlayers(ctx, []int64{4})
	require.NoError(t, err)
	assert.Empty(t, busy)
}
