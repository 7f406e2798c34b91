package services

import (
	"context"
	"testing"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlayerService_RegisterPlayer(t *testing.T) {
	m := NewTestMocks(t)
	svc := NewPlayerService(m.PlayerRepo, m.BalanceHistoryRepo, m.EventPublisher)

	m.PlayerRepo.On("GetByDiscordID", mock.Anything, TestPlayerA).Return(nil, nil)
	m.PlayerRepo.On("Create", mock.Anything, TestPlayerA, "alice", int64(3)).Return(&entities.Player{
		GuildID: TestGuildID, DiscordID: TestPlayerA, Username: "alice", Balance: 3,
	}, nil)
	m.BalanceHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeInitial && h.BalanceBefore == 0 && h.BalanceAfter == 3
	})).Return(nil)
	m.ExpectEventPublish(events.EventTypeBalanceChange)
	m.ExpectEventPublish(events.EventTypePlayerRegistered)

	player, err := svc.RegisterPlayer(context.Background(), TestPlayerA, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), player.Balance)
	m.AssertAllExpectations(t)
}

func TestPlayerService_RegisterPlayer_Existing(t *testing.T) {
	m := NewTestMocks(t)
	svc := NewPlayerService(m.PlayerRepo, m.BalanceHistoryRepo, m.EventPublisher)

	existing := &entities.Player{GuildID: TestGuildID, DiscordID: TestPlayerA, Balance: -20}
	m.PlayerRepo.On("GetByDiscordID", mock.Anything, TestPlayerA).Return(existing, nil)

	player, err := svc.RegisterPlayer(context.Background(), TestPlayerA, "alice")
	require.NoError(t, err)
	assert.Same(t, existing, player)
	m.PlayerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPlayerService_GetPlayer_NotFound(t *testing.T) {
	m := NewTestMocks(t)
	svc := NewPlayerService(m.PlayerRepo, m.BalanceHistoryRepo, m.EventPublisher)

	m.PlayerRepo.On("GetByDiscordID", mock.Anything, TestPlayerA).Return(nil, nil)

	_, err := svc.GetPlayer(context.Background(), TestPlayerA)
	assert.ErrorIs(t, err, common.ErrPlayerNotFound)
}
