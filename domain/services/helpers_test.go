package services

import (
	"testing"
	"time"

	"jopacoin/config"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestGuildID        = int64(555555555)
	TestPlayerA        = int64(100)
	TestPlayerB        = int64(200)
	TestPlayerC        = int64(300)
	TestPlayerD        = int64(400)
	TestPendingMatchID = int64(7)
	TestMatchID        = int64(9001)
)

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	PlayerRepo         *testhelpers.MockPlayerRepository
	WagerRepo          *testhelpers.MockWagerRepository
	PendingMatchRepo   *testhelpers.MockPendingMatchRepository
	BalanceHistoryRepo *testhelpers.MockBalanceHistoryRepository
	GuildSettingsRepo  *testhelpers.MockGuildSettingsRepository
	SettlementRepo     *testhelpers.MockMatchSettlementRepository
	EventPublisher     *testhelpers.MockEventPublisher
}

// NewTestMocks creates a new set of mocks and installs the test config
func NewTestMocks(t *testing.T) *TestMocks {
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)

	return &TestMocks{
		PlayerRepo:         &testhelpers.MockPlayerRepository{},
		WagerRepo:          &testhelpers.MockWagerRepository{},
		PendingMatchRepo:   &testhelpers.MockPendingMatchRepository{},
		BalanceHistoryRepo: &testhelpers.MockBalanceHistoryRepository{},
		GuildSettingsRepo:  &testhelpers.MockGuildSettingsRepository{},
		SettlementRepo:     &testhelpers.MockMatchSettlementRepository{},
		EventPublisher:     &testhelpers.MockEventPublisher{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.PlayerRepo.AssertExpectations(t)
	m.WagerRepo.AssertExpectations(t)
	m.PendingMatchRepo.AssertExpectations(t)
	m.BalanceHistoryRepo.AssertExpectations(t)
	m.GuildSettingsRepo.AssertExpectations(t)
	m.SettlementRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
}

// ExpectSettings returns the given settings from GetOrCreate
func (m *TestMocks) ExpectSettings(settings *entities.GuildSettings) {
	m.GuildSettingsRepo.On("GetOrCreate", mock.Anything, mock.Anything).Return(settings, nil)
}

// ExpectPlayerLocked returns a player at the given balance from the row lock
func (m *TestMocks) ExpectPlayerLocked(discordID, balance int64) {
	m.PlayerRepo.On("GetByDiscordIDForUpdate", mock.Anything, discordID).Return(&entities.Player{
		GuildID:   TestGuildID,
		DiscordID: discordID,
		Balance:   balance,
	}, nil)
}

// ExpectEventPublish accepts any event of the given type
func (m *TestMocks) ExpectEventPublish(eventType events.EventType) {
	m.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil)
}

// AllowAnyEvents accepts every published event
func (m *TestMocks) AllowAnyEvents() {
	m.EventPublisher.On("Publish", mock.Anything).Return(nil).Maybe()
}

// defaultSettings mirrors the test config defaults
func defaultSettings() *entities.GuildSettings {
	return &entities.GuildSettings{
		GuildID:         TestGuildID,
		BettingMode:     entities.BettingModePool,
		HouseMultiplier: 1.0,
		MaxDebt:         500,
		LeverageTiers:   []int64{2, 3, 5},
		BetLockSeconds:  900,
	}
}

func openMatch(id int64, radiant, dire []int64) *entities.PendingMatch {
	now := time.Now()
	return &entities.PendingMatch{
		ID:           id,
		GuildID:      TestGuildID,
		RadiantIDs:   radiant,
		DireIDs:      dire,
		BettingMode:  entities.BettingModePool,
		ShuffledAt:   now.Add(-time.Minute),
		BetLockUntil: now.Add(10 * time.Minute),
	}
}

func wager(id, discordID int64, team entities.Team, amount, leverage int64) *entities.Wager {
	return &entities.Wager{
		ID:        id,
		GuildID:   TestGuildID,
		DiscordID: discordID,
		Team:      team,
		Amount:    amount,
		Leverage:  leverage,
	}
}

func settledWager(id, discordID int64, team entities.Team, amount, leverage int64, outcome entities.WagerOutcome, payout int64) *entities.Wager {
	w := wager(id, discordID, team, amount, leverage)
	matchID := TestMatchID
	w.MatchID = &matchID
	w.Outcome = &outcome
	w.Payout = &payout
	return w
}

func int64Ptr(v int64) *int64 { return &v }
