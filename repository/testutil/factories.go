package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"jopacoin/database"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"

	"github.com/stretchr/testify/require"
)

// SeedPlayer inserts a player directly, bypassing registration
func SeedPlayer(t *testing.T, db *database.DB, guildID, discordID, balance int64) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`INSERT INTO players (guild_id, discord_id, username, balance) VALUES ($1, $2, $3, $4)`,
		guildID, discordID, "player", balance)
	require.NoError(t, err)
}

// Balance reads a player's balance
func Balance(t *testing.T, db *database.DB, guildID, discordID int64) int64 {
	t.Helper()
	var balance int64
	err := db.QueryRow(context.Background(),
		`SELECT balance FROM players WHERE guild_id = $1 AND discord_id = $2`, guildID, discordID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// SumBalances returns the sum of every balance in a guild
func SumBalances(t *testing.T, db *database.DB, guildID int64) int64 {
	t.Helper()
	var sum int64
	err := db.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(balance), 0) FROM players WHERE guild_id = $1`, guildID).Scan(&sum)
	require.NoError(t, err)
	return sum
}

// CreateTestPendingMatch returns an open pending match
func CreateTestPendingMatch(radiant, dire []int64, mode entities.BettingMode) *entities.PendingMatch {
	now := time.Now().UTC()
	return &entities.PendingMatch{
		RadiantIDs:   radiant,
		DireIDs:      dire,
		BettingMode:  mode,
		ShuffledAt:   now,
		BetLockUntil: now.Add(15 * time.Minute),
	}
}

// CreateTestWager returns a wager in the given window
func CreateTestWager(discordID int64, pendingMatchID *int64, team entities.Team, amount, leverage int64) *entities.Wager {
	return &entities.Wager{
		DiscordID:      discordID,
		PendingMatchID: pendingMatchID,
		Team:           team,
		Amount:         amount,
		Leverage:       leverage,
		BetTime:        time.Now().UTC(),
	}
}

// RecordingPublisher is a transactional publisher that keeps flushed events in memory
type RecordingPublisher struct {
	mu        sync.Mutex
	pending   []events.Event
	Published []events.Event
	Discarded int
}

// Publish holds an event until Flush
func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

// Flush moves held events to Published
func (p *RecordingPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, p.pending...)
	p.pending = nil
	return nil
}

// Discard drops held events
func (p *RecordingPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Discarded += len(p.pending)
	p.pending = nil
}

// Events returns a copy of the flushed events
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.Published...)
}
