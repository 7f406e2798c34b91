package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"jopacoin/application"
	"jopacoin/database"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"
	"jopacoin/infrastructure"
	"jopacoin/repository/testutil"

	"github.com/stretchr/testify/require"
)

const testGuildID = int64(1018733499869577296)

// capturePublisher records events that made it past commit
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) ofType(eventType events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type ledgerFixture struct {
	ledger    application.Ledger
	db        *database.DB
	published *capturePublisher
}

func setupLedger(t *testing.T) *ledgerFixture {
	t.Helper()

	testDB := testutil.SetupTestDatabase(t)
	published := &capturePublisher{}
	factory := infrastructure.NewUnitOfWorkFactoryWrapper(testDB.DB, published)

	return &ledgerFixture{
		ledger:    application.NewLedger(factory),
		db:        testDB.DB,
		published: published,
	}
}

func (f *ledgerFixture) setMode(t *testing.T, mode entities.BettingMode, houseMultiplier float64) {
	t.Helper()

	settings, err := f.ledger.GetGuildSettings(context.Background(), testGuildID)
	require.NoError(t, err)
	settings.BettingMode = mode
	settings.HouseMultiplier = houseMultiplier
	require.NoError(t, f.ledger.UpdateGuildSettings(context.Background(), testGuildID, settings))
}

func (f *ledgerFixture) openMatch(t *testing.T, radiant, dire []int64) *entities.PendingMatch {
	t.Helper()

	match, err := f.ledger.OpenPendingMatch(context.Background(), testGuildID, entities.OpenPendingMatchRequest{
		RadiantIDs: radiant,
		DireIDs:    dire,
	})
	require.NoError(t, err)
	return match
}

func (f *ledgerFixture) bet(t *testing.T, window entities.BetWindow, discordID int64, team entities.Team, amount, leverage int64) *entities.Wager {
	t.Helper()

	wager, err := f.ledger.PlaceBet(context.Background(), testGuildID, entities.PlaceBetRequest{
		DiscordID: discordID,
		Team:      team,
		Amount:    amount,
		Leverage:  leverage,
		Window:    window,
	})
	require.NoError(t, err)
	return wager
}

// payouts returns a player's recorded payouts ordered by wager id
func (f *ledgerFixture) payouts(t *testing.T, discordID int64) []int64 {
	t.Helper()

	rows, err := f.db.Query(context.Background(),
		`SELECT payout FROM wagers WHERE guild_id = $1 AND discord_id = $2 AND payout IS NOT NULL ORDER BY id`,
		testGuildID, discordID)
	require.NoError(t, err)
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var p int64
		require.NoError(t, rows.Scan(&p))
		out = append(out, p)
	}
	require.NoError(t, rows.Err())
	return out
}

func (f *ledgerFixture) wagerCount(t *testing.T) int {
	t.Helper()

	var n int
	err := f.db.QueryRow(context.Background(), `SELECT COUNT(*) FROM wagers WHERE guild_id = $1`, testGuildID).Scan(&n)
	require.NoError(t, err)
	return n
}

var errHistoryUnavailable = errors.New("balance_history: relation is locked")

// failingHistoryUoW wraps a unit of work whose balance history writes fail
type failingHistoryUoW struct {
	interfaces.UnitOfWork
}

func (u *failingHistoryUoW) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return &failingHistoryRepo{BalanceHistoryRepository: u.UnitOfWork.BalanceHistoryRepository()}
}

type failingHistoryRepo struct {
	interfaces.BalanceHistoryRepository
}

func (r *failingHistoryRepo) Record(ctx context.Context, history *entities.BalanceHistory) error {
	return errHistoryUnavailable
}

func (r *failingHistoryRepo) RecordBatch(ctx context.Context, histories []*entities.BalanceHistory) error {
	return errHistoryUnavailable
}

type failingHistoryFactory struct {
	inner interfaces.UnitOfWorkFactory
}

func (f *failingHistoryFactory) CreateForGuild(guildID int64) interfaces.UnitOfWork {
	return &failingHistoryUoW{UnitOfWork: f.inner.CreateForGuild(guildID)}
}
