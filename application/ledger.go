package application

import (
	"context"
	"fmt"
	"time"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/interfaces"
	"jopacoin/domain/services"
	"jopacoin/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// ledger implements Ledger on top of a unit of work factory
type ledger struct {
	uowFactory  interfaces.UnitOfWorkFactory
	blindParams func() services.BlindBetParams
}

// NewLedger creates the ledger facade
func NewLedger(uowFactory interfaces.UnitOfWorkFactory) Ledger {
	return &ledger{
		uowFactory:  uowFactory,
		blindParams: services.BlindBetParamsFromConfig,
	}
}

// txScope is what an operation sees inside its transaction
type txScope struct {
	uow interfaces.UnitOfWork
	bus *eventTap
}

// inTx runs fn in a fresh unit of work for the guild. The transaction commits
// only when fn succeeds; any error or panic rolls it back.
func (l *ledger) inTx(ctx context.Context, guildID int64, op string, fn func(tx *txScope) error) (err error) {
	start := time.Now()
	defer func() {
		outcome := observability.OutcomeCommitted
		switch {
		case common.IsRejection(err):
			outcome = observability.OutcomeRejected
		case err != nil:
			outcome = observability.OutcomeFault
		}
		observability.GetMetrics().RecordDatabaseQuery(op, outcome, time.Since(start))
	}()

	uow := l.uowFactory.CreateForGuild(guildID)
	if beginErr := uow.Begin(ctx); beginErr != nil {
		return l.fail(guildID, op, fmt.Errorf("failed to begin transaction: %w", beginErr))
	}
	defer func() {
		if r := recover(); r != nil {
			uow.Rollback()
			panic(r)
		}
	}()

	tx := &txScope{uow: uow, bus: newEventTap(uow.EventBus())}
	if fnErr := fn(tx); fnErr != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).WithFields(log.Fields{
				"guild_id":  guildID,
				"operation": op,
			}).Warn("Failed to roll back transaction")
		}
		return l.fail(guildID, op, fnErr)
	}

	if commitErr := uow.Commit(); commitErr != nil {
		uow.Rollback()
		return l.fail(guildID, op, commitErr)
	}

	tx.bus.recordCommitted()
	return nil
}

// fail logs the error and classifies it: rejections pass through, anything
// else becomes a fault
func (l *ledger) fail(guildID int64, op string, err error) error {
	fields := log.Fields{
		"guild_id":  guildID,
		"operation": op,
	}

	if r, ok := common.AsRejection(err); ok {
		observability.GetMetrics().RecordRejection(string(r.Reason))
		log.WithFields(fields).WithField("reason", r.Reason).Debug(r.Error())
		return err
	}

	log.WithFields(fields).WithError(err).Error("Ledger operation failed")
	return common.NewFault(op, err)
}

func (l *ledger) RegisterPlayer(ctx context.Context, guildID, discordID int64, username string) (*entities.Player, error) {
	var player *entities.Player
	err := l.inTx(ctx, guildID, "register_player", func(tx *txScope) error {
		var err error
		player, err = services.NewPlayerService(
			tx.uow.PlayerRepository(),
			tx.uow.BalanceHistoryRepository(),
			tx.bus,
		).RegisterPlayer(ctx, discordID, username)
		return err
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (l *ledger) GetPlayer(ctx context.Context, guildID, discordID int64) (*entities.Player, error) {
	var player *entities.Player
	err := l.inTx(ctx, guildID, "get_player", func(tx *txScope) error {
		var err error
		player, err = services.NewPlayerService(
			tx.uow.PlayerRepository(),
			tx.uow.BalanceHistoryRepository(),
			tx.bus,
		).GetPlayer(ctx, discordID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (l *ledger) GetBalanceHistory(ctx context.Context, guildID, discordID int64, limit int) ([]*entities.BalanceHistory, error) {
	var history []*entities.BalanceHistory
	err := l.inTx(ctx, guildID, "get_balance_history", func(tx *txScope) error {
		var err error
		history, err = tx.uow.BalanceHistoryRepository().GetByPlayer(ctx, discordID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (l *ledger) pendingMatches(tx *txScope) interfaces.PendingMatchService {
	return services.NewPendingMatchService(
		tx.uow.PendingMatchRepository(),
		tx.uow.GuildSettingsRepository(),
		tx.bus,
	)
}

func (l *ledger) OpenPendingMatch(ctx context.Context, guildID int64, req entities.OpenPendingMatchRequest) (*entities.PendingMatch, error) {
	var match *entities.PendingMatch
	err := l.inTx(ctx, guildID, "open_pending_match", func(tx *txScope) error {
		var err error
		match, err = l.pendingMatches(tx).OpenPendingMatch(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"guild_id":         guildID,
		"pending_match_id": match.ID,
		"mode":             match.BettingMode,
		"bomb_pot":         match.IsBombPot,
		"bet_lock_until":   match.BetLockUntil,
	}).Info("Pending match opened")
	return match, nil
}

func (l *ledger) GetPendingMatch(ctx context.Context, guildID, pendingMatchID int64) (*entities.PendingMatch, error) {
	var match *entities.PendingMatch
	err := l.inTx(ctx, guildID, "get_pending_match", func(tx *txScope) error {
		var err error
		match, err = l.pendingMatches(tx).GetPendingMatch(ctx, pendingMatchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (l *ledger) ListPendingMatches(ctx context.Context, guildID int64) ([]*entities.PendingMatch, error) {
	var matches []*entities.PendingMatch
	err := l.inTx(ctx, guildID, "list_pending_matches", func(tx *txScope) error {
		var err error
		matches, err = l.pendingMatches(tx).ListPendingMatches(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (l *ledger) placement(tx *txScope) interfaces.PlacementService {
	return services.NewPlacementService(
		tx.uow.PlayerRepository(),
		tx.uow.WagerRepository(),
		tx.uow.PendingMatchRepository(),
		tx.uow.BalanceHistoryRepository(),
		tx.uow.GuildSettingsRepository(),
		tx.bus,
	)
}

func (l *ledger) PlaceBet(ctx context.Context, guildID int64, req entities.PlaceBetRequest) (*entities.Wager, error) {
	var wager *entities.Wager
	err := l.inTx(ctx, guildID, "place_bet", func(tx *txScope) error {
		var err error
		wager, err = l.placement(tx).PlaceBet(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	logWagerPlaced(guildID, wager)
	return wager, nil
}

func (l *ledger) PlaceBetOnActiveMatch(ctx context.Context, guildID int64, req entities.ActiveBetRequest) (*entities.Wager, error) {
	var wager *entities.Wager
	err := l.inTx(ctx, guildID, "place_bet_active", func(tx *txScope) error {
		var err error
		wager, err = l.placement(tx).PlaceBetOnActiveMatch(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	logWagerPlaced(guildID, wager)
	return wager, nil
}

func logWagerPlaced(guildID int64, wager *entities.Wager) {
	log.WithFields(log.Fields{
		"guild_id":         guildID,
		"wager_id":         wager.ID,
		"discord_id":       wager.DiscordID,
		"pending_match_id": wager.PendingMatchID,
		"team":             wager.Team,
		"amount":           wager.Amount,
		"leverage":         wager.Leverage,
		"blind":            wager.IsBlind,
	}).Info("Wager placed")
}

// CreateBlindBets places the auto-liquidity blinds for a pending match. Each
// blind commits on its own; a rejected blind is reported as skipped and does
// not stop the rest. A fault stops the run and leaves earlier blinds in place.
func (l *ledger) CreateBlindBets(ctx context.Context, guildID, pendingMatchID int64) (*entities.BlindBetResult, error) {
	var match *entities.PendingMatch
	balances := make(map[int64]int64)

	err := l.inTx(ctx, guildID, "plan_blind_bets", func(tx *txScope) error {
		var err error
		match, err = l.pendingMatches(tx).GetPendingMatch(ctx, pendingMatchID)
		if err != nil {
			return err
		}

		roster := append(append([]int64{}, match.RadiantIDs...), match.DireIDs...)
		players, err := tx.uow.PlayerRepository().GetByDiscordIDs(ctx, roster)
		if err != nil {
			return fmt.Errorf("failed to get rostered players: %w", err)
		}
		for _, p := range players {
			balances[p.DiscordID] = p.Balance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bets, skipped := services.PlanBlindBets(match, balances, l.blindParams())
	result := &entities.BlindBetResult{
		PendingMatchID: pendingMatchID,
		Skipped:        skipped,
	}

	window := match.Window()
	for _, bet := range bets {
		wager, err := l.PlaceBet(ctx, guildID, entities.PlaceBetRequest{
			DiscordID:     bet.DiscordID,
			Team:          bet.Team,
			Amount:        bet.Amount,
			Leverage:      1,
			AllowNegative: bet.AllowNegative,
			IsBlind:       true,
			Window:        window,
		})
		if err != nil {
			if common.IsRejection(err) {
				result.Skipped = append(result.Skipped, entities.BlindBetSkip{DiscordID: bet.DiscordID, Reason: err.Error()})
				continue
			}
			return result, err
		}

		result.Placed = append(result.Placed, wager)
		if bet.Team == entities.TeamRadiant {
			result.TotalRadiant += wager.EffectiveStake()
		} else {
			result.TotalDire += wager.EffectiveStake()
		}
	}

	log.WithFields(log.Fields{
		"guild_id":         guildID,
		"pending_match_id": pendingMatchID,
		"placed":           len(result.Placed),
		"skipped":          len(result.Skipped),
		"total_radiant":    result.TotalRadiant,
		"total_dire":       result.TotalDire,
	}).Info("Blind bets created")
	return result, nil
}

func (l *ledger) wagerQueries(tx *txScope) interfaces.WagerQueryService {
	return services.NewWagerQueryService(tx.uow.WagerRepository())
}

func (l *ledger) GetPotTotals(ctx context.Context, guildID int64, window entities.BetWindow) (entities.PotTotals, error) {
	var totals entities.PotTotals
	err := l.inTx(ctx, guildID, "get_pot_totals", func(tx *txScope) error {
		var err error
		totals, err = l.wagerQueries(tx).GetPotTotals(ctx, window)
		return err
	})
	return totals, err
}

func (l *ledger) GetPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow) ([]*entities.Wager, error) {
	var wagers []*entities.Wager
	err := l.inTx(ctx, guildID, "get_pending_wagers", func(tx *txScope) error {
		var err error
		wagers, err = l.wagerQueries(tx).GetPendingWagers(ctx, window)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wagers, nil
}

func (l *ledger) GetPlayerPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow, discordID int64) ([]*entities.Wager, error) {
	var wagers []*entities.Wager
	err := l.inTx(ctx, guildID, "get_player_pending_wagers", func(tx *txScope) error {
		var err error
		wagers, err = l.wagerQueries(tx).GetPlayerPendingWagers(ctx, window, discordID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wagers, nil
}

func (l *ledger) Settle(ctx context.Context, guildID int64, req entities.SettleRequest) (*entities.SettlementResult, error) {
	var result *entities.SettlementResult
	err := l.inTx(ctx, guildID, "settle", func(tx *txScope) error {
		var err error
		result, err = services.NewSettlementService(
			tx.uow.PlayerRepository(),
			tx.uow.WagerRepository(),
			tx.uow.PendingMatchRepository(),
			tx.uow.BalanceHistoryRepository(),
			tx.uow.GuildSettingsRepository(),
			tx.uow.MatchSettlementRepository(),
			tx.bus,
		).Settle(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"guild_id":         guildID,
		"match_id":         req.MatchID,
		"pending_match_id": req.Window.PendingMatchID,
		"winning_team":     req.WinningTeam,
		"mode":             result.Mode,
		"winners":          len(result.Winners),
		"losers":           len(result.Losers),
		"total_pot":        result.TotalPot,
		"total_paid":       result.TotalPaid,
	}).Info("Match settled")
	return result, nil
}

func (l *ledger) Correct(ctx context.Context, guildID int64, req entities.CorrectRequest) (*entities.CorrectionResult, error) {
	var result *entities.CorrectionResult
	err := l.inTx(ctx, guildID, "correct", func(tx *txScope) error {
		var err error
		result, err = services.NewCorrectionService(
			tx.uow.PlayerRepository(),
			tx.uow.WagerRepository(),
			tx.uow.BalanceHistoryRepository(),
			tx.uow.MatchSettlementRepository(),
			tx.bus,
		).Correct(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !result.IsNoop() {
		observability.GetMetrics().RecordCorrection(string(result.Mode))
	}

	var net int64
	for _, d := range result.BalanceDeltas {
		net += d
	}
	log.WithFields(log.Fields{
		"guild_id":      guildID,
		"match_id":      req.MatchID,
		"old_winner":    req.OldWinningTeam,
		"new_winner":    req.NewWinningTeam,
		"mode":          result.Mode,
		"reversed":      len(result.Reversed),
		"new_winners":   len(result.NewWinners),
		"net_change":    net,
		"correction_id": result.CorrectionID,
	}).Info("Match result corrected")
	return result, nil
}

func (l *ledger) RefundPendingWagers(ctx context.Context, guildID int64, window entities.BetWindow) (int, error) {
	var refunded int
	err := l.inTx(ctx, guildID, "refund", func(tx *txScope) error {
		var err error
		refunded, err = services.NewRefundService(
			tx.uow.PlayerRepository(),
			tx.uow.WagerRepository(),
			tx.uow.PendingMatchRepository(),
			tx.uow.BalanceHistoryRepository(),
			tx.bus,
		).RefundPendingWagers(ctx, window)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"guild_id":         guildID,
		"pending_match_id": window.PendingMatchID,
		"refunded":         refunded,
	}).Info("Pending wagers refunded")
	return refunded, nil
}

func (l *ledger) GetSettlement(ctx context.Context, guildID, matchID int64) (*entities.MatchSettlement, []*entities.MatchCorrection, error) {
	var settlement *entities.MatchSettlement
	var corrections []*entities.MatchCorrection
	err := l.inTx(ctx, guildID, "get_settlement", func(tx *txScope) error {
		repo := tx.uow.MatchSettlementRepository()

		var err error
		settlement, err = repo.Get(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to get settlement: %w", err)
		}
		if settlement == nil {
			return nil
		}

		corrections, err = repo.GetCorrections(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to get corrections: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return settlement, corrections, nil
}

func (l *ledger) GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	var settings *entities.GuildSettings
	err := l.inTx(ctx, guildID, "get_guild_settings", func(tx *txScope) error {
		var err error
		settings, err = services.NewGuildSettingsService(tx.uow.GuildSettingsRepository()).GetOrCreateSettings(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (l *ledger) UpdateGuildSettings(ctx context.Context, guildID int64, settings *entities.GuildSettings) error {
	return l.inTx(ctx, guildID, "update_guild_settings", func(tx *txScope) error {
		return services.NewGuildSettingsService(tx.uow.GuildSettingsRepository()).UpdateSettings(ctx, settings)
	})
}
