package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"
	"jopacoin/domain/utils"

	log "github.com/sirupsen/logrus"
)

type placementService struct {
	playerRepo         interfaces.PlayerRepository
	wagerRepo          interfaces.WagerRepository
	pendingMatchRepo   interfaces.PendingMatchRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	guildSettingsRepo  interfaces.GuildSettingsRepository
	eventPublisher     interfaces.EventPublisher
}

// NewPlacementService creates a new wager placement service
func NewPlacementService(
	playerRepo interfaces.PlayerRepository,
	wagerRepo interfaces.WagerRepository,
	pendingMatchRepo interfaces.PendingMatchRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	guildSettingsRepo interfaces.GuildSettingsRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.PlacementService {
	return &placementService{
		playerRepo:         playerRepo,
		wagerRepo:          wagerRepo,
		pendingMatchRepo:   pendingMatchRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		guildSettingsRepo:  guildSettingsRepo,
		eventPublisher:     eventPublisher,
	}
}

// placement is a validated wager about to be committed
type placement struct {
	discordID     int64
	team          entities.Team
	amount        int64
	leverage      int64
	maxDebt       *int64
	allowNegative bool
	isBlind       bool
	window        entities.BetWindow
	match         *entities.PendingMatch
}

// PlaceBet places a wager into the window named by the caller
func (s *placementService) PlaceBet(ctx context.Context, req entities.PlaceBetRequest) (*entities.Wager, error) {
	if err := validateWagerInput(req.Amount, req.Team, req.Leverage); err != nil {
		return nil, err
	}

	return s.place(ctx, placement{
		discordID:     req.DiscordID,
		team:          req.Team,
		amount:        req.Amount,
		leverage:      req.Leverage,
		maxDebt:       req.MaxDebt,
		allowNegative: req.AllowNegative,
		isBlind:       req.IsBlind,
		window:        req.Window,
	})
}

// PlaceBetOnActiveMatch resolves the pending match from the ledger, checks
// its betting window and the participant rule, then places the wager.
func (s *placementService) PlaceBetOnActiveMatch(ctx context.Context, req entities.ActiveBetRequest) (*entities.Wager, error) {
	if err := validateWagerInput(req.Amount, req.Team, req.Leverage); err != nil {
		return nil, err
	}

	match, err := s.resolveActiveMatch(ctx, req.DiscordID, req.PendingMatchID)
	if err != nil {
		return nil, err
	}

	if !match.IsOpen(time.Now()) {
		return nil, common.Reject(common.ReasonBettingClosed, "betting closed at %s", match.BetLockUntil.UTC().Format(time.RFC3339))
	}

	if own, ok := match.TeamOf(req.DiscordID); ok && own != req.Team {
		return nil, common.Reject(common.ReasonWrongTeamForParticipant, "you are playing on %s and can only bet on your own team", own)
	}

	return s.place(ctx, placement{
		discordID: req.DiscordID,
		team:      req.Team,
		amount:    req.Amount,
		leverage:  req.Leverage,
		window:    match.Window(),
		match:     match,
	})
}

// resolveActiveMatch finds the pending match an audience wager is for and
// holds a share lock on it so settlement cannot retire it mid-placement.
func (s *placementService) resolveActiveMatch(ctx context.Context, discordID int64, pendingMatchID *int64) (*entities.PendingMatch, error) {
	if pendingMatchID == nil {
		matches, err := s.pendingMatchRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending matches: %w", err)
		}

		switch len(matches) {
		case 0:
			return nil, common.Reject(common.ReasonNoPendingMatch, "there is no match to bet on")
		case 1:
			pendingMatchID = &matches[0].ID
		default:
			var participating []*entities.PendingMatch
			for _, m := range matches {
				if m.IsParticipant(discordID) {
					participating = append(participating, m)
				}
			}
			if len(participating) != 1 {
				return nil, common.Reject(common.ReasonAmbiguousMatch, "%d matches are open, choose one", len(matches))
			}
			pendingMatchID = &participating[0].ID
		}
	}

	match, err := s.pendingMatchRepo.GetByIDForShare(ctx, *pendingMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pending match: %w", err)
	}
	if match == nil {
		return nil, common.Reject(common.ReasonNoPendingMatch, "pending match %d does not exist", *pendingMatchID)
	}
	return match, nil
}

func (s *placementService) place(ctx context.Context, p placement) (*entities.Wager, error) {
	settings, err := s.guildSettingsRepo.GetOrCreate(ctx, DefaultGuildSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	if !settings.AllowsLeverage(p.leverage) {
		return nil, common.Reject(common.ReasonInvalidLeverage, "leverage %dx is not offered, choose one of %v", p.leverage, settings.LeverageTiers)
	}

	maxDebt := settings.MaxDebt
	if p.maxDebt != nil {
		maxDebt = *p.maxDebt
	}
	effective := p.amount * p.leverage

	// Row lock serializes placements by the same player
	player, err := s.playerRepo.GetByDiscordIDForUpdate(ctx, p.discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player: %w", err)
	}
	if player == nil {
		return nil, common.Reject(common.ReasonPlayerNotFound, "player %d is not registered", p.discordID)
	}

	existing, err := s.wagerRepo.GetPlayerPendingByWindow(ctx, p.window, p.discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing wagers: %w", err)
	}
	for _, w := range existing {
		if w.Team != p.team {
			return nil, common.Reject(common.ReasonTeamConflict, "you already bet on %s for this match", w.Team)
		}
	}

	if err := checkBalance(player.Balance, p.amount, effective, p.leverage, maxDebt, p.allowNegative); err != nil {
		return nil, err
	}

	pot, err := s.wagerRepo.GetPotTotals(ctx, p.window)
	if err != nil {
		return nil, fmt.Errorf("failed to get pot totals: %w", err)
	}

	wager := &entities.Wager{
		DiscordID:       p.discordID,
		PendingMatchID:  p.window.PendingMatchID,
		Team:            p.team,
		Amount:          p.amount,
		Leverage:        p.leverage,
		IsBlind:         p.isBlind,
		OddsAtPlacement: pot.Multiplier(p.team),
	}
	if err := s.wagerRepo.Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	changes, err := s.playerRepo.ApplyBalanceDeltas(ctx, []entities.BalanceDelta{{DiscordID: p.discordID, Amount: -effective}})
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}
	if len(changes) != 1 {
		return nil, fmt.Errorf("failed to debit stake: expected 1 balance row, got %d", len(changes))
	}

	txType := entities.TransactionTypeWagerPlaced
	if p.isBlind {
		txType = entities.TransactionTypeBlindBet
	}
	history := entities.NewBalanceHistory(changes[0], txType, entities.RelatedTypeWager, wager.ID, map[string]any{
		"team":            string(p.team),
		"amount":          p.amount,
		"leverage":        p.leverage,
		"effective_stake": effective,
	})
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	event := events.WagerPlacedEvent{
		GuildID:         wager.GuildID,
		WagerID:         wager.ID,
		DiscordID:       wager.DiscordID,
		PendingMatchID:  wager.PendingMatchID,
		Team:            wager.Team,
		Amount:          wager.Amount,
		Leverage:        wager.Leverage,
		EffectiveStake:  effective,
		IsBlind:         wager.IsBlind,
		OddsAtPlacement: wager.OddsAtPlacement,
	}
	if p.match != nil {
		event.BettingMode = p.match.BettingMode
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish wager placed event")
	}

	return wager, nil
}

func validateWagerInput(amount int64, team entities.Team, leverage int64) error {
	if amount <= 0 {
		return common.Reject(common.ReasonInvalidAmount, "amount must be positive, got %d", amount)
	}
	if !team.IsValid() {
		return common.Reject(common.ReasonInvalidTeam, "team must be radiant or dire, got %q", team)
	}
	if leverage < 1 {
		return common.Reject(common.ReasonInvalidLeverage, "leverage must be at least 1, got %d", leverage)
	}
	if amount > math.MaxInt64/leverage {
		return common.Reject(common.ReasonInvalidAmount, "amount %d at %dx leverage is too large", amount, leverage)
	}
	return nil
}

// checkBalance applies the debt rules. Unleveraged bets must be covered by
// the balance; leveraged or allow-negative bets may dip to -maxDebt.
func checkBalance(balance, amount, effective, leverage, maxDebt int64, allowNegative bool) error {
	if balance < 0 && !allowNegative {
		return common.Reject(common.ReasonInDebt, "you cannot bet while in debt (balance %d)", balance)
	}

	if leverage == 1 && !allowNegative {
		if balance < amount {
			shortfall := amount - balance
			return common.RejectWithShortfall(common.ReasonInsufficientBalance, shortfall, "insufficient balance: have %d, need %d", balance, amount)
		}
		return nil
	}

	headroom := debtHeadroom(balance, maxDebt)
	if effective > headroom {
		shortfall := int64(math.MaxInt64)
		if headroom >= 0 || effective <= math.MaxInt64+headroom {
			shortfall = effective - headroom
		}
		return common.RejectWithShortfall(common.ReasonDebtLimitExceeded, shortfall, "bet of %d would exceed the debt limit of %d by %d", effective, maxDebt, shortfall)
	}
	return nil
}

// debtHeadroom is balance + maxDebt, saturating at math.MaxInt64.
// maxDebt is never negative.
func debtHeadroom(balance, maxDebt int64) int64 {
	if balance > 0 && maxDebt > math.MaxInt64-balance {
		return math.MaxInt64
	}
	return balance + maxDebt
}
