package services

import (
	"context"
	"fmt"
	"time"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"
	"jopacoin/domain/events"
	"jopacoin/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type pendingMatchService struct {
	pendingMatchRepo  interfaces.PendingMatchRepository
	guildSettingsRepo interfaces.GuildSettingsRepository
	eventPublisher    interfaces.EventPublisher
}

// NewPendingMatchService creates a new pending match service
func NewPendingMatchService(pendingMatchRepo interfaces.PendingMatchRepository, guildSettingsRepo interfaces.GuildSettingsRepository, eventPublisher interfaces.EventPublisher) interfaces.PendingMatchService {
	return &pendingMatchService{
		pendingMatchRepo:  pendingMatchRepo,
		guildSettingsRepo: guildSettingsRepo,
		eventPublisher:    eventPublisher,
	}
}

// OpenPendingMatch records a shuffled match and opens its betting window
func (s *pendingMatchService) OpenPendingMatch(ctx context.Context, req entities.OpenPendingMatchRequest) (*entities.PendingMatch, error) {
	if err := validateRosters(req.RadiantIDs, req.DireIDs); err != nil {
		return nil, err
	}

	all := append(append([]int64{}, req.RadiantIDs...), req.DireIDs...)
	busy, err := s.pendingMatchRepo.FindRosteredPlayers(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("failed to check rosters: %w", err)
	}
	if len(busy) > 0 {
		return nil, common.Reject(common.ReasonInvalidRoster, "players %v are already in a pending match", busy)
	}

	settings, err := s.guildSettingsRepo.GetOrCreate(ctx, DefaultGuildSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}

	mode := settings.BettingMode
	if req.BettingMode != nil {
		mode = *req.BettingMode
	}
	if !mode.IsValid() {
		return nil, common.Reject(common.ReasonInvalidBettingMode, "unknown betting mode %q", mode)
	}

	shuffledAt := time.Now().UTC()
	match := &entities.PendingMatch{
		RadiantIDs:   req.RadiantIDs,
		DireIDs:      req.DireIDs,
		BettingMode:  mode,
		IsBombPot:    req.IsBombPot,
		ShuffledAt:   shuffledAt,
		BetLockUntil: shuffledAt.Add(settings.BetLockDuration()),
	}
	if err := s.pendingMatchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create pending match: %w", err)
	}

	if err := s.eventPublisher.Publish(events.PendingMatchOpenedEvent{
		GuildID:        match.GuildID,
		PendingMatchID: match.ID,
		RadiantIDs:     match.RadiantIDs,
		DireIDs:        match.DireIDs,
		BettingMode:    match.BettingMode,
		IsBombPot:      match.IsBombPot,
		BetLockUntil:   match.BetLockUntil.Unix(),
	}); err != nil {
		log.WithError(err).Error("Failed to publish pending match opened event")
	}

	return match, nil
}

// GetPendingMatch returns a pending match or a NoPendingMatch rejection
func (s *pendingMatchService) GetPendingMatch(ctx context.Context, pendingMatchID int64) (*entities.PendingMatch, error) {
	match, err := s.pendingMatchRepo.GetByID(ctx, pendingMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending match: %w", err)
	}
	if match == nil {
		return nil, common.Reject(common.ReasonNoPendingMatch, "pending match %d does not exist", pendingMatchID)
	}
	return match, nil
}

// ListPendingMatches returns every pending match in the guild
func (s *pendingMatchService) ListPendingMatches(ctx context.Context) ([]*entities.PendingMatch, error) {
	matches, err := s.pendingMatchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending matches: %w", err)
	}
	return matches, nil
}

func validateRosters(radiant, dire []int64) error {
	if len(radiant) == 0 || len(dire) == 0 {
		return common.Reject(common.ReasonInvalidRoster, "both teams need at least one player")
	}

	seen := make(map[int64]bool, len(radiant)+len(dire))
	for _, id := range append(append([]int64{}, radiant...), dire...) {
		if id <= 0 {
			return common.Reject(common.ReasonInvalidRoster, "invalid player id %d", id)
		}
		if seen[id] {
			return common.Reject(common.ReasonInvalidRoster, "player %d appears more than once", id)
		}
		seen[id] = true
	}
	return nil
}
