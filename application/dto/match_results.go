package dto

import (
	"fmt"
	"time"

	"jopacoin/domain/entities"
)

// BetWindowDTO names the wagers a match command applies to. PendingMatchID
// selects the keyed window; otherwise Since opens a timestamp window.
type BetWindowDTO struct {
	PendingMatchID *int64     `json:"pending_match_id,omitempty"`
	Since          *time.Time `json:"since,omitempty"`
}

// ToWindow converts the DTO to a domain window
func (w BetWindowDTO) ToWindow() (entities.BetWindow, error) {
	if w.PendingMatchID != nil {
		return entities.WindowForPendingMatch(*w.PendingMatchID), nil
	}
	if w.Since == nil {
		return entities.BetWindow{}, fmt.Errorf("either pending_match_id or since is required")
	}
	return entities.WindowSince(*w.Since), nil
}

// MatchRecordedDTO is published by the match recorder when a result is final
type MatchRecordedDTO struct {
	GuildID         int64    `json:"guild_id"`
	MatchID         int64    `json:"match_id"`
	WinningTeam     string   `json:"winning_team"`
	BettingMode     *string  `json:"betting_mode,omitempty"`
	HouseMultiplier *float64 `json:"house_multiplier,omitempty"`
	BetWindowDTO
}

// MatchCorrectedDTO is published when an admin flips a recorded result
type MatchCorrectedDTO struct {
	GuildID        int64   `json:"guild_id"`
	MatchID        int64   `json:"match_id"`
	OldWinningTeam string  `json:"old_winning_team"`
	NewWinningTeam string  `json:"new_winning_team"`
	BettingMode    *string `json:"betting_mode,omitempty"`
	CorrectedBy    *int64  `json:"corrected_by,omitempty"`
}

// MatchAbortedDTO is published when a shuffled match will never be recorded
type MatchAbortedDTO struct {
	GuildID int64 `json:"guild_id"`
	BetWindowDTO
}

// ToSettleRequest converts the DTO to a settlement request
func (d MatchRecordedDTO) ToSettleRequest() (entities.SettleRequest, error) {
	window, err := d.ToWindow()
	if err != nil {
		return entities.SettleRequest{}, err
	}

	req := entities.SettleRequest{
		MatchID:         d.MatchID,
		Window:          window,
		WinningTeam:     entities.Team(d.WinningTeam),
		HouseMultiplier: d.HouseMultiplier,
	}
	if d.BettingMode != nil {
		mode := entities.BettingMode(*d.BettingMode)
		req.Mode = &mode
	}
	return req, nil
}

// ToCorrectRequest converts the DTO to a correction request
func (d MatchCorrectedDTO) ToCorrectRequest() entities.CorrectRequest {
	req := entities.CorrectRequest{
		MatchID:        d.MatchID,
		OldWinningTeam: entities.Team(d.OldWinningTeam),
		NewWinningTeam: entities.Team(d.NewWinningTeam),
		CorrectedBy:    d.CorrectedBy,
	}
	if d.BettingMode != nil {
		mode := entities.BettingMode(*d.BettingMode)
		req.Mode = &mode
	}
	return req
}
