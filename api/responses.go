package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"jopacoin/domain/common"
	"jopacoin/domain/entities"

	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Shortfall int64  `json:"shortfall,omitempty"`
}

type playerResponse struct {
	DiscordID int64                    `json:"discord_id"`
	Username  string                   `json:"username"`
	Balance   int64                    `json:"balance"`
	InDebt    bool                     `json:"in_debt"`
	UpdatedAt time.Time                `json:"updated_at"`
	History   []balanceHistoryResponse `json:"history,omitempty"`
}

type balanceHistoryResponse struct {
	ID              int64     `json:"id"`
	TransactionType string    `json:"transaction_type"`
	BalanceBefore   int64     `json:"balance_before"`
	BalanceAfter    int64     `json:"balance_after"`
	ChangeAmount    int64     `json:"change_amount"`
	CreatedAt       time.Time `json:"created_at"`
}

type pendingMatchResponse struct {
	ID           int64     `json:"id"`
	RadiantIDs   []int64   `json:"radiant_ids"`
	DireIDs      []int64   `json:"dire_ids"`
	BettingMode  string    `json:"betting_mode"`
	IsBombPot    bool      `json:"is_bomb_pot"`
	ShuffledAt   time.Time `json:"shuffled_at"`
	BetLockUntil time.Time `json:"bet_lock_until"`
	Open         bool      `json:"open"`
}

type potResponse struct {
	Radiant           int64    `json:"radiant"`
	Dire              int64    `json:"dire"`
	Total             int64    `json:"total"`
	RadiantMultiplier *float64 `json:"radiant_multiplier"`
	DireMultiplier    *float64 `json:"dire_multiplier"`
}

type wagerResponse struct {
	ID              int64     `json:"id"`
	DiscordID       int64     `json:"discord_id"`
	PendingMatchID  *int64    `json:"pending_match_id,omitempty"`
	Team            string    `json:"team"`
	Amount          int64     `json:"amount"`
	Leverage        int64     `json:"leverage"`
	EffectiveStake  int64     `json:"effective_stake"`
	IsBlind         bool      `json:"is_blind"`
	OddsAtPlacement *float64  `json:"odds_at_placement"`
	BetTime         time.Time `json:"bet_time"`
}

type settlementResponse struct {
	MatchID         int64                `json:"match_id"`
	SettlementID    string               `json:"settlement_id"`
	PendingMatchID  *int64               `json:"pending_match_id,omitempty"`
	WinningTeam     string               `json:"winning_team"`
	BettingMode     string               `json:"betting_mode"`
	HouseMultiplier float64              `json:"house_multiplier"`
	WagerCount      int                  `json:"wager_count"`
	TotalPaid       int64                `json:"total_paid"`
	SettledAt       time.Time            `json:"settled_at"`
	Corrections     []correctionResponse `json:"corrections"`
}

type correctionResponse struct {
	ID               string    `json:"id"`
	OldWinningTeam   string    `json:"old_winning_team"`
	NewWinningTeam   string    `json:"new_winning_team"`
	CorrectedBy      *int64    `json:"corrected_by,omitempty"`
	WagersAffected   int       `json:"wagers_affected"`
	NetBalanceChange int64     `json:"net_balance_change"`
	CorrectedAt      time.Time `json:"corrected_at"`
}

func newPlayerResponse(p *entities.Player, history []*entities.BalanceHistory) playerResponse {
	resp := playerResponse{
		DiscordID: p.DiscordID,
		Username:  p.Username,
		Balance:   p.Balance,
		InDebt:    p.InDebt(),
		UpdatedAt: p.UpdatedAt,
	}
	for _, h := range history {
		resp.History = append(resp.History, balanceHistoryResponse{
			ID:              h.ID,
			TransactionType: string(h.TransactionType),
			BalanceBefore:   h.BalanceBefore,
			BalanceAfter:    h.BalanceAfter,
			ChangeAmount:    h.ChangeAmount,
			CreatedAt:       h.CreatedAt,
		})
	}
	return resp
}

func newPendingMatchResponse(m *entities.PendingMatch, now time.Time) pendingMatchResponse {
	return pendingMatchResponse{
		ID:           m.ID,
		RadiantIDs:   m.RadiantIDs,
		DireIDs:      m.DireIDs,
		BettingMode:  string(m.BettingMode),
		IsBombPot:    m.IsBombPot,
		ShuffledAt:   m.ShuffledAt,
		BetLockUntil: m.BetLockUntil,
		Open:         m.IsOpen(now),
	}
}

func newPotResponse(p entities.PotTotals) potResponse {
	return potResponse{
		Radiant:           p.Radiant,
		Dire:              p.Dire,
		Total:             p.Total(),
		RadiantMultiplier: p.Multiplier(entities.TeamRadiant),
		DireMultiplier:    p.Multiplier(entities.TeamDire),
	}
}

func newWagerResponses(wagers []*entities.Wager) []wagerResponse {
	out := make([]wagerResponse, 0, len(wagers))
	for _, w := range wagers {
		out = append(out, wagerResponse{
			ID:              w.ID,
			DiscordID:       w.DiscordID,
			PendingMatchID:  w.PendingMatchID,
			Team:            string(w.Team),
			Amount:          w.Amount,
			Leverage:        w.Leverage,
			EffectiveStake:  w.EffectiveStake(),
			IsBlind:         w.IsBlind,
			OddsAtPlacement: w.OddsAtPlacement,
			BetTime:         w.BetTime,
		})
	}
	return out
}

func newSettlementResponse(s *entities.MatchSettlement, corrections []*entities.MatchCorrection) settlementResponse {
	resp := settlementResponse{
		MatchID:         s.MatchID,
		SettlementID:    s.SettlementID,
		PendingMatchID:  s.PendingMatchID,
		WinningTeam:     string(s.WinningTeam),
		BettingMode:     string(s.BettingMode),
		HouseMultiplier: s.HouseMultiplier,
		WagerCount:      s.WagerCount,
		TotalPaid:       s.TotalPaid,
		SettledAt:       s.SettledAt,
		Corrections:     make([]correctionResponse, 0, len(corrections)),
	}
	for _, c := range corrections {
		resp.Corrections = append(resp.Corrections, correctionResponse{
			ID:               c.ID,
			OldWinningTeam:   string(c.OldWinningTeam),
			NewWinningTeam:   string(c.NewWinningTeam),
			CorrectedBy:      c.CorrectedBy,
			WagersAffected:   c.WagersAffected,
			NetBalanceChange: c.NetBalanceChange,
			CorrectedAt:      c.CorrectedAt,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeHTTPError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

// writeLedgerError maps a ledger error onto a status code
func writeLedgerError(w http.ResponseWriter, err error) {
	var rejection *common.RejectionError
	if errors.As(err, &rejection) {
		status := http.StatusBadRequest
		switch rejection.Reason {
		case common.ReasonNoPendingMatch, common.ReasonPlayerNotFound:
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{
			Error:     string(rejection.Reason),
			Message:   rejection.Error(),
			Shortfall: rejection.Shortfall,
		})
		return
	}

	log.WithError(err).Error("Status API request failed")
	writeHTTPError(w, http.StatusInternalServerError, "internal_error")
}
