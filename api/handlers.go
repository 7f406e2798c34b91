package api

import (
	"net/http"
	"strconv"
	"time"

	"jopacoin/application"
	"jopacoin/domain/entities"

	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type handlers struct {
	ledger application.Ledger
	db     Pinger
	now    func() time.Time
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeHTTPError(w, http.StatusServiceUnavailable, "database_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handlers) listPendingMatches(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}

	matches, err := h.ledger.ListPendingMatches(r.Context(), guildID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	now := h.now()
	out := make([]pendingMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, newPendingMatchResponse(m, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *handlers) getPendingMatch(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}
	matchID, ok := pathInt(w, r, "pending_match_id")
	if !ok {
		return
	}

	match, err := h.ledger.GetPendingMatch(r.Context(), guildID, matchID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPendingMatchResponse(match, h.now()))
}

func (h *handlers) getPot(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}
	matchID, ok := pathInt(w, r, "pending_match_id")
	if !ok {
		return
	}

	totals, err := h.ledger.GetPotTotals(r.Context(), guildID, entities.WindowForPendingMatch(matchID))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPotResponse(totals))
}

func (h *handlers) getWagers(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}
	matchID, ok := pathInt(w, r, "pending_match_id")
	if !ok {
		return
	}

	h.writeWagers(w, r, guildID, entities.WindowForPendingMatch(matchID))
}

// getUnkeyedWagers lists wagers placed without a pending match id since the given time
func (h *handlers) getUnkeyedWagers(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}

	raw := r.URL.Query().Get("since")
	if raw == "" {
		writeHTTPError(w, http.StatusBadRequest, "missing_since")
		return
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeHTTPError(w, http.StatusBadRequest, "invalid_since")
		return
	}

	h.writeWagers(w, r, guildID, entities.WindowSince(since))
}

func (h *handlers) writeWagers(w http.ResponseWriter, r *http.Request, guildID int64, window entities.BetWindow) {
	var (
		wagers []*entities.Wager
		err    error
	)
	if raw := r.URL.Query().Get("discord_id"); raw != "" {
		discordID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_discord_id")
			return
		}
		wagers, err = h.ledger.GetPlayerPendingWagers(r.Context(), guildID, window, discordID)
	} else {
		wagers, err = h.ledger.GetPendingWagers(r.Context(), guildID, window)
	}
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": newWagerResponses(wagers)})
}

func (h *handlers) getPlayer(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}
	discordID, ok := pathInt(w, r, "discord_id")
	if !ok {
		return
	}

	player, err := h.ledger.GetPlayer(r.Context(), guildID, discordID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	var history []*entities.BalanceHistory
	if raw := r.URL.Query().Get("history"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeHTTPError(w, http.StatusBadRequest, "invalid_history")
			return
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
		history, err = h.ledger.GetBalanceHistory(r.Context(), guildID, discordID, limit)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, newPlayerResponse(player, history))
}

func (h *handlers) getSettlement(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}
	matchID, ok := pathInt(w, r, "match_id")
	if !ok {
		return
	}

	settlement, corrections, err := h.ledger.GetSettlement(r.Context(), guildID, matchID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if settlement == nil {
		writeHTTPError(w, http.StatusNotFound, "settlement_not_found")
		return
	}
	writeJSON(w, http.StatusOK, newSettlementResponse(settlement, corrections))
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathInt(w, r, "guild_id")
	if !ok {
		return
	}

	settings, err := h.ledger.GetGuildSettings(r.Context(), guildID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"guild_id":         settings.GuildID,
		"betting_mode":     settings.BettingMode,
		"house_multiplier": settings.HouseMultiplier,
		"max_debt":         settings.MaxDebt,
		"leverage_tiers":   settings.LeverageTiers,
		"bet_lock_seconds": settings.BetLockSeconds,
	})
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeHTTPError(w, http.StatusBadRequest, "invalid_"+name)
		return 0, false
	}
	return v, true
}
