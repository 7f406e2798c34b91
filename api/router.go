package api

import (
	"context"
	"net/http"
	"time"

	"jopacoin/application"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the read-only status API
func NewRouter(ledger application.Ledger, db Pinger) http.Handler {
	h := &handlers{ledger: ledger, db: db, now: time.Now}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger())

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/v1/guilds/{guild_id}", func(r chi.Router) {
		r.Route("/pending-matches", func(r chi.Router) {
			r.Get("/", h.listPendingMatches)
			r.Get("/{pending_match_id}", h.getPendingMatch)
			r.Get("/{pending_match_id}/pot", h.getPot)
			r.Get("/{pending_match_id}/wagers", h.getWagers)
		})
		r.Get("/wagers/pending", h.getUnkeyedWagers)
		r.Get("/players/{discord_id}", h.getPlayer)
		r.Get("/matches/{match_id}/settlement", h.getSettlement)
		r.Get("/settings", h.getSettings)
	})

	return r
}
