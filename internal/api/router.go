package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rapproche-dev/rapproche/internal/importer"
	"github.com/rapproche-dev/rapproche/internal/ledger"
	"github.com/rapproche-dev/rapproche/internal/statement"
)

// NewRouter creates the chi router with all API routes mounted.
func NewRouter(store *ledger.Store, parser *statement.Parser, orch *importer.Orchestrator, log zerolog.Logger) http.Handler {
	h := &Handlers{
		store:  store,
		parser: parser,
		orch:   orch,
		log:    log,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/imports", h.ImportStatement)

		r.Get("/transactions", h.ListTransactions)
		r.Get("/suggestions", h.ListSuggestions)
		r.Post("/suggestions/{hash}/confirm", h.ConfirmSuggestion)

		r.Get("/invoices", h.ListInvoices)
		r.Get("/stats", h.GetStats)
	})

	return r
}
