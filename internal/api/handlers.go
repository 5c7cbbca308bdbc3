// Package api exposes the import pipeline and ledger over HTTP. Statement
// bytes arrive as multipart uploads; everything else is plain JSON.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rapproche-dev/rapproche/internal/importer"
	"github.com/rapproche-dev/rapproche/internal/ledger"
	"github.com/rapproche-dev/rapproche/internal/model"
	"github.com/rapproche-dev/rapproche/internal/reconcile"
	"github.com/rapproche-dev/rapproche/internal/statement"
)

// maxUploadBytes caps statement uploads; exports run to thousands of rows,
// not millions.
const maxUploadBytes = 16 << 20

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	store  *ledger.Store
	parser *statement.Parser
	orch   *importer.Orchestrator
	log    zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	// The status line is already on the wire; an encode failure here can
	// only be dropped.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// importResponse is the body returned by ImportStatement: the summary plus
// the evidence-carrying partitions, which exist only in this response;
// match candidates are never persisted.
type importResponse struct {
	Report    model.ImportReport    `json:"report"`
	Matched   []model.Match         `json:"matched"`
	Suggested []model.Match         `json:"suggested"`
}

// ImportStatement accepts a multipart form with a "file" field holding one
// statement export, runs the parse/dedup/reconcile pipeline, and persists
// the outcome: new transactions inserted, auto-matched invoices marked
// paid with the transaction date.
func (h *Handlers) ImportStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	parsed, err := h.parser.Parse(string(data))
	if err != nil {
		// Structural failure: no partial results.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	invoices, err := h.store.ListOpenInvoices()
	if err != nil {
		h.serverError(w, err, "list open invoices")
		return
	}
	existing, err := h.store.ExistingHashes()
	if err != nil {
		h.serverError(w, err, "load existing hashes")
		return
	}

	result := h.orch.Run(parsed, existing, invoices)

	all := make([]model.Match, 0, len(result.Transactions))
	all = append(all, result.Reconcile.Matched...)
	all = append(all, result.Reconcile.Suggested...)
	all = append(all, result.Reconcile.Unmatched...)
	if _, err := h.store.InsertMatches(all); err != nil {
		h.serverError(w, err, "insert transactions")
		return
	}

	for _, m := range result.Reconcile.Matched {
		if err := h.store.MarkInvoicePaid(m.InvoiceID, m.Transaction.Date); err != nil {
			h.serverError(w, err, "mark invoice paid")
			return
		}
	}

	h.log.Info().
		Str("file", header.Filename).
		Str("layout", result.Report.DetectedLayout).
		Int("parsed", result.Report.Parsed).
		Int("imported", result.Report.Imported).
		Int("duplicates", result.Report.Duplicates).
		Int("auto_matched", result.Report.AutoMatched).
		Int("suggested", result.Report.Suggested).
		Int("failed", result.Report.Failed).
		Msg("statement imported")

	writeJSON(w, http.StatusOK, importResponse{
		Report:    result.Report,
		Matched:   result.Reconcile.Matched,
		Suggested: result.Reconcile.Suggested,
	})
}

// ListTransactions returns stored transactions, optionally filtered with
// ?status=.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	status := model.TransactionStatus(r.URL.Query().Get("status"))
	txns, err := h.store.ListTransactions(status)
	if err != nil {
		h.serverError(w, err, "list transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

// ListSuggestions returns transactions awaiting human confirmation.
// Candidate lists are not persisted; re-importing or re-running
// reconciliation regenerates them.
func (h *Handlers) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.store.ListTransactions(model.StatusSuggested)
	if err != nil {
		h.serverError(w, err, "list suggestions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": txns})
}

// ConfirmSuggestion applies a suggested match after human confirmation.
// Body: {"invoice_id": "..."}.
func (h *Handlers) ConfirmSuggestion(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	var body struct {
		InvoiceID string `json:"invoice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.InvoiceID == "" {
		writeError(w, http.StatusBadRequest, "invoice_id is required")
		return
	}

	err := h.store.ConfirmSuggestion(hash, body.InvoiceID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, ledger.ErrInvoiceNotOpen):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.serverError(w, err, "confirm suggestion")
		return
	}

	h.log.Info().Str("hash", hash).Str("invoice_id", body.InvoiceID).Msg("suggestion confirmed")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}

// ListInvoices returns every invoice in the ledger.
func (h *Handlers) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices()
	if err != nil {
		h.serverError(w, err, "list invoices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

// GetStats returns reconciliation totals over all stored transactions.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	txns, err := h.store.ListTransactions("")
	if err != nil {
		h.serverError(w, err, "list transactions")
		return
	}
	writeJSON(w, http.StatusOK, reconcile.ComputeStats(txns))
}

func (h *Handlers) serverError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}
