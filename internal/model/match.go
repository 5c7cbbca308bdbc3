package model

import "github.com/shopspring/decimal"

// MatchReason names one scoring signal that fired for a candidate.
type MatchReason string

const (
	ReasonAmountExact   MatchReason = "amount_exact"
	ReasonAmountClose   MatchReason = "amount_close"
	ReasonAmountApprox  MatchReason = "amount_approx"
	ReasonPayerName     MatchReason = "payer_name"
	ReasonInvoiceNumber MatchReason = "invoice_number"
	ReasonDateWindow    MatchReason = "date_window"
)

// MatchCandidate pairs one transaction with one invoice for the duration of
// a single reconciliation pass. Candidates are never persisted.
type MatchCandidate struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceTotal  decimal.Decimal `json:"invoice_total"`
	PayerName     string          `json:"payer_name"`
	Score         int             `json:"score"`
	Reasons       []MatchReason   `json:"reasons"`
}

// Match is a transaction together with the scoring evidence that placed it
// in its reconciliation partition.
type Match struct {
	Transaction Transaction      `json:"transaction"`
	InvoiceID   string           `json:"invoice_id,omitempty"` // set for auto-matches
	Score       int              `json:"score,omitempty"`
	Reasons     []MatchReason    `json:"reasons,omitempty"`
	Candidates  []MatchCandidate `json:"candidates,omitempty"` // top candidates, set for suggestions
}

// ReconcileResult partitions one reconciliation pass. Every input
// transaction lands in exactly one of the three slices.
type ReconcileResult struct {
	Matched   []Match `json:"matched"`
	Suggested []Match `json:"suggested"`
	Unmatched []Match `json:"unmatched"`
}
