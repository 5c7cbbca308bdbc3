// Package reconcile pairs incoming credit transactions with open invoices
// using several weak signals: amount proximity, payer-name containment,
// invoice-number containment and date proximity.
package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rapproche-dev/rapproche/internal/model"
	"github.com/rapproche-dev/rapproche/internal/textutil"
)

// Signal weights and classification thresholds.
const (
	scoreAmountExact   = 50
	scoreAmountClose   = 30
	scoreAmountApprox  = 15
	scorePayerName     = 40
	scoreInvoiceNumber = 50
	scoreDateWindow    = 10

	// DefaultAutoMatchScore is the score at which a match is applied
	// without confirmation; DefaultSuggestScore the one at which it is
	// offered for confirmation.
	DefaultAutoMatchScore = 80
	DefaultSuggestScore   = 50

	// suggestionCandidates is how many ranked candidates a suggestion
	// carries; auto-matches keep a shorter evidence trail.
	suggestionCandidates = 5
	matchCandidates      = 3

	// dateWindowDays is the span after the invoice issue date in which the
	// date-proximity bonus applies.
	dateWindowDays = 30

	// minNameLen guards against trivial substrings ("Li") matching every
	// label.
	minNameLen = 3
)

var (
	amountExactThreshold = decimal.NewFromFloat(0.01)
	amountCloseThreshold = decimal.NewFromInt(1)
	amountRelativeFactor = decimal.NewFromFloat(0.05)
)

// Engine scores credit transactions against open invoices. It holds no
// state between passes; the claimed set lives for one Reconcile call.
type Engine struct {
	autoMatchScore int
	suggestScore   int
}

// NewEngine returns an Engine with the given classification thresholds.
func NewEngine(autoMatchScore, suggestScore int) *Engine {
	return &Engine{autoMatchScore: autoMatchScore, suggestScore: suggestScore}
}

// NewDefaultEngine returns an Engine with the standard thresholds.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultAutoMatchScore, DefaultSuggestScore)
}

// Reconcile partitions transactions into matched, suggested and unmatched.
// Only unreconciled, non-ignored credits are scored; everything else passes
// through as unmatched with its status untouched. Within one pass an
// invoice auto-matched to a transaction is claimed and never offered to a
// later one; a merely suggested invoice stays available.
func (e *Engine) Reconcile(transactions []model.Transaction, invoices []model.Invoice) model.ReconcileResult {
	open := make([]model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status.Open() && inv.TotalDue.IsPositive() {
			open = append(open, inv)
		}
	}

	var result model.ReconcileResult
	claimed := make(map[string]bool)

	for _, txn := range transactions {
		if !eligible(txn) {
			result.Unmatched = append(result.Unmatched, model.Match{Transaction: txn})
			continue
		}

		candidates := e.score(txn, open, claimed)
		if len(candidates) == 0 {
			result.Unmatched = append(result.Unmatched, model.Match{Transaction: txn})
			continue
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
		best := candidates[0]

		switch {
		case best.Score >= e.autoMatchScore:
			claimed[best.InvoiceID] = true
			txn.Status = model.StatusReconciled
			result.Matched = append(result.Matched, model.Match{
				Transaction: txn,
				InvoiceID:   best.InvoiceID,
				Score:       best.Score,
				Reasons:     best.Reasons,
				Candidates:  topN(candidates, matchCandidates),
			})
		case best.Score >= e.suggestScore:
			txn.Status = model.StatusSuggested
			result.Suggested = append(result.Suggested, model.Match{
				Transaction: txn,
				Score:       best.Score,
				Reasons:     best.Reasons,
				Candidates:  topN(candidates, suggestionCandidates),
			})
		default:
			result.Unmatched = append(result.Unmatched, model.Match{Transaction: txn})
		}
	}

	return result
}

// eligible reports whether a transaction takes part in scoring at all.
func eligible(txn model.Transaction) bool {
	if !txn.Amount.IsPositive() {
		return false
	}
	return txn.Status != model.StatusReconciled && txn.Status != model.StatusIgnored
}

// score builds a candidate for every unclaimed open invoice that survives
// the amount hard filter.
func (e *Engine) score(txn model.Transaction, open []model.Invoice, claimed map[string]bool) []model.MatchCandidate {
	labelFold := textutil.Fold(txn.Label)
	labelRef := textutil.SquashRef(labelFold)

	var candidates []model.MatchCandidate
	for _, inv := range open {
		if claimed[inv.ID] {
			continue
		}

		score := 0
		var reasons []model.MatchReason

		// Amount proximity; beyond 5% of the invoice total the invoice is
		// out of consideration entirely, not merely scored zero.
		diff := txn.Amount.Sub(inv.TotalDue).Abs()
		switch {
		case diff.LessThan(amountExactThreshold):
			score += scoreAmountExact
			reasons = append(reasons, model.ReasonAmountExact)
		case diff.LessThan(amountCloseThreshold):
			score += scoreAmountClose
			reasons = append(reasons, model.ReasonAmountClose)
		case diff.LessThan(inv.TotalDue.Mul(amountRelativeFactor)):
			score += scoreAmountApprox
			reasons = append(reasons, model.ReasonAmountApprox)
		default:
			continue
		}

		if payerNameInLabel(labelFold, inv) {
			score += scorePayerName
			reasons = append(reasons, model.ReasonPayerName)
		}

		if ref := textutil.SquashRef(textutil.Fold(inv.Number)); ref != "" && strings.Contains(labelRef, ref) {
			score += scoreInvoiceNumber
			reasons = append(reasons, model.ReasonInvoiceNumber)
		}

		if withinDateWindow(txn.Date, inv.IssueDate) {
			score += scoreDateWindow
			reasons = append(reasons, model.ReasonDateWindow)
		}

		candidates = append(candidates, model.MatchCandidate{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			InvoiceTotal:  inv.TotalDue,
			PayerName:     inv.PayerName(),
			Score:         score,
			Reasons:       reasons,
		})
	}
	return candidates
}

// payerNameInLabel checks every name variant tied to the invoice's payer
// against the folded label.
func payerNameInLabel(labelFold string, inv model.Invoice) bool {
	variants := []string{
		inv.PayerLastName,
		inv.PayerFirstName,
		strings.TrimSpace(inv.PayerLastName + " " + inv.PayerFirstName),
		inv.Company,
	}
	for _, v := range variants {
		folded := textutil.Fold(v)
		if len(folded) >= minNameLen && strings.Contains(labelFold, folded) {
			return true
		}
	}
	return false
}

// withinDateWindow reports whether the payment lands on or after the issue
// date and within the bonus window.
func withinDateWindow(txnDate, issueDate time.Time) bool {
	if txnDate.IsZero() || issueDate.IsZero() {
		return false
	}
	days := txnDate.Sub(issueDate).Hours() / 24
	return days >= 0 && days <= dateWindowDays
}

func topN(candidates []model.MatchCandidate, n int) []model.MatchCandidate {
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]model.MatchCandidate, len(candidates))
	copy(out, candidates)
	return out
}
