package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapproche-dev/rapproche/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func credit(date time.Time, label string, amount float64) model.Transaction {
	return model.Transaction{
		Date:   date,
		Label:  label,
		Amount: decimal.NewFromFloat(amount),
		Hash:   "hash-" + label,
		Status: model.StatusUnreconciled,
	}
}

func invoice(id, number, lastName, firstName string, total float64, issued time.Time) model.Invoice {
	return model.Invoice{
		ID:             id,
		Number:         number,
		PayerLastName:  lastName,
		PayerFirstName: firstName,
		TotalDue:       decimal.NewFromFloat(total),
		IssueDate:      issued,
		Status:         model.InvoiceSent,
	}
}

func TestReconcile_AutoMatchOnStrongSignals(t *testing.T) {
	e := NewDefaultEngine()

	txn := credit(day(2024, 3, 1), "VIR CLIENT DUPONT FAC2024-017", 1200.00)
	inv := invoice("inv-001", "FAC2024-017", "Dupont", "Marie", 1200.00, day(2024, 2, 20))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	require.Len(t, result.Matched, 1)
	assert.Empty(t, result.Suggested)
	assert.Empty(t, result.Unmatched)

	m := result.Matched[0]
	assert.Equal(t, "inv-001", m.InvoiceID)
	// exact amount + payer name + invoice number + date window
	assert.Equal(t, 150, m.Score)
	assert.ElementsMatch(t, []model.MatchReason{
		model.ReasonAmountExact,
		model.ReasonPayerName,
		model.ReasonInvoiceNumber,
		model.ReasonDateWindow,
	}, m.Reasons)
	assert.Equal(t, model.StatusReconciled, m.Transaction.Status)
}

func TestReconcile_InvoiceNumberMatchIgnoresSpacing(t *testing.T) {
	e := NewDefaultEngine()

	txn := credit(day(2024, 3, 1), "VIR FACTURE FAC 2024-017", 1200.00)
	inv := invoice("inv-001", "FAC2024-017", "Durand", "", 1200.00, day(2023, 12, 1))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	require.Len(t, result.Matched, 1)
	assert.Contains(t, result.Matched[0].Reasons, model.ReasonInvoiceNumber)
}

func TestReconcile_PayerNameAccentInsensitive(t *testing.T) {
	e := NewDefaultEngine()

	txn := credit(day(2024, 3, 1), "VIR M FRANCOIS LEFEVRE", 860.00)
	inv := invoice("inv-002", "FAC2024-020", "Lefèvre", "François", 860.00, day(2024, 2, 25))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	require.Len(t, result.Matched, 1)
	assert.Contains(t, result.Matched[0].Reasons, model.ReasonPayerName)
}

func TestReconcile_ExactThresholdAutoMatches(t *testing.T) {
	e := NewDefaultEngine()

	// amount close (30) + invoice number (50) lands exactly on the
	// auto-match threshold.
	txn := credit(day(2024, 6, 1), "VIR REF FAC2024-021", 430.00)
	inv := invoice("inv-003", "FAC2024-021", "Rossi", "", 430.50, day(2024, 1, 5))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, 80, result.Matched[0].Score)
}

func TestReconcile_OnePointBelowAutoThresholdSuggests(t *testing.T) {
	// Same evidence as the exact-threshold case, with the bar one point
	// higher: the score of 80 now only suggests.
	e := NewEngine(81, DefaultSuggestScore)

	txn := credit(day(2024, 6, 1), "VIR REF FAC2024-021", 430.00)
	inv := invoice("inv-003", "FAC2024-021", "Rossi", "", 430.50, day(2024, 1, 5))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	assert.Empty(t, result.Matched)
	require.Len(t, result.Suggested, 1)
	assert.Equal(t, 80, result.Suggested[0].Score)
}

func TestReconcile_SuggestsBelowAutoThreshold(t *testing.T) {
	e := NewDefaultEngine()

	// exact amount only: score 50, suggested but not applied.
	txn := credit(day(2024, 6, 1), "VIR SANS REFERENCE", 430.50)
	inv := invoice("inv-003", "FAC2024-021", "Rossi", "", 430.50, day(2024, 1, 5))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	assert.Empty(t, result.Matched)
	require.Len(t, result.Suggested, 1)
	s := result.Suggested[0]
	assert.Equal(t, 50, s.Score)
	assert.Empty(t, s.InvoiceID)
	assert.Equal(t, model.StatusSuggested, s.Transaction.Status)
	require.Len(t, s.Candidates, 1)
	assert.Equal(t, "inv-003", s.Candidates[0].InvoiceID)
}

func TestReconcile_AmountHardFilter(t *testing.T) {
	e := NewDefaultEngine()

	// Name and number both present, but the amount is off by far more than
	// 5% of the invoice total, so the invoice is not even a candidate.
	txn := credit(day(2024, 3, 1), "VIR DUPONT FAC2024-017", 600.00)
	inv := invoice("inv-001", "FAC2024-017", "Dupont", "Marie", 1200.00, day(2024, 2, 20))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	assert.Empty(t, result.Matched)
	assert.Empty(t, result.Suggested)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, model.StatusUnreconciled, result.Unmatched[0].Transaction.Status)
}

func TestReconcile_DebitsPassThrough(t *testing.T) {
	e := NewDefaultEngine()

	txn := model.Transaction{
		Date:   day(2024, 3, 2),
		Label:  "PRLV EDF",
		Amount: decimal.NewFromFloat(-85.50),
		Status: model.StatusUnreconciled,
	}
	inv := invoice("inv-001", "FAC2024-017", "Dupont", "", 1200.00, day(2024, 2, 20))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	require.Len(t, result.Unmatched, 1)
	assert.Empty(t, result.Unmatched[0].InvoiceID)
}

func TestReconcile_ReconciledAndIgnoredUntouched(t *testing.T) {
	e := NewDefaultEngine()

	reconciled := credit(day(2024, 3, 1), "VIR CLIENT DUPONT FAC2024-017", 1200.00)
	reconciled.Status = model.StatusReconciled
	ignored := credit(day(2024, 3, 2), "VIR INTERNE", 500.00)
	ignored.Status = model.StatusIgnored

	inv := invoice("inv-001", "FAC2024-017", "Dupont", "Marie", 1200.00, day(2024, 2, 20))

	result := e.Reconcile([]model.Transaction{reconciled, ignored}, []model.Invoice{inv})

	assert.Empty(t, result.Matched)
	require.Len(t, result.Unmatched, 2)
	assert.Equal(t, model.StatusReconciled, result.Unmatched[0].Transaction.Status)
	assert.Equal(t, model.StatusIgnored, result.Unmatched[1].Transaction.Status)
}

func TestReconcile_ClosedInvoicesNotConsidered(t *testing.T) {
	e := NewDefaultEngine()

	txn := credit(day(2024, 3, 1), "VIR CLIENT DUPONT FAC2024-017", 1200.00)
	paid := invoice("inv-001", "FAC2024-017", "Dupont", "Marie", 1200.00, day(2024, 2, 20))
	paid.Status = model.InvoicePaid

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{paid})

	assert.Empty(t, result.Matched)
	assert.Empty(t, result.Suggested)
	require.Len(t, result.Unmatched, 1)
}

func TestReconcile_NoDoubleClaim(t *testing.T) {
	e := NewDefaultEngine()

	first := credit(day(2024, 3, 1), "VIR CLIENT DUPONT FAC2024-017", 1200.00)
	second := credit(day(2024, 3, 8), "VIR CLIENT DUPONT FAC2024-017 BIS", 1200.00)
	inv := invoice("inv-001", "FAC2024-017", "Dupont", "Marie", 1200.00, day(2024, 2, 20))

	result := e.Reconcile([]model.Transaction{first, second}, []model.Invoice{inv})

	// The first credit claims the invoice; the second finds no candidates
	// left even though it scores just as well.
	require.Len(t, result.Matched, 1)
	assert.Equal(t, "hash-VIR CLIENT DUPONT FAC2024-017", result.Matched[0].Transaction.Hash)
	assert.Empty(t, result.Suggested)
	require.Len(t, result.Unmatched, 1)
}

func TestReconcile_SuggestedInvoiceStaysAvailable(t *testing.T) {
	e := NewDefaultEngine()

	// Two ambiguous credits suggest the same invoice; suggestion does not
	// claim it.
	a := credit(day(2024, 3, 1), "VIR SANS REF A", 430.50)
	b := credit(day(2024, 3, 2), "VIR SANS REF B", 430.50)
	inv := invoice("inv-003", "FAC2024-021", "Rossi", "", 430.50, day(2024, 1, 5))

	result := e.Reconcile([]model.Transaction{a, b}, []model.Invoice{inv})

	assert.Empty(t, result.Matched)
	require.Len(t, result.Suggested, 2)
	assert.Equal(t, "inv-003", result.Suggested[0].Candidates[0].InvoiceID)
	assert.Equal(t, "inv-003", result.Suggested[1].Candidates[0].InvoiceID)
}

func TestReconcile_BestCandidateWins(t *testing.T) {
	e := NewDefaultEngine()

	txn := credit(day(2024, 3, 1), "VIR CLIENT DUPONT", 1200.00)
	weaker := invoice("inv-010", "FAC2024-030", "Morel", "", 1200.00, day(2024, 2, 25))
	stronger := invoice("inv-011", "FAC2024-031", "Dupont", "", 1200.00, day(2024, 2, 25))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{weaker, stronger})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "inv-011", result.Matched[0].InvoiceID)
	require.NotEmpty(t, result.Matched[0].Candidates)
	assert.Equal(t, "inv-011", result.Matched[0].Candidates[0].InvoiceID)
}

func TestReconcile_CustomThresholds(t *testing.T) {
	e := NewEngine(120, 100)

	// Score 100: auto under the defaults, only a suggestion with a
	// stricter configuration.
	txn := credit(day(2024, 3, 1), "VIR CLIENT DUPONT", 1200.00)
	inv := invoice("inv-011", "FAC2024-031", "Dupont", "", 1200.00, day(2024, 2, 25))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	assert.Empty(t, result.Matched)
	require.Len(t, result.Suggested, 1)
	assert.Equal(t, 100, result.Suggested[0].Score)
}

func TestReconcile_ShortNamesNeverMatch(t *testing.T) {
	e := NewDefaultEngine()

	// A two-letter surname would be contained in nearly every label; it
	// must not count as a name signal.
	txn := credit(day(2024, 3, 1), "VIR LIVRAISON CHANTIER", 430.50)
	inv := invoice("inv-020", "FAC2024-040", "Li", "", 430.50, day(2024, 2, 25))

	result := e.Reconcile([]model.Transaction{txn}, []model.Invoice{inv})

	assert.Empty(t, result.Matched)
	require.Len(t, result.Suggested, 1)
	assert.NotContains(t, result.Suggested[0].Reasons, model.ReasonPayerName)
}

func TestComputeStats(t *testing.T) {
	txns := []model.Transaction{
		{Amount: decimal.NewFromFloat(1200.00), Status: model.StatusReconciled},
		{Amount: decimal.NewFromFloat(430.50), Status: model.StatusSuggested},
		{Amount: decimal.NewFromFloat(-85.50), Status: model.StatusUnreconciled},
		{Amount: decimal.NewFromFloat(-39.99), Status: model.StatusIgnored},
	}

	stats := ComputeStats(txns)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Reconciled)
	assert.Equal(t, 1, stats.Suggested)
	assert.Equal(t, 1, stats.Ignored)
	assert.Equal(t, 1, stats.Unreconciled)
	assert.Equal(t, 2, stats.CreditCount)
	assert.Equal(t, 2, stats.DebitCount)
	assert.Equal(t, "1630.50", stats.CreditTotal.StringFixed(2))
	assert.Equal(t, "-125.49", stats.DebitTotal.StringFixed(2))
}
