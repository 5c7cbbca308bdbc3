package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapproche-dev/rapproche/internal/model"
	"github.com/rapproche-dev/rapproche/internal/reconcile"
)

func txn(hash, label string, amount float64) model.Transaction {
	return model.Transaction{
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Label:  label,
		Amount: decimal.NewFromFloat(amount),
		Hash:   hash,
		Status: model.StatusUnreconciled,
	}
}

func TestRun_DeduplicatesAgainstStore(t *testing.T) {
	o := New(reconcile.NewDefaultEngine())

	parsed := &model.ParseResult{
		DetectedLayout: "LCL",
		Transactions: []model.Transaction{
			txn("h1", "VIR A", 100),
			txn("h2", "VIR B", 200),
		},
	}
	existing := map[string]struct{}{"h1": {}}

	result := o.Run(parsed, existing, nil)

	assert.Equal(t, 2, result.Report.Parsed)
	assert.Equal(t, 1, result.Report.Imported)
	assert.Equal(t, 1, result.Report.Duplicates)
	assert.Equal(t, "LCL", result.Report.DetectedLayout)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "h2", result.Transactions[0].Hash)
}

func TestRun_InFileRepeatsCountAsDuplicates(t *testing.T) {
	o := New(reconcile.NewDefaultEngine())

	parsed := &model.ParseResult{
		Transactions: []model.Transaction{
			txn("h1", "VIR A", 100),
			txn("h1", "VIR A", 100),
		},
	}

	result := o.Run(parsed, nil, nil)

	assert.Equal(t, 1, result.Report.Imported)
	assert.Equal(t, 1, result.Report.Duplicates)
}

func TestRun_DoesNotMutateExistingHashes(t *testing.T) {
	o := New(reconcile.NewDefaultEngine())

	parsed := &model.ParseResult{Transactions: []model.Transaction{txn("h1", "VIR A", 100)}}
	existing := map[string]struct{}{}

	o.Run(parsed, existing, nil)

	assert.Empty(t, existing)
}

func TestRun_ReconcilesFreshTransactions(t *testing.T) {
	o := New(reconcile.NewDefaultEngine())

	parsed := &model.ParseResult{
		Transactions: []model.Transaction{
			txn("h1", "VIR CLIENT DUPONT FAC2024-017", 1200.00),
			txn("h2", "PRLV EDF", -85.50),
		},
		RowErrors: []string{"line 4: invalid date"},
	}
	inv := model.Invoice{
		ID:            "inv-001",
		Number:        "FAC2024-017",
		PayerLastName: "Dupont",
		TotalDue:      decimal.NewFromFloat(1200.00),
		IssueDate:     time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		Status:        model.InvoiceSent,
	}

	result := o.Run(parsed, nil, []model.Invoice{inv})

	assert.Equal(t, 1, result.Report.AutoMatched)
	assert.Equal(t, 0, result.Report.Suggested)
	assert.Equal(t, 1, result.Report.Unmatched)
	assert.Equal(t, 1, result.Report.Failed)

	// Every imported transaction appears exactly once, with its
	// post-reconciliation status.
	require.Len(t, result.Transactions, 2)
	byHash := map[string]model.Transaction{}
	for _, tx := range result.Transactions {
		byHash[tx.Hash] = tx
	}
	assert.Equal(t, model.StatusReconciled, byHash["h1"].Status)
	assert.Equal(t, model.StatusUnreconciled, byHash["h2"].Status)
}

func TestRun_SecondImportIsIdempotent(t *testing.T) {
	o := New(reconcile.NewDefaultEngine())

	parsed := &model.ParseResult{
		Transactions: []model.Transaction{txn("h1", "VIR A", 100)},
	}

	first := o.Run(parsed, nil, nil)
	require.Equal(t, 1, first.Report.Imported)

	stored := map[string]struct{}{}
	for _, tx := range first.Transactions {
		stored[tx.Hash] = struct{}{}
	}

	second := o.Run(parsed, stored, nil)
	assert.Equal(t, 0, second.Report.Imported)
	assert.Equal(t, 1, second.Report.Duplicates)
}
