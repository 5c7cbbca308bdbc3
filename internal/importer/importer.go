// Package importer coordinates one statement import: deduplication against
// previously stored transactions, reconciliation of the remainder, and the
// summary report. It owns no parsing or scoring logic and performs no I/O;
// callers supply the existing-hash set and open invoices as plain data and
// persist the outcome themselves.
package importer

import (
	"github.com/rapproche-dev/rapproche/internal/model"
	"github.com/rapproche-dev/rapproche/internal/reconcile"
)

// Orchestrator runs the dedup + reconcile step of an import.
type Orchestrator struct {
	engine *reconcile.Engine
}

// New creates an Orchestrator around a reconciliation engine.
func New(engine *reconcile.Engine) *Orchestrator {
	return &Orchestrator{engine: engine}
}

// Result carries everything a caller needs to persist an import.
type Result struct {
	Report       model.ImportReport
	Reconcile    model.ReconcileResult
	Transactions []model.Transaction // deduplicated new transactions, post-reconciliation statuses
}

// Run deduplicates the parse result against existingHashes, reconciles the
// new transactions against the open invoices, and builds the report.
// Duplicate rows are counted, never re-imported; hashes repeated within the
// same file count as duplicates too.
func (o *Orchestrator) Run(parsed *model.ParseResult, existingHashes map[string]struct{}, invoices []model.Invoice) *Result {
	seen := make(map[string]struct{}, len(existingHashes))
	for h := range existingHashes {
		seen[h] = struct{}{}
	}

	var fresh []model.Transaction
	duplicates := 0
	for _, txn := range parsed.Transactions {
		if _, ok := seen[txn.Hash]; ok {
			duplicates++
			continue
		}
		seen[txn.Hash] = struct{}{}
		fresh = append(fresh, txn)
	}

	recon := o.engine.Reconcile(fresh, invoices)

	transactions := make([]model.Transaction, 0, len(fresh))
	for _, part := range [][]model.Match{recon.Matched, recon.Suggested, recon.Unmatched} {
		for _, m := range part {
			transactions = append(transactions, m.Transaction)
		}
	}

	return &Result{
		Report: model.ImportReport{
			Parsed:         len(parsed.Transactions),
			Imported:       len(fresh),
			Duplicates:     duplicates,
			AutoMatched:    len(recon.Matched),
			Suggested:      len(recon.Suggested),
			Unmatched:      len(recon.Unmatched),
			Failed:         len(parsed.RowErrors),
			DetectedLayout: parsed.DetectedLayout,
			RowErrors:      parsed.RowErrors,
		},
		Reconcile:    recon,
		Transactions: transactions,
	}
}
