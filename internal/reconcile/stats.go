package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/rapproche-dev/rapproche/internal/model"
)

// Stats summarises a transaction set for display.
type Stats struct {
	Total        int             `json:"total"`
	Reconciled   int             `json:"reconciled"`
	Suggested    int             `json:"suggested"`
	Ignored      int             `json:"ignored"`
	Unreconciled int             `json:"unreconciled"`
	CreditCount  int             `json:"credit_count"`
	DebitCount   int             `json:"debit_count"`
	CreditTotal  decimal.Decimal `json:"credit_total"`
	DebitTotal   decimal.Decimal `json:"debit_total"`
}

// ComputeStats tallies statuses and credit/debit volumes.
func ComputeStats(transactions []model.Transaction) Stats {
	stats := Stats{Total: len(transactions)}
	for _, txn := range transactions {
		switch txn.Status {
		case model.StatusReconciled:
			stats.Reconciled++
		case model.StatusSuggested:
			stats.Suggested++
		case model.StatusIgnored:
			stats.Ignored++
		default:
			stats.Unreconciled++
		}

		switch {
		case txn.Amount.IsPositive():
			stats.CreditCount++
			stats.CreditTotal = stats.CreditTotal.Add(txn.Amount)
		case txn.Amount.IsNegative():
			stats.DebitCount++
			stats.DebitTotal = stats.DebitTotal.Add(txn.Amount)
		}
	}
	return stats
}
