package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus tracks where a statement transaction sits in the
// reconciliation lifecycle.
type TransactionStatus string

const (
	StatusUnreconciled TransactionStatus = "unreconciled"
	StatusSuggested    TransactionStatus = "suggested"
	StatusReconciled   TransactionStatus = "reconciled"
	StatusIgnored      TransactionStatus = "ignored"
)

// Transaction is the canonical, layout-independent statement row.
// Amounts follow the bank convention: positive = credit (money in),
// negative = debit (money out), rounded to two decimal places.
type Transaction struct {
	Date     time.Time         `json:"date"` // calendar date only, no zone
	Label    string            `json:"label"`
	Amount   decimal.Decimal   `json:"amount"`
	Balance  *decimal.Decimal  `json:"balance,omitempty"` // running balance, when the layout exposes one
	Category string            `json:"category,omitempty"`
	Hash     string            `json:"hash"`
	Status   TransactionStatus `json:"status"`
}

// DateString returns the date in canonical YYYY-MM-DD form, as used by the
// identity hash and the ledger store.
func (t Transaction) DateString() string {
	return t.Date.Format("2006-01-02")
}
