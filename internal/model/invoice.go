package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus mirrors the ledger's invoice lifecycle. The reconciliation
// core never writes these; it only reads them to decide eligibility.
type InvoiceStatus string

const (
	InvoiceSent            InvoiceStatus = "sent"
	InvoicePending         InvoiceStatus = "pending"
	InvoiceViewed          InvoiceStatus = "viewed"
	InvoiceDepositInvoiced InvoiceStatus = "deposit_invoiced"
	InvoicePaid            InvoiceStatus = "paid"
	InvoiceCancelled       InvoiceStatus = "cancelled"
)

// Open reports whether the status means the invoice is still awaiting payment.
func (s InvoiceStatus) Open() bool {
	switch s {
	case InvoiceSent, InvoicePending, InvoiceViewed, InvoiceDepositInvoiced:
		return true
	}
	return false
}

// Invoice is an outstanding receivable from the ledger store. Read-only to
// the reconciliation core: match decisions are emitted, never applied here.
type Invoice struct {
	ID             string          `json:"id"`
	Number         string          `json:"number"`
	PayerLastName  string          `json:"payer_last_name"`
	PayerFirstName string          `json:"payer_first_name,omitempty"`
	Company        string          `json:"company,omitempty"`
	TotalDue       decimal.Decimal `json:"total_due"`
	IssueDate      time.Time       `json:"issue_date"`
	Status         InvoiceStatus   `json:"status"`
}

// PayerName returns the display name for the payer: "Last First" when both
// are present, otherwise whichever part exists, otherwise the company.
func (i Invoice) PayerName() string {
	switch {
	case i.PayerLastName != "" && i.PayerFirstName != "":
		return i.PayerLastName + " " + i.PayerFirstName
	case i.PayerLastName != "":
		return i.PayerLastName
	case i.PayerFirstName != "":
		return i.PayerFirstName
	}
	return i.Company
}
