package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rapproche-dev/rapproche/internal/model"
)

// Invoice CSV column layout, used by the offline import path and seeding.
const (
	numFields     = 8
	colID         = 0
	colNumber     = 1
	colLastName   = 2
	colFirstName  = 3
	colCompany    = 4
	colTotalDue   = 5
	colIssueDate  = 6
	colStatus     = 7
	issueDateForm = "2006-01-02"
)

var csvHeader = []string{"id", "number", "payer_last_name", "payer_first_name", "company", "total_due", "issue_date", "status"}

// ReadInvoices reads an invoices.csv.
func ReadInvoices(r io.Reader) ([]model.Invoice, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading invoices CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var invoices []model.Invoice
	for i, rec := range records[1:] {
		inv, err := UnmarshalInvoice(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// WriteInvoices writes an invoices.csv.
func WriteInvoices(w io.Writer, invoices []model.Invoice) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, inv := range invoices {
		if err := cw.Write(MarshalInvoice(inv)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalInvoice converts an Invoice to a CSV row.
func MarshalInvoice(inv model.Invoice) []string {
	row := make([]string, numFields)
	row[colID] = inv.ID
	row[colNumber] = inv.Number
	row[colLastName] = inv.PayerLastName
	row[colFirstName] = inv.PayerFirstName
	row[colCompany] = inv.Company
	row[colTotalDue] = inv.TotalDue.StringFixed(2)
	row[colIssueDate] = inv.IssueDate.Format(issueDateForm)
	row[colStatus] = string(inv.Status)
	return row
}

// UnmarshalInvoice converts a CSV row to an Invoice.
func UnmarshalInvoice(record []string) (model.Invoice, error) {
	if len(record) != numFields {
		return model.Invoice{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	totalDue, err := decimal.NewFromString(record[colTotalDue])
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parsing total_due %q: %w", record[colTotalDue], err)
	}

	issueDate, err := time.Parse(issueDateForm, record[colIssueDate])
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parsing issue_date %q: %w", record[colIssueDate], err)
	}

	return model.Invoice{
		ID:             record[colID],
		Number:         record[colNumber],
		PayerLastName:  record[colLastName],
		PayerFirstName: record[colFirstName],
		Company:        record[colCompany],
		TotalDue:       totalDue,
		IssueDate:      issueDate,
		Status:         model.InvoiceStatus(record[colStatus]),
	}, nil
}
