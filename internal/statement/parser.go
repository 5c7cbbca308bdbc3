// Package statement turns raw bank statement exports into canonical
// transactions. It detects the exporting bank's column layout from a closed
// registry, normalizes locale-specific numbers and dates, and stamps each
// transaction with a stable deduplication hash.
package statement

import (
	"errors"
	"fmt"

	"github.com/rapproche-dev/rapproche/internal/categorize"
	"github.com/rapproche-dev/rapproche/internal/model"
	"github.com/rapproche-dev/rapproche/internal/txhash"
)

// ErrNoData is returned when the file lacks a header row plus at least one
// data row. Structural: nothing is parsed.
var ErrNoData = errors.New("statement needs a header row and at least one data row")

// Parser converts raw statement text into canonical transactions.
type Parser struct {
	hasher txhash.Hasher
}

// NewParser returns a Parser using the given hash strategy.
func NewParser(hasher txhash.Hasher) *Parser {
	return &Parser{hasher: hasher}
}

// Parse runs the full pipeline over one statement file. Row-level problems
// (bad date, missing label, unparseable amount) skip the row and record an
// error with its line number; parsing always continues. Only structural
// failure aborts.
func (p *Parser) Parse(text string) (*model.ParseResult, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, ErrNoData
	}

	sep := detectSeparator(lines)
	headers := splitFields(lines[0], sep)
	layout := DetectLayout(headers)
	idx := headerIndex(headers)

	result := &model.ParseResult{DetectedLayout: layout.Name}

	for i, line := range lines[1:] {
		lineNum := i + 2 // 1-based, after the header
		row := splitFields(line, sep)
		if len(row) < 2 || allEmpty(row) {
			continue
		}

		ext := layout.Extract(row, idx)

		if !ext.DateOK {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("line %d: invalid date", lineNum))
			continue
		}
		if ext.Label == "" {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("line %d: missing label", lineNum))
			continue
		}
		if ext.Amount == nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("line %d: invalid amount", lineNum))
			continue
		}

		txn := model.Transaction{
			Date:   ext.Date,
			Label:  ext.Label,
			Amount: ext.Amount.Round(2),
			Status: model.StatusUnreconciled,
		}
		if ext.Balance != nil {
			rounded := ext.Balance.Round(2)
			txn.Balance = &rounded
		}
		txn.Category = categorize.Categorize(txn.Label)
		txn.Hash = p.hasher.Sum(txn.DateString(), txn.Label, txn.Amount.StringFixed(2))

		result.Transactions = append(result.Transactions, txn)
	}

	return result, nil
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
