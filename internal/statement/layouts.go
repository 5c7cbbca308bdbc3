package statement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rapproche-dev/rapproche/internal/textutil"
)

// extracted is a partially-filled transaction produced by one layout's
// extraction function, before row validation.
type extracted struct {
	Date    time.Time
	DateOK  bool
	Label   string
	Amount  *decimal.Decimal
	Balance *decimal.Decimal
}

// Layout describes one supported bank export format: a detection predicate
// over the header row and an extraction function for data rows. Exactly one
// layout (or the generic fallback) is selected per file.
type Layout struct {
	ID      string
	Name    string
	Detect  func(headers []string) bool
	Extract func(row []string, idx map[string]int) extracted
}

// headerIndex maps folded header names to their column index.
func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		key := textutil.Fold(CleanLabel(h))
		if key != "" {
			idx[key] = i
		}
	}
	return idx
}

// hasHeaders reports whether every expected fragment appears in some header,
// compared case- and accent-insensitively by containment.
func hasHeaders(headers []string, expected ...string) bool {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = textutil.Fold(CleanLabel(h))
	}
	for _, e := range expected {
		want := textutil.Fold(e)
		found := false
		for _, h := range folded {
			if strings.Contains(h, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// findColumn returns the index of the first header containing any of the
// candidate fragments, or -1.
func findColumn(idx map[string]int, candidates ...string) int {
	for _, c := range candidates {
		want := textutil.Fold(c)
		if i, ok := idx[want]; ok {
			return i
		}
		best := -1
		for key, i := range idx {
			if strings.Contains(key, want) && (best == -1 || i < best) {
				best = i
			}
		}
		if best != -1 {
			return best
		}
	}
	return -1
}

// cell returns the trimmed cell at column i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// debitCredit folds separate debit/credit columns into one signed amount:
// the credit when it is positive, else the negated absolute debit, else
// zero.
func debitCredit(debit, credit *decimal.Decimal) *decimal.Decimal {
	if credit != nil && credit.IsPositive() {
		return credit
	}
	if debit != nil && !debit.IsZero() {
		neg := debit.Abs().Neg()
		return &neg
	}
	zero := decimal.Zero
	return &zero
}

// extractAt fills an extracted from explicit column indexes; -1 skips a
// field.
func extractAt(row []string, dateCol, labelCol int, amount, balance *decimal.Decimal) extracted {
	ext := extracted{
		Label:   CleanLabel(cell(row, labelCol)),
		Amount:  amount,
		Balance: balance,
	}
	ext.Date, ext.DateOK = ParseDate(cell(row, dateCol))
	return ext
}

// layouts is the closed registry, tried in order: the first matching
// detection wins. Order matters: layouts whose headers are a
// superset of another's (CIC's "valeur" column, for instance) must come
// before the subset they would otherwise be mistaken for.
var layouts = []Layout{
	{
		ID:   "societe_generale",
		Name: "Société Générale",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "libellé", "débit", "crédit", "solde") && !hasHeaders(h, "valeur")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			debit := ParseAmount(cell(row, findColumn(idx, "débit")))
			credit := ParseAmount(cell(row, findColumn(idx, "crédit")))
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "libellé", "libelle"),
				debitCredit(debit, credit),
				ParseAmount(cell(row, findColumn(idx, "solde"))))
		},
	},
	{
		ID:   "bnp_paribas",
		Name: "BNP Paribas",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date opération", "libellé", "montant")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			return extractAt(row,
				findColumn(idx, "date opération", "date"), findColumn(idx, "libellé"),
				ParseAmount(cell(row, findColumn(idx, "montant"))),
				ParseAmount(cell(row, findColumn(idx, "solde"))))
		},
	},
	{
		ID:   "cic_credit_mutuel",
		Name: "CIC / Crédit Mutuel",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "valeur", "libellé", "débit", "crédit")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			debit := ParseAmount(cell(row, findColumn(idx, "débit")))
			credit := ParseAmount(cell(row, findColumn(idx, "crédit")))
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "libellé"),
				debitCredit(debit, credit), nil)
		},
	},
	{
		ID:   "caisse_epargne",
		Name: "Caisse d'Épargne",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "libellé", "débit", "crédit", "solde") && !hasHeaders(h, "valeur")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			debit := ParseAmount(cell(row, findColumn(idx, "débit")))
			credit := ParseAmount(cell(row, findColumn(idx, "crédit")))
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "libellé"),
				debitCredit(debit, credit),
				ParseAmount(cell(row, findColumn(idx, "solde"))))
		},
	},
	{
		ID:   "banque_postale",
		Name: "La Banque Postale",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "libellé", "montant") && len(h) <= 4
		},
		Extract: func(row []string, idx map[string]int) extracted {
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "libellé"),
				ParseAmount(cell(row, findColumn(idx, "montant"))), nil)
		},
	},
	{
		ID:   "credit_agricole",
		Name: "Crédit Agricole",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "libellé", "débit euros", "crédit euros")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			debit := ParseAmount(cell(row, findColumn(idx, "débit euros")))
			credit := ParseAmount(cell(row, findColumn(idx, "crédit euros")))
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "libellé"),
				debitCredit(debit, credit), nil)
		},
	},
	{
		ID:   "lcl",
		Name: "LCL",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "libellé", "débit", "crédit") &&
				!hasHeaders(h, "solde") && !hasHeaders(h, "valeur")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			debit := ParseAmount(cell(row, findColumn(idx, "débit")))
			credit := ParseAmount(cell(row, findColumn(idx, "crédit")))
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "libellé"),
				debitCredit(debit, credit), nil)
		},
	},
	{
		ID:   "qonto",
		Name: "Qonto",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "libellé", "montant ttc") ||
				hasHeaders(h, "date", "libellé", "montant ht")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "libellé"),
				ParseAmount(cell(row, findColumn(idx, "montant ttc", "montant ht", "montant"))), nil)
		},
	},
	{
		ID:   "shine",
		Name: "Shine",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "label", "amount")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "label"),
				ParseAmount(cell(row, findColumn(idx, "amount"))),
				ParseAmount(cell(row, findColumn(idx, "balance"))))
		},
	},
	{
		ID:   "n26",
		Name: "N26",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "bénéficiaire", "montant (eur)")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			return extractAt(row,
				findColumn(idx, "date"), findColumn(idx, "bénéficiaire", "payee"),
				ParseAmount(cell(row, findColumn(idx, "montant (eur)", "amount (eur)"))),
				ParseAmount(cell(row, findColumn(idx, "solde (eur)", "balance (eur)"))))
		},
	},
	{
		ID:   "boursorama",
		Name: "Boursorama",
		Detect: func(h []string) bool {
			return hasHeaders(h, "dateop", "libelle", "montant") ||
				hasHeaders(h, "date op", "libelle", "montant")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			return extractAt(row,
				findColumn(idx, "dateop", "date op", "date"), findColumn(idx, "libelle", "libellé"),
				ParseAmount(cell(row, findColumn(idx, "montant"))), nil)
		},
	},
	{
		ID:   "revolut",
		Name: "Revolut",
		Detect: func(h []string) bool {
			return hasHeaders(h, "date", "description", "amount")
		},
		Extract: func(row []string, idx map[string]int) extracted {
			return extractAt(row,
				findColumn(idx, "started date", "date"), findColumn(idx, "description"),
				ParseAmount(cell(row, findColumn(idx, "amount"))),
				ParseAmount(cell(row, findColumn(idx, "balance"))))
		},
	},
}

// Synonym fragments the generic fallback searches the header for.
var (
	genericDateCols    = []string{"date", "date opération", "date operation", "dateop", "date op", "started date"}
	genericLabelCols   = []string{"libellé", "libelle", "label", "description", "bénéficiaire", "beneficiaire", "payee", "objet"}
	genericAmountCols  = []string{"montant", "amount", "montant ttc", "montant (eur)", "amount (eur)"}
	genericDebitCols   = []string{"débit", "debit", "débit euros", "debit euros"}
	genericCreditCols  = []string{"crédit", "credit", "crédit euros", "credit euros"}
	genericBalanceCols = []string{"solde", "balance", "solde (eur)", "balance (eur)"}
)

// genericLayout is the best-effort fallback used when no named layout
// matches. When no amount-bearing column exists at all the amount is zero
// rather than a row failure; lenient on purpose, so an unknown export still
// imports its dates and labels.
var genericLayout = Layout{
	ID:   "generic",
	Name: "Generic layout",
	Extract: func(row []string, idx map[string]int) extracted {
		dateCol := findColumn(idx, genericDateCols...)
		labelCol := findColumn(idx, genericLabelCols...)
		amountCol := findColumn(idx, genericAmountCols...)
		debitCol := findColumn(idx, genericDebitCols...)
		creditCol := findColumn(idx, genericCreditCols...)
		balanceCol := findColumn(idx, genericBalanceCols...)

		var amount *decimal.Decimal
		switch {
		case amountCol != -1:
			amount = ParseAmount(cell(row, amountCol))
		case debitCol != -1 || creditCol != -1:
			amount = debitCredit(ParseAmount(cell(row, debitCol)), ParseAmount(cell(row, creditCol)))
		default:
			zero := decimal.Zero
			amount = &zero
		}

		var balance *decimal.Decimal
		if balanceCol != -1 {
			balance = ParseAmount(cell(row, balanceCol))
		}

		ext := extractAt(row, dateCol, labelCol, amount, balance)
		if ext.Label == "" {
			ext.Label = CleanLabel(cell(row, 1))
		}
		return ext
	},
}

// DetectLayout selects the layout for a header row. The returned layout is
// used for every data row of the file.
func DetectLayout(headers []string) Layout {
	for _, l := range layouts {
		if l.Detect(headers) {
			return l
		}
	}
	return genericLayout
}
