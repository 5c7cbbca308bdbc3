package statement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapproche-dev/rapproche/internal/txhash"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParse_SocieteGenerale(t *testing.T) {
	p := NewParser(txhash.SHA256{})

	result, err := p.Parse(readFixture(t, "societe_generale.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Société Générale", result.DetectedLayout)
	assert.Empty(t, result.RowErrors)
	require.Len(t, result.Transactions, 4)

	first := result.Transactions[0]
	assert.Equal(t, "2024-03-01", first.DateString())
	assert.Equal(t, "VIR CLIENT DUPONT FAC2024-017", first.Label)
	assert.Equal(t, "1200.00", first.Amount.StringFixed(2))
	require.NotNil(t, first.Balance)
	assert.Equal(t, "5000.00", first.Balance.StringFixed(2))
	assert.Len(t, first.Hash, 64)

	edf := result.Transactions[1]
	assert.Equal(t, "-85.50", edf.Amount.StringFixed(2))
	assert.Equal(t, "Énergie & eau", edf.Category)

	assert.Equal(t, "Matériaux", result.Transactions[2].Category)
	assert.Equal(t, "Encaissement client", result.Transactions[3].Category)
}

func TestParse_RowErrorsDoNotAbort(t *testing.T) {
	p := NewParser(txhash.SHA256{})

	result, err := p.Parse(readFixture(t, "lcl_errors.csv"))
	require.NoError(t, err)
	assert.Equal(t, "LCL", result.DetectedLayout)

	require.Len(t, result.RowErrors, 2)
	assert.Equal(t, "line 3: invalid date", result.RowErrors[0])
	assert.Equal(t, "line 4: missing label", result.RowErrors[1])

	// The bad rows are skipped, everything else still parses.
	require.Len(t, result.Transactions, 3)
	assert.Equal(t, "PRLV ORANGE TELECOM", result.Transactions[0].Label)
	assert.Equal(t, "-39.99", result.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "Télécom & internet", result.Transactions[0].Category)

	// An unparseable debit in a debit/credit layout folds to zero rather
	// than failing the row.
	assert.Equal(t, "CHEQUE 0004521", result.Transactions[1].Label)
	assert.True(t, result.Transactions[1].Amount.IsZero())

	assert.Equal(t, "450.00", result.Transactions[2].Amount.StringFixed(2))
}

func TestParse_CommaSeparatedWithQuotedFields(t *testing.T) {
	p := NewParser(txhash.SHA256{})

	result, err := p.Parse(readFixture(t, "boursorama.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Boursorama", result.DetectedLayout)
	require.Len(t, result.Transactions, 2)

	assert.Equal(t, "VIR SEPA RECU, DUPONT MARIE", result.Transactions[0].Label)
	assert.Equal(t, "1200.00", result.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "Encaissement client", result.Transactions[0].Category)
	assert.Equal(t, "-68.40", result.Transactions[1].Amount.StringFixed(2))
}

func TestParse_UnknownLayoutWithoutAmounts(t *testing.T) {
	p := NewParser(txhash.SHA256{})

	result, err := p.Parse(readFixture(t, "unknown_no_amount.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Generic layout", result.DetectedLayout)
	require.Len(t, result.Transactions, 2)
	for _, txn := range result.Transactions {
		assert.True(t, txn.Amount.IsZero())
		assert.NotEmpty(t, txn.Label)
	}
}

func TestParse_HashStableAcrossWhitespace(t *testing.T) {
	p := NewParser(txhash.SHA256{})

	a, err := p.Parse("Date;Libellé;Débit;Crédit\n01/03/2024;VIR   CLIENT  DUPONT;;100,00")
	require.NoError(t, err)
	b, err := p.Parse("Date;Libellé;Débit;Crédit\n01/03/2024;VIR CLIENT DUPONT;;100,00")
	require.NoError(t, err)

	require.Len(t, a.Transactions, 1)
	require.Len(t, b.Transactions, 1)
	assert.Equal(t, a.Transactions[0].Hash, b.Transactions[0].Hash)
}

func TestParse_HashChangesWithAmount(t *testing.T) {
	p := NewParser(txhash.SHA256{})

	a, err := p.Parse("Date;Libellé;Débit;Crédit\n01/03/2024;VIR CLIENT;;100,00")
	require.NoError(t, err)
	b, err := p.Parse("Date;Libellé;Débit;Crédit\n01/03/2024;VIR CLIENT;;100,01")
	require.NoError(t, err)

	assert.NotEqual(t, a.Transactions[0].Hash, b.Transactions[0].Hash)
}

func TestParse_NoData(t *testing.T) {
	p := NewParser(txhash.SHA256{})

	_, err := p.Parse("")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = p.Parse("Date;Libellé;Montant")
	assert.ErrorIs(t, err, ErrNoData)
}
