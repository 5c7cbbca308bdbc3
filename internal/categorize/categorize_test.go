package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"PRLV LOYER ATELIER MARS", "Loyer"},
		{"PRLV AXA ASSURANCE PRO", "Assurance"},
		{"VIR URSSAF ILE DE FRANCE", "Salaires & charges"},
		{"CARTE LEROY MERLIN NANTERRE", "Matériaux"},
		{"FACTURE SOUS-TRAITANCE PLOMBERIE", "Sous-traitance"},
		{"PEAGE A13 MANTES", "Véhicule & déplacements"},
		{"PRLV ORANGE PRO FIBRE", "Télécom & internet"},
		{"PRLV EDF ELECTRICITE", "Énergie & eau"},
		{"PRLV DGFIP CFE 2024", "Impôts & taxes"},
		{"COMMISSION INTERVENTION", "Frais bancaires"},
		{"VIR SEPA RECU DUPONT", "Encaissement client"},
		{"CHEQUE 0004521", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Categorize(c.label), "label %q", c.label)
	}
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	assert.Equal(t, "Énergie & eau", Categorize("prlv edf electricite"))
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	// "assurance" and "cotisation" could both apply; the earlier rule
	// decides.
	assert.Equal(t, "Assurance", Categorize("COTISATION ASSURANCE DECENNALE"))
}
