// Package categorize assigns a spending category to a transaction label.
package categorize

import "regexp"

// Rule maps a label pattern to a category. Rules are evaluated top to
// bottom and the first match wins, so a slice, not a map, carries them:
// order is semantically load-bearing, with specific patterns ahead of
// broader ones that would also match.
type Rule struct {
	Pattern  *regexp.Regexp
	Category string
}

// Rules is the built-in rule list, tuned for French business accounts.
var Rules = []Rule{
	{regexp.MustCompile(`(?i)loyer|bail|agence immo|foncier`), "Loyer"},
	{regexp.MustCompile(`(?i)assurance|maif|axa|allianz|matmut|decennale|rc pro`), "Assurance"},
	{regexp.MustCompile(`(?i)salaire|paie|urssaf|csg|pole emploi|france travail|cotisation`), "Salaires & charges"},
	{regexp.MustCompile(`(?i)point p|leroy merlin|bricoman|cedeo|brossette|materiaux|casto|bricomarché|brico\s?depot`), "Matériaux"},
	{regexp.MustCompile(`(?i)sous.?trait|st\s|prestation\s`), "Sous-traitance"},
	{regexp.MustCompile(`(?i)carburant|total\s|shell|bp\s|esso|peage|autoroute|parking`), "Véhicule & déplacements"},
	{regexp.MustCompile(`(?i)orange|sfr|bouygues|free|internet|telecom|ovh`), "Télécom & internet"},
	{regexp.MustCompile(`(?i)edf|engie|eau|gaz|electricite|veolia`), "Énergie & eau"},
	{regexp.MustCompile(`(?i)impot|taxe|cfe|cvae|tva|dgfip|tresor public`), "Impôts & taxes"},
	{regexp.MustCompile(`(?i)banque|agios|commission|frais bancaire`), "Frais bancaires"},
	{regexp.MustCompile(`(?i)virement recu|vir\s.*recu|encaissement`), "Encaissement client"},
}

// Categorize returns the category for a label, or "" when no rule matches.
func Categorize(label string) string {
	return categorize(Rules, label)
}

func categorize(rules []Rule, label string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(label) {
			return r.Category
		}
	}
	return ""
}
