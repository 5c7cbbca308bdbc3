// Package textutil provides the text normalization shared by header
// detection and match scoring: lowercasing, diacritic stripping, and
// reference squashing. Bank exports are inconsistent about accents
// ("Libellé" vs "Libelle"), so all comparisons go through Fold.
package textutil

import "strings"

// diacritics maps the accented runes seen in French bank exports to their
// base letter. Kept as an explicit table; the corpus carries no text
// normalization dependency and the input alphabet is closed.
var diacritics = map[rune]rune{
	'à': 'a', 'â': 'a', 'ä': 'a', 'á': 'a', 'ã': 'a',
	'ç': 'c',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'î': 'i', 'ï': 'i', 'í': 'i',
	'ô': 'o', 'ö': 'o', 'ó': 'o', 'õ': 'o',
	'ù': 'u', 'û': 'u', 'ü': 'u', 'ú': 'u',
	'ÿ': 'y',
	'ñ': 'n',
}

// Fold lowercases s and strips diacritics, for accent- and
// case-insensitive comparison.
func Fold(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if base, ok := diacritics[r]; ok {
			return base
		}
		return r
	}, s)
}

// SquashRef removes spaces and hyphens so invoice references compare
// positionally: "FAC 2024-017" and "fac2024017" squash to the same string
// after folding.
func SquashRef(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-':
			return -1
		}
		return r
	}, s)
}
