package statement

import "strings"

// Candidate separators, in the order they are scored.
var separatorCandidates = []rune{';', ',', '\t'}

// sampleLines is how many leading lines separator detection looks at.
const sampleLines = 5

// splitLines normalizes line endings, strips a leading BOM and drops blank
// lines.
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// countOutsideQuotes counts occurrences of sep outside quoted spans.
func countOutsideQuotes(line string, sep rune) int {
	count := 0
	inQuote := false
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case ch == sep && !inQuote:
			count++
		}
	}
	return count
}

// detectSeparator scores each candidate over the first few lines. A
// candidate whose count is positive and identical on every sampled line
// wins; among several such candidates the highest average count wins, and
// if none is consistent the highest average wins outright.
func detectSeparator(lines []string) rune {
	sample := lines
	if len(sample) > sampleLines {
		sample = sample[:sampleLines]
	}

	type score struct {
		sep        rune
		avg        float64
		consistent bool
	}

	scores := make([]score, 0, len(separatorCandidates))
	for _, sep := range separatorCandidates {
		total := 0
		consistent := len(sample) > 1
		first := -1
		for _, line := range sample {
			n := countOutsideQuotes(line, sep)
			total += n
			if first == -1 {
				first = n
			}
			if n != first || n == 0 {
				consistent = false
			}
		}
		scores = append(scores, score{
			sep:        sep,
			avg:        float64(total) / float64(len(sample)),
			consistent: consistent,
		})
	}

	best := scores[0]
	foundConsistent := false
	for _, s := range scores {
		switch {
		case s.consistent && !foundConsistent:
			best = s
			foundConsistent = true
		case s.consistent == foundConsistent && s.avg > best.avg:
			best = s
		}
	}
	return best.sep
}

// splitFields splits one line on sep, honoring quoted spans. A doubled
// quote inside a quoted span is a literal quote. Fields are trimmed.
func splitFields(line string, sep rune) []string {
	var fields []string
	var current strings.Builder
	inQuote := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuote && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++ // skip escaped quote
			} else {
				inQuote = !inQuote
			}
		case ch == sep && !inQuote:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}
