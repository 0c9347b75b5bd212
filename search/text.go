package search

import "strings"

// Stop words excluded from query terms. Short function words carry no
// ranking signal.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "with": true,
	"by": true,
}

// normalizeQuery lowercases, strips ASCII punctuation, and collapses runs of
// whitespace into single spaces. Normalizing an already-normalized string is
// a no-op.
func normalizeQuery(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range strings.ToLower(query) {
		switch {
		case r >= '!' && r <= '/', r >= ':' && r <= '@', r >= '[' && r <= '`', r >= '{' && r <= '~':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// queryTerms splits a normalized query into searchable terms, dropping stop
// words and single characters.
func queryTerms(normalized string) []string {
	words := strings.Fields(normalized)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) > 1 && !stopWords[word] {
			terms = append(terms, word)
		}
	}
	return terms
}

// expandTerms adds simple morphological variations to each term so that
// "testing" also matches "test" and "databases" also matches "database".
// Expansion is additive, the original terms are always kept.
func expandTerms(terms []string) []string {
	expanded := make([]string, 0, len(terms)*2)
	for _, term := range terms {
		expanded = append(expanded, term)
		switch {
		case strings.HasSuffix(term, "ing") && len(term) > 4:
			expanded = append(expanded, term[:len(term)-3])
		case strings.HasSuffix(term, "s") && !strings.HasSuffix(term, "ss") && len(term) > 2:
			expanded = append(expanded, term[:len(term)-1])
		case strings.HasSuffix(term, "ed") && len(term) > 3:
			expanded = append(expanded, term[:len(term)-2])
		}
	}
	return expanded
}

// ratio computes the Ratcliff/Obershelp similarity of two strings: twice the
// number of matching characters divided by the total length. Matching
// characters are found by recursively locating the longest common substring
// and matching the pieces to its left and right.
func ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingChars(a, b)
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

func matchingChars(a, b string) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return matchingChars(a[:i], b[:j]) + k + matchingChars(a[i+k:], b[j+k:])
}

// longestMatch finds the longest common substring, preferring the earliest
// position in a, then in b, on ties.
func longestMatch(a, b string) (bestI, bestJ, bestK int) {
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1]
	// for the previous row i
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > bestK {
					bestK = lengths[j]
					bestI = i - bestK
					bestJ = j - bestK
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return bestI, bestJ, bestK
}
