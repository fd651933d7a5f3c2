package textutil

import (
	"strings"
	"unicode"
)

// diacriticFolds maps common accented Latin runes to their base letter so
// that "Café" and "cafe" normalize to the same key.
var diacriticFolds = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'ç': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
	'æ': 'a', 'œ': 'o',
	'š': 's', 'ž': 'z',
}

// Normalize canonicalizes free text for comparison: lowercase, fold
// diacritics, drop punctuation, collapse whitespace runs, trim. It is
// idempotent and never fails; empty input yields empty output.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		if folded, ok := diacriticFolds[r]; ok {
			r = folded
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns a ratio in [0, 1] measuring how alike two strings are.
// It uses the matching-blocks measure (2*M / total length, where M is the
// total length of all longest common substrings found recursively), so a
// one-character typo in a long name still scores high.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1
	}
	m := matchingLen(ra, rb)
	return 2 * float64(m) / float64(len(ra)+len(rb))
}

// matchingLen sums the lengths of matching blocks: find the longest common
// substring, then recurse on the pieces to its left and right.
func matchingLen(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingLen(a[:ai], b[:bi])
	total += matchingLen(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// prev[j] holds the length of the common suffix ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return ai, bi, size
}

// BestMatch returns the candidate most similar to query, provided its
// similarity meets the threshold. Candidates are scanned in order and ties
// keep the earlier candidate, so ranked inputs stay deterministic.
func BestMatch(query string, candidates []string, threshold float64) (string, bool) {
	best := ""
	bestScore := 0.0
	found := false

	for _, c := range candidates {
		score := Similarity(query, c)
		if score >= threshold && score > bestScore {
			best = c
			bestScore = score
			found = true
		}
	}

	return best, found
}
