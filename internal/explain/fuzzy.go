package explain

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenSetRatio scores two strings in [0, 100] by comparing their word sets.
// Both inputs are lowercased and stripped of non-alphanumerics first. Shared
// words are compared against each side's remainder, so a sentence that
// contains all the words of the other scores 100.
func TokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var sect, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			sect = append(sect, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	if len(sect) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}
	sort.Strings(sect)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	diffA := strings.Join(onlyA, " ")
	diffB := strings.Join(onlyB, " ")
	sectLen := runeLen(strings.Join(sect, " "))
	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectALen := sectLen + sep + runeLen(diffA)
	sectBLen := sectLen + sep + runeLen(diffB)

	// "sect diffA" vs "sect diffB" differ only in their diffs.
	best := normalized(indel(diffA, diffB), sectALen+sectBLen)
	if sectLen == 0 {
		return best
	}
	// "sect" vs "sect diffX" differ by the appended suffix alone.
	best = max(best, normalized(sectALen-sectLen, sectLen+sectALen))
	best = max(best, normalized(sectBLen-sectLen, sectLen+sectBLen))
	return best
}

func normalized(dist, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * (1 - float64(dist)/float64(total))
}

// indel is the insertion/deletion edit distance: len(a)+len(b)-2*LCS(a, b).
func indel(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return len(ra) + len(rb) - 2*prev[len(rb)]
}

// tokenSet lower-cases s and splits it on anything that is not a letter or a
// digit, so trailing punctuation never separates two sentences.
func tokenSet(s string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	out := make(map[string]struct{})
	for _, t := range strings.Fields(cleaned) {
		out[t] = struct{}{}
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
