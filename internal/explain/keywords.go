package explain

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultKeywords is the number of keywords returned by default.
const DefaultKeywords = 5

var nonKeyword = regexp.MustCompile(`[^a-zàâçéèêëîïôûùüÿñæœ0-9 ]`)

// Keywords returns the topN most frequent words of text longer than two
// characters. Equal counts keep first-seen order.
func Keywords(text string, topN int) []string {
	if topN <= 0 {
		return []string{}
	}
	cleaned := nonKeyword.ReplaceAllString(strings.ToLower(text), " ")
	counts := map[string]int{}
	var order []string
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		if _, ok := counts[tok]; !ok {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > topN {
		order = order[:topN]
	}
	if order == nil {
		return []string{}
	}
	return order
}
