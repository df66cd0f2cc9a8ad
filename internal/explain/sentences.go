// Package explain extracts human-readable evidence for a recommendation:
// the candidate sentences closest to the query and the candidate's most
// frequent words. Nothing here affects ranking.
package explain

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultSentences is the number of matching sentences returned by default.
const DefaultSentences = 2

var sentenceEnd = regexp.MustCompile(`[.!?][\s\p{Z}]+`)

// SplitSentences splits text after '.', '!' or '?' when followed by whitespace.
// The punctuation stays with its sentence and empty pieces are dropped.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := text[start : loc[0]+1]; s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// MatchingSentences returns up to topN sentences of candidate that best match
// any sentence of query under TokenSetRatio. Equal scores keep candidate order.
func MatchingSentences(query, candidate string, topN int) []string {
	if topN <= 0 {
		return []string{}
	}
	qs := SplitSentences(query)
	cs := SplitSentences(candidate)
	type scored struct {
		sentence string
		score    float64
	}
	ranked := make([]scored, len(cs))
	for i, c := range cs {
		best := 0.0
		for _, q := range qs {
			best = max(best, TokenSetRatio(c, q))
		}
		ranked[i] = scored{sentence: c, score: best}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	n := min(topN, len(ranked))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].sentence
	}
	return out
}
