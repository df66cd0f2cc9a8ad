// Package textnorm turns raw review titles and bodies into the canonical
// lower-cased text that is embedded and indexed.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	quoteReplacer = strings.NewReplacer("«", `"`, "»", `"`, "“", `"`, "”", `"`)
	// Digits alone do not make content: "10/10" or "5" carries nothing to
	// match on, so only letters keep a text.
	letterRe      = regexp.MustCompile(`[a-zàâçéèêëîïôûùüÿñæœ]`)
	placeholders  = map[string]struct{}{"none": {}, "null": {}, "nan": {}, "": {}}
)

// IsPlaceholder reports whether s is empty or one of the textual null markers
// (none, null, nan) that spreadsheet exports leave behind.
func IsPlaceholder(s string) bool {
	_, ok := placeholders[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Normalize lower-cases text, collapses whitespace and straightens quotes.
// Text without a single letter is treated as noise and yields "".
func Normalize(text string) string {
	t := strings.TrimSpace(text)
	if IsPlaceholder(t) {
		return ""
	}
	t = strings.ToLower(t)
	t = strings.Join(strings.Fields(t), " ")
	t = quoteReplacer.Replace(t)
	if !letterRe.MatchString(t) {
		return ""
	}
	return t
}

// MakeCorpusRow joins an already normalised title and body as "title. body".
// It returns the combined text used for retrieval and the bare body.
func MakeCorpusRow(title, body string) (string, string) {
	if title == "" {
		return strings.TrimSpace(body), body
	}
	return strings.TrimSpace(title + ". " + body), body
}
