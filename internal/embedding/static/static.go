// Package static provides a deterministic hashed embedder that needs no model.
//
// Words and character trigrams are hashed into a fixed number of buckets.
// It captures shared vocabulary rather than meaning, which is enough for
// offline runs and tests.
package static

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"
)

// Dimensions is the default vector size.
const Dimensions = 256

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Embedder hashes tokens and trigrams into a dense vector.
type Embedder struct {
	dims      int
	stopwords map[string]struct{}
}

// New creates a static embedder with the given dimension (Dimensions when <= 0).
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = Dimensions
	}
	return &Embedder{dims: dims, stopwords: defaultStopwords()}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "static" }

// Dimension returns the dimensionality of the produced vectors.
func (e *Embedder) Dimension() int { return e.dims }

// Embed returns one vector per text. Vectors are not normalised here.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float64 {
	vec := make([]float64, e.dims)
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return vec
	}
	for _, tok := range tokenRe.FindAllString(lower, -1) {
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		vec[e.bucket(tok)] += tokenWeight
	}
	runes := compact(lower)
	for i := 0; i+ngramSize <= len(runes); i++ {
		vec[e.bucket(string(runes[i:i+ngramSize]))] += ngramWeight
	}
	return vec
}

func (e *Embedder) bucket(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(e.dims))
}

// compact keeps letters and digits only, so trigrams span word boundaries.
func compact(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		// fr
		"le", "la", "les", "un", "une", "des", "de", "du", "et", "ou", "en", "au", "aux", "ce", "ces", "cette",
		"est", "sont", "il", "elle", "on", "je", "tu", "nous", "vous", "ils", "que", "qui", "pas", "ne", "se",
		"sa", "son", "ses", "pour", "par", "sur", "dans", "avec", "plus", "mais", "a", "y", "d", "l", "c", "j", "s", "n", "qu",
		// en
		"the", "an", "and", "or", "of", "to", "in", "on", "is", "are", "was", "it", "this", "that", "with", "for",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
