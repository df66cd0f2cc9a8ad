package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"reviewrec/internal/domain"
)

// Vector is a sparse L2-normalised TF-IDF vector keyed by vocabulary index.
type Vector map[int]float64

// Vectorizer is a TF-IDF vectorizer over word unigrams and bigrams.
// Term frequencies are raw counts and IDF is smoothed: ln((1+n)/(1+df)) + 1.
type Vectorizer struct {
	vocabulary   map[string]int
	idf          []float64
	prepared     bool
	tokenPattern *regexp.Regexp
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`),
	}
}

// Fit builds the vocabulary and IDF values from the provided documents.
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return domain.ErrEmptyCorpus
	}
	df := make(map[string]int)
	for _, text := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}
	sort.Strings(terms)
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.prepared = true
	return nil
}

// Size returns the vocabulary size, 0 before Fit.
func (v *Vectorizer) Size() int { return len(v.idf) }

// Transform computes the TF-IDF vector of text. Terms outside the fitted
// vocabulary are ignored, so the result may be empty.
func (v *Vectorizer) Transform(text string) (Vector, error) {
	if !v.prepared {
		return nil, errors.New("tfidf vectorizer not fitted")
	}
	vec := make(Vector)
	for _, term := range v.terms(text) {
		if idx, ok := v.vocabulary[term]; ok {
			vec[idx]++
		}
	}
	norm := 0.0
	for idx, count := range vec {
		w := count * v.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range vec {
			vec[idx] /= norm
		}
	}
	return vec, nil
}

// Cosine returns the dot product of two L2-normalised vectors, 0 if either is empty.
func Cosine(a, b Vector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	dot := 0.0
	for idx, x := range a {
		dot += x * b[idx]
	}
	return dot
}

// terms returns the unigrams followed by the bigrams of text.
func (v *Vectorizer) terms(text string) []string {
	tokens := v.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
