// Package rerank blends semantic similarity with lexical TF-IDF similarity.
package rerank

import (
	"sort"

	"reviewrec/internal/embedding/tfidf"
)

// DefaultAlpha weights the semantic component of the blended score.
const DefaultAlpha = 0.75

const epsilon = 1e-8

// Hybrid re-scores candidate documents against a query text.
type Hybrid struct {
	vectorizer *tfidf.Vectorizer
	docs       []tfidf.Vector
}

// New fits a TF-IDF vectorizer on docs. Candidate indexes passed to Score
// refer to positions in docs.
func New(docs []string) (*Hybrid, error) {
	v := tfidf.NewVectorizer()
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	vecs := make([]tfidf.Vector, len(docs))
	for i, d := range docs {
		vec, err := v.Transform(d)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return &Hybrid{vectorizer: v, docs: vecs}, nil
}

// Vocabulary returns the fitted vocabulary size.
func (h *Hybrid) Vocabulary() int { return h.vectorizer.Size() }

// Score blends min-max normalised semantic and TF-IDF similarities as
// alpha*sem + (1-alpha)*tfidf. It returns positions into candidates sorted by
// blended score descending, with the matching scores. Ties keep input order.
func (h *Hybrid) Score(queryText string, candidates []int, semantic []float64, alpha float64) ([]int, []float64) {
	if len(candidates) == 0 {
		return []int{}, []float64{}
	}
	q, err := h.vectorizer.Transform(queryText)
	if err != nil {
		q = tfidf.Vector{}
	}
	lexical := make([]float64, len(candidates))
	for i, c := range candidates {
		if c >= 0 && c < len(h.docs) {
			lexical[i] = tfidf.Cosine(q, h.docs[c])
		}
	}
	sem := MinMax(semantic)
	lex := MinMax(lexical)
	final := make([]float64, len(candidates))
	for i := range final {
		s := 0.0
		if i < len(sem) {
			s = sem[i]
		}
		final[i] = alpha*s + (1-alpha)*lex[i]
	}
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return final[order[a]] > final[order[b]] })
	scores := make([]float64, len(order))
	for i, o := range order {
		scores[i] = final[o]
	}
	return order, scores
}

// MinMax rescales xs to [0, 1). A constant or empty input maps to zeros.
func MinMax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	rng := hi - lo
	if rng == 0 {
		return out
	}
	for i, x := range xs {
		out[i] = (x - lo) / (rng + epsilon)
	}
	return out
}
