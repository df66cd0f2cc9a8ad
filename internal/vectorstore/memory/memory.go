package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"reviewrec/internal/domain"
	"reviewrec/internal/vectorstore"
)

// Storage is an in-memory index using brute-force cosine similarity.
type Storage struct {
	mu       sync.RWMutex
	fitted   bool
	vectors  [][]float64
	norms    []float64
	ids      []string
	movieIDs []string
}

func NewStorage() *Storage { return &Storage{} }

// Fit replaces the indexed vectors. Inputs are copied.
func (s *Storage) Fit(_ context.Context, embeddings [][]float64, ids, movieIDs []string) error {
	if len(embeddings) != len(ids) || len(ids) != len(movieIDs) {
		return fmt.Errorf("%w: %d embeddings, %d ids, %d movie ids",
			domain.ErrLengthMismatch, len(embeddings), len(ids), len(movieIDs))
	}
	vectors := make([][]float64, len(embeddings))
	norms := make([]float64, len(embeddings))
	for i, v := range embeddings {
		if i > 0 && len(v) != len(embeddings[0]) {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d",
				domain.ErrLengthMismatch, i, len(v), len(embeddings[0]))
		}
		vectors[i] = append([]float64(nil), v...)
		norms[i] = norm(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = vectors
	s.norms = norms
	s.ids = append([]string(nil), ids...)
	s.movieIDs = append([]string(nil), movieIDs...)
	s.fitted = true
	return nil
}

// QuerySameMovie ranks the whole index by cosine similarity, keeps the top
// pool, then keeps only rows of movieID and returns at most k of them.
func (s *Storage) QuerySameMovie(_ context.Context, query []float64, movieID string, k int) ([]string, []float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fitted {
		return nil, nil, domain.ErrNotFitted
	}
	n := len(s.vectors)
	if n == 0 || k <= 0 {
		return []string{}, []float64{}, nil
	}
	qn := norm(query)
	scores := make([]float64, n)
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], s.norms[i], query, qn)
	}
	idxs := argsortDesc(scores)
	pool := vectorstore.PoolSize(k, n)
	hits := make([]vectorstore.Hit, pool)
	for i := 0; i < pool; i++ {
		j := idxs[i]
		hits[i] = vectorstore.Hit{ID: s.ids[j], MovieID: s.movieIDs[j], Similarity: scores[j]}
	}
	ids, sims := vectorstore.SameMovie(hits, movieID, k)
	return ids, sims, nil
}

// Len returns the number of indexed vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func cosine(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	return dot(a, b) / (an * bn)
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// argsortDesc orders indexes by value descending; ties keep index order.
func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
