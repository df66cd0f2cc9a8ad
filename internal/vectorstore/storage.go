// Package vectorstore holds the nearest-neighbour index backends and the
// same-movie candidate selection they share.
package vectorstore

import (
	"sort"

	"reviewrec/internal/domain"
)

// MinPool is the smallest candidate pool fetched before filtering by movie.
const MinPool = 50

// Storage is a nearest-neighbour index restricted to one movie at query time.
type Storage = domain.Index

// PoolSize returns min(max(MinPool, 5k), n).
func PoolSize(k, n int) int {
	return min(max(MinPool, 5*k), n)
}

// Hit is one neighbour of a query.
type Hit struct {
	ID         string
	MovieID    string
	Similarity float64
}

// SameMovie keeps hits whose movie matches movieID, sorts them by similarity
// descending and truncates to k. Ties keep their incoming order.
func SameMovie(hits []Hit, movieID string, k int) ([]string, []float64) {
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.MovieID == movieID {
			kept = append(kept, h)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Similarity > kept[j].Similarity })
	if k < 0 {
		k = 0
	}
	if len(kept) > k {
		kept = kept[:k]
	}
	ids := make([]string, len(kept))
	sims := make([]float64, len(kept))
	for i, h := range kept {
		ids[i] = h.ID
		sims[i] = h.Similarity
	}
	return ids, sims
}
