package embedding

import (
	"context"
	"fmt"
	"math"

	"reviewrec/internal/domain"
)

// Encoder batches texts through an embedder and L2-normalises every row,
// so downstream cosine search can rely on unit vectors.
type Encoder struct {
	embedder domain.Embedder
}

// NewEncoder wraps an embedder.
func NewEncoder(e domain.Embedder) *Encoder {
	return &Encoder{embedder: e}
}

// Name returns the identifier of the wrapped embedder.
func (e *Encoder) Name() string { return e.embedder.Name() }

// Encode embeds all texts in one batch and returns one unit-norm row per input.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	rows, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s embed: %w", e.embedder.Name(), err)
	}
	if len(rows) != len(texts) {
		return nil, fmt.Errorf("%s embed: got %d vectors for %d texts: %w", e.embedder.Name(), len(rows), len(texts), domain.ErrLengthMismatch)
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r)
	}
	return out, nil
}

// Normalize returns a unit-length copy of v. Zero vectors are returned unchanged.
func Normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
