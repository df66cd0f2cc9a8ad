package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrec/internal/domain"
	"reviewrec/internal/embedding/static"
)

type countingEmbedder struct {
	calls  int
	inputs [][]string
	err    error
	short  bool
}

func (c *countingEmbedder) Name() string   { return "counting" }
func (c *countingEmbedder) Dimension() int { return 2 }
func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	c.calls++
	c.inputs = append(c.inputs, texts)
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	if c.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func l2(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestEncoder_RowsAreUnitNorm(t *testing.T) {
	enc := NewEncoder(static.New(0))
	rows, err := enc.Encode(context.Background(), []string{
		"un film culte sur la société de consommation",
		"interstellar est un voyage spatial bouleversant",
		"ok",
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.InDelta(t, 1.0, l2(r), 1e-9, "row %d", i)
	}
}

func TestEncoder_Empty(t *testing.T) {
	rows, err := NewEncoder(static.New(0)).Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEncoder_WrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEncoder(&countingEmbedder{err: boom}).Encode(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "counting")

	_, err = NewEncoder(&countingEmbedder{short: true}).Encode(context.Background(), []string{"x", "y"})
	assert.ErrorIs(t, err, domain.ErrLengthMismatch)
}

func TestNormalize_ZeroVector(t *testing.T) {
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, Normalize([]float64{3, 4}), 1e-12)
}

func TestCachedEmbedder_OnlyMissesReachInner(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)

	first, err := c.Embed(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), []string{"bb", "ccc", "a"})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, []string{"ccc"}, inner.inputs[1])
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, []float64{3, 1}, second[1])
	assert.Equal(t, 3, c.Len())
}

func TestCachedEmbedder_AllCached(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 0)
	_, _ = c.Embed(context.Background(), []string{"a"})
	_, _ = c.Embed(context.Background(), []string{"a"})
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "counting", c.Name())
	assert.Equal(t, 2, c.Dimension())
}
