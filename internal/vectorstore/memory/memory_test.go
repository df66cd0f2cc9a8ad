package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrec/internal/domain"
)

func TestQuery_NotFitted(t *testing.T) {
	_, _, err := NewStorage().QuerySameMovie(context.Background(), []float64{1}, "FC", 3)
	assert.ErrorIs(t, err, domain.ErrNotFitted)
}

func TestFit_LengthMismatch(t *testing.T) {
	err := NewStorage().Fit(context.Background(), [][]float64{{1, 0}}, []string{"a", "b"}, []string{"FC", "FC"})
	assert.ErrorIs(t, err, domain.ErrLengthMismatch)

	err = NewStorage().Fit(context.Background(), [][]float64{{1, 0}, {1}}, []string{"a", "b"}, []string{"FC", "FC"})
	assert.ErrorIs(t, err, domain.ErrLengthMismatch)
}

func TestQuery_SameMovieOnly(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Fit(context.Background(),
		[][]float64{{1, 0}, {0.9, 0.1}, {0.99, 0.01}, {0, 1}},
		[]string{"fc1", "fc2", "int1", "fc3"},
		[]string{"FC", "FC", "INT", "FC"},
	))
	ids, sims, err := s.QuerySameMovie(context.Background(), []float64{1, 0}, "FC", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"fc1", "fc2", "fc3"}, ids)
	require.Len(t, sims, 3)
	assert.InDelta(t, 1.0, sims[0], 1e-12)
	assert.GreaterOrEqual(t, sims[1], sims[2])
	assert.InDelta(t, 0.0, sims[2], 1e-12)
}

func TestQuery_TruncatesToK(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Fit(context.Background(),
		[][]float64{{1, 0}, {0.8, 0.6}, {0.6, 0.8}},
		[]string{"a", "b", "c"},
		[]string{"FC", "FC", "FC"},
	))
	ids, sims, err := s.QuerySameMovie(context.Background(), []float64{1, 0}, "FC", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.InDeltaSlice(t, []float64{1, 0.8}, sims, 1e-12)
}

func TestQuery_UnknownMovie(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Fit(context.Background(), [][]float64{{1}}, []string{"a"}, []string{"FC"}))
	ids, sims, err := s.QuerySameMovie(context.Background(), []float64{1}, "INT", 5)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, sims)
}

func TestQuery_PoolLimitsCandidates(t *testing.T) {
	// 60 close vectors from another movie fill the 50-slot pool before the
	// single far FC row is reached.
	s := NewStorage()
	var vecs [][]float64
	var ids, movies []string
	for i := 0; i < 60; i++ {
		vecs = append(vecs, []float64{1, 0.001 * float64(i)})
		ids = append(ids, fmt.Sprintf("int%d", i))
		movies = append(movies, "INT")
	}
	vecs = append(vecs, []float64{0, 1})
	ids = append(ids, "fc")
	movies = append(movies, "FC")
	require.NoError(t, s.Fit(context.Background(), vecs, ids, movies))

	got, _, err := s.QuerySameMovie(context.Background(), []float64{1, 0}, "FC", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 61, s.Len())
}

func TestFit_CopiesInputs(t *testing.T) {
	s := NewStorage()
	vec := []float64{1, 0}
	ids := []string{"a"}
	require.NoError(t, s.Fit(context.Background(), [][]float64{vec}, ids, []string{"FC"}))
	vec[0] = -1
	ids[0] = "z"
	got, sims, err := s.QuerySameMovie(context.Background(), []float64{1, 0}, "FC", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.InDelta(t, 1.0, sims[0], 1e-12)
}

func TestQuery_ZeroVector(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Fit(context.Background(), [][]float64{{0, 0}, {1, 0}}, []string{"z", "a"}, []string{"FC", "FC"}))
	ids, sims, err := s.QuerySameMovie(context.Background(), []float64{1, 0}, "FC", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z"}, ids)
	assert.Equal(t, 0.0, sims[1])
}
