package rerank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrec/internal/domain"
)

var _ domain.Reranker = (*Hybrid)(nil)

func TestMinMax(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0}, MinMax([]float64{0.4, 0.4, 0.4}))
	assert.Empty(t, MinMax(nil))
	got := MinMax([]float64{1, 3, 2})
	assert.InDelta(t, 0.0, got[0], 1e-9)
	assert.InDelta(t, 1.0, got[1], 1e-7)
	assert.Less(t, got[1], 1.0)
	assert.InDelta(t, 0.5, got[2], 1e-7)
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestScore_AlphaOneFollowsSemantic(t *testing.T) {
	h, err := New([]string{"voyage spatial", "combat clandestin", "trou noir"})
	require.NoError(t, err)
	order, scores := h.Score("combat clandestin", []int{0, 1, 2}, []float64{0.9, 0.1, 0.5}, 1.0)
	assert.Equal(t, []int{0, 2, 1}, order)
	assert.InDelta(t, 1.0, scores[0], 1e-7)
	assert.InDelta(t, 0.0, scores[2], 1e-9)
}

func TestScore_AlphaZeroFollowsLexical(t *testing.T) {
	h, err := New([]string{"voyage spatial", "combat clandestin", "trou noir"})
	require.NoError(t, err)
	order, _ := h.Score("combat clandestin", []int{0, 1, 2}, []float64{0.9, 0.1, 0.5}, 0.0)
	assert.Equal(t, 1, order[0])
}

func TestScore_ConstantInputsKeepOrder(t *testing.T) {
	h, err := New([]string{"aa", "bb", "cc"})
	require.NoError(t, err)
	order, scores := h.Score("zz", []int{2, 0, 1}, []float64{0.5, 0.5, 0.5}, DefaultAlpha)
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, []float64{0, 0, 0}, scores)
}

func TestScore_Blend(t *testing.T) {
	h, err := New([]string{"voyage spatial", "combat clandestin"})
	require.NoError(t, err)
	// semantic favours 0, lexical favours 1 fully
	order, scores := h.Score("combat clandestin", []int{0, 1}, []float64{0.8, 0.2}, 0.75)
	assert.Equal(t, []int{0, 1}, order)
	assert.InDelta(t, 0.75, scores[0], 1e-6)
	assert.InDelta(t, 0.25, scores[1], 1e-6)
}

func TestScore_Empty(t *testing.T) {
	h, err := New([]string{"aa"})
	require.NoError(t, err)
	order, scores := h.Score("aa", nil, nil, DefaultAlpha)
	assert.Empty(t, order)
	assert.Empty(t, scores)
	assert.Equal(t, 1, h.Vocabulary())
}
