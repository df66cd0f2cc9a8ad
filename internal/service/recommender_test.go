package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrec/internal/domain"
	"reviewrec/internal/embedding/static"
	"reviewrec/internal/vectorstore/memory"
)

func fixtureReviews() []domain.Review {
	fc := func(id, title, body, rating string) domain.Review {
		return domain.Review{ReviewID: id, MovieID: "FC", MovieTitle: "Fight Club", UserID: "u" + id, Rating: rating, Title: title, Body: body}
	}
	in := func(id, title, body string) domain.Review {
		return domain.Review{ReviewID: id, MovieID: "INT", MovieTitle: "Interstellar", UserID: "u" + id, Rating: "4", Title: title, Body: body}
	}
	return []domain.Review{
		fc("fc1", "Culte", "Tyler Durden est fascinant. Une critique de la société de consommation.", "4,5"),
		fc("fc2", "Culte aussi", "Tyler Durden est fascinant. Une critique de la société de consommation.", "5"),
		fc("fc3", "Bof", "Trop violent pour moi. Je n'ai pas aimé les combats.", "2"),
		fc("fc4", "Twist", "La fin est incroyable, le twist m'a retourné le cerveau.", ""),
		fc("fc5", "Savon", "Le savon, les combats clandestins et Tyler. Brillant.", "abc"),
		in("int1", "Espace", "Un voyage spatial bouleversant. La musique de Zimmer est sublime."),
		in("int2", "Trou noir", "Les trous noirs et la relativité rendent le film passionnant."),
		in("int3", "Emotion", "La relation père fille m'a fait pleurer. Un voyage spatial sublime."),
		in("int4", "Long", "Beaucoup trop long, la musique est trop forte."),
		in("int5", "Science", "La science est crédible et les images sont magnifiques."),
	}
}

func newTestRecommender(t *testing.T, reviews []domain.Review) *Recommender {
	t.Helper()
	r, err := New(context.Background(), DefaultConfig(), reviews, static.New(0), memory.NewStorage(), zerolog.Nop())
	require.NoError(t, err)
	return r
}

func ptr(f float64) *float64 { return &f }

func TestSimilar_SameMovieAndNeverSelf(t *testing.T) {
	r := newTestRecommender(t, fixtureReviews())
	for _, id := range []string{"fc1", "fc3", "int1", "int4"} {
		rv, ok := r.Review(id)
		require.True(t, ok)
		res, err := r.Similar(context.Background(), Query{ReviewID: id, K: 10, MinSim: ptr(-1)})
		require.NoError(t, err)
		assert.Len(t, res, 4, id)
		for i, x := range res {
			assert.NotEqual(t, id, x.ReviewID)
			assert.Equal(t, rv.MovieID, x.MovieID)
			if i > 0 {
				assert.LessOrEqual(t, x.Score, res[i-1].Score)
			}
		}
	}
}

func TestSimilar_DuplicateRanksFirst(t *testing.T) {
	r := newTestRecommender(t, fixtureReviews())
	res, err := r.Similar(context.Background(), Query{ReviewID: "fc1", K: 3, MinSim: ptr(-1)})
	require.NoError(t, err)
	require.NotEmpty(t, res)
	top := res[0]
	assert.Equal(t, "fc2", top.ReviewID)
	assert.Equal(t, "Fight Club", top.MovieTitle)
	assert.Equal(t, "ufc2", top.UserID)
	require.NotNil(t, top.Rating)
	assert.Equal(t, 5.0, *top.Rating)
	assert.Equal(t, "Culte aussi", top.Title)
	assert.Greater(t, top.Similarity, 0.8)
	assert.InDelta(t, 1.0, top.Score, 1e-4)
	assert.Contains(t, top.Explanations.MatchingSentences, "Tyler Durden est fascinant.")
	assert.Contains(t, top.Explanations.Keywords, "tyler")
}

func TestSimilar_KLimitsResults(t *testing.T) {
	r := newTestRecommender(t, fixtureReviews())
	res, err := r.Similar(context.Background(), Query{ReviewID: "int2", K: 2, MinSim: ptr(-1)})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestSimilar_MinSimAboveOneIsEmpty(t *testing.T) {
	r := newTestRecommender(t, fixtureReviews())
	res, err := r.Similar(context.Background(), Query{ReviewID: "fc1", K: 5, MinSim: ptr(1.1)})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestSimilar_UnknownID(t *testing.T) {
	r := newTestRecommender(t, fixtureReviews())
	_, err := r.Similar(context.Background(), Query{ReviewID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSimilar_LoneReview(t *testing.T) {
	reviews := append(fixtureReviews(), domain.Review{ReviewID: "solo", MovieID: "SOLO", Body: "Le seul avis de ce film."})
	r := newTestRecommender(t, reviews)
	res, err := r.Similar(context.Background(), Query{ReviewID: "solo", MinSim: ptr(-1)})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestNew_EmptyCorpus(t *testing.T) {
	_, err := New(context.Background(), DefaultConfig(), nil, static.New(0), memory.NewStorage(), zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	short := []domain.Review{{ReviewID: "1", MovieID: "FC", Body: "ok"}, {ReviewID: "2", MovieID: "FC", Title: "None", Body: "1234 !!"}}
	_, err = New(context.Background(), DefaultConfig(), short, static.New(0), memory.NewStorage(), zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestNew_ShortReviewsNotIndexed(t *testing.T) {
	reviews := append(fixtureReviews(), domain.Review{ReviewID: "tiny", MovieID: "FC", Body: "bof"})
	r := newTestRecommender(t, reviews)
	assert.Equal(t, 10, r.Size())
	_, err := r.Similar(context.Background(), Query{ReviewID: "tiny"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	st := r.Stats()
	assert.Equal(t, map[string]int{"FC": 5, "INT": 5}, st.Movies)
	assert.Equal(t, "static", st.Embedder)
	assert.Positive(t, st.Vocabulary)
}

// fixedIndex returns a preset neighbour list regardless of the query.
type fixedIndex struct {
	ids  []string
	sims []float64
}

func (f *fixedIndex) Fit(context.Context, [][]float64, []string, []string) error { return nil }

func (f *fixedIndex) QuerySameMovie(context.Context, []float64, string, int) ([]string, []float64, error) {
	return f.ids, f.sims, nil
}

func TestSimilar_ThresholdAppliesAfterTruncation(t *testing.T) {
	reviews := []domain.Review{
		{ReviewID: "q", MovieID: "FC", Body: "combat clandestin savon"},
		{ReviewID: "a", MovieID: "FC", Body: "combat clandestin savon"},
		{ReviewID: "b", MovieID: "FC", Body: "combat nocturne"},
		{ReviewID: "c", MovieID: "FC", Body: "voyage spatial"},
	}
	idx := &fixedIndex{ids: []string{"q", "a", "b", "c"}, sims: []float64{1, 0.1, 0.9, 0.8}}
	cfg := DefaultConfig()
	cfg.Alpha = 0
	r, err := New(context.Background(), cfg, reviews, static.New(0), idx, zerolog.Nop())
	require.NoError(t, err)

	res, err := r.Similar(context.Background(), Query{ReviewID: "q", K: 2})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].ReviewID)
	assert.Equal(t, 0.9, res[0].Similarity)
}

func TestSimilar_SnippetAndRating(t *testing.T) {
	long := strings.Repeat("très long avis ", 30)
	reviews := []domain.Review{
		{ReviewID: "q", MovieID: "FC", Body: "très long avis sur le film"},
		{ReviewID: "a", MovieID: "FC", Body: long, Rating: "3,5"},
	}
	r := newTestRecommender(t, reviews)
	res, err := r.Similar(context.Background(), Query{ReviewID: "q", MinSim: ptr(-1)})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 221, len([]rune(res[0].Snippet)))
	assert.True(t, strings.HasSuffix(res[0].Snippet, "…"))
	require.NotNil(t, res[0].Rating)
	assert.Equal(t, 3.5, *res[0].Rating)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"4", ptr(4)},
		{" 3,5 ", ptr(3.5)},
		{"2.25", ptr(2.25)},
		{"", nil},
		{"abc", nil},
		{"nan", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRating(tt.in))
		})
	}
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "court", Snippet("court", 220))
	assert.Equal(t, "éé…", Snippet("ééé", 2))
}

func TestSuggest(t *testing.T) {
	r := newTestRecommender(t, fixtureReviews())
	assert.Equal(t, []string{"fc1"}, r.Suggest("FC1", 1))
	got := r.Suggest("fc9", 3)
	assert.Len(t, got, 3)
	assert.Empty(t, r.Suggest("zzzzzzzzzzzz", 3))
}
