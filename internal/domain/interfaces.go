package domain

import "context"

// Review is a single user review of a movie as loaded from a corpus source.
type Review struct {
	ReviewID   string
	MovieID    string
	MovieTitle string
	UserID     string
	// Rating is kept as read from the source; it is parsed leniently when results are built.
	Rating    string
	Title     string
	Body      string
	CreatedAt string
	Lang      string
}

// Source is one tabular corpus source tagged with a fixed movie.
type Source struct {
	Path       string `yaml:"path" koanf:"path"`
	MovieID    string `yaml:"movie_id" koanf:"movie_id"`
	MovieTitle string `yaml:"movie_title" koanf:"movie_title"`
}

// Explanations is the evidence attached to a recommendation. It is not used for ranking.
type Explanations struct {
	MatchingSentences []string `json:"matching_sentences"`
	Keywords          []string `json:"keywords"`
}

// Result is a recommended review with its similarity and explanations.
type Result struct {
	ReviewID     string       `json:"review_id"`
	MovieID      string       `json:"movie_id"`
	MovieTitle   string       `json:"movie_title"`
	UserID       string       `json:"user_id"`
	Rating       *float64     `json:"rating"`
	Title        string       `json:"title"`
	Snippet      string       `json:"snippet"`
	Similarity   float64      `json:"similarity"`
	Score        float64      `json:"score"`
	Explanations Explanations `json:"explanations"`
}

// Embedder converts free text into dense vectors, one row per input.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Index is a nearest-neighbour index restricted to one movie at query time.
type Index interface {
	Fit(ctx context.Context, embeddings [][]float64, ids, movieIDs []string) error
	QuerySameMovie(ctx context.Context, query []float64, movieID string, k int) ([]string, []float64, error)
}

// Reranker re-scores a candidate pool. The returned order indexes into candidates.
type Reranker interface {
	Score(queryText string, candidates []int, semantic []float64, alpha float64) ([]int, []float64)
}
