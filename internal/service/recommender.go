package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"reviewrec/internal/domain"
	"reviewrec/internal/embedding"
	"reviewrec/internal/explain"
	"reviewrec/internal/rerank"
	"reviewrec/internal/textnorm"
)

// minTextLength is the shortest normalised "title. body" text worth indexing.
const minTextLength = 5

// Config holds the recommender thresholds and output sizes.
type Config struct {
	TopK              int     `yaml:"top_k" koanf:"top_k"`
	MinSim            float64 `yaml:"min_sim" koanf:"min_sim"`
	CandidatePool     int     `yaml:"candidate_pool" koanf:"candidate_pool"`
	Alpha             float64 `yaml:"alpha" koanf:"alpha"`
	SnippetLength     int     `yaml:"snippet_length" koanf:"snippet_length"`
	MatchingSentences int     `yaml:"matching_sentences" koanf:"matching_sentences"`
	Keywords          int     `yaml:"keywords" koanf:"keywords"`
}

// DefaultConfig returns the settings the recommender was tuned with.
func DefaultConfig() Config {
	return Config{
		TopK:              5,
		MinSim:            0.25,
		CandidatePool:     50,
		Alpha:             rerank.DefaultAlpha,
		SnippetLength:     220,
		MatchingSentences: explain.DefaultSentences,
		Keywords:          explain.DefaultKeywords,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.CandidatePool <= 0 {
		c.CandidatePool = d.CandidatePool
	}
	if c.SnippetLength <= 0 {
		c.SnippetLength = d.SnippetLength
	}
	if c.MatchingSentences <= 0 {
		c.MatchingSentences = d.MatchingSentences
	}
	if c.Keywords <= 0 {
		c.Keywords = d.Keywords
	}
	return c
}

// Query asks for reviews similar to ReviewID. K <= 0 and a nil MinSim fall
// back to the configured values.
type Query struct {
	ReviewID string
	K        int
	MinSim   *float64
}

type entry struct {
	review domain.Review
	text   string
}

// Recommender finds similar reviews of the same movie. It is immutable after
// New and safe for concurrent use.
type Recommender struct {
	cfg      Config
	logger   zerolog.Logger
	encoder  *embedding.Encoder
	index    domain.Index
	reranker domain.Reranker
	vocab    int

	entries []entry
	byID    map[string]int
	movies  map[string]int
}

// New normalises reviews, embeds them, fits index and builds the lexical
// re-ranker. Reviews whose normalised text is shorter than five characters
// are left out.
func New(ctx context.Context, cfg Config, reviews []domain.Review, embedder domain.Embedder, index domain.Index, logger zerolog.Logger) (*Recommender, error) {
	logger = logger.With().Str("component", "recommender").Logger()
	if len(reviews) == 0 {
		return nil, fmt.Errorf("%w: no review loaded", domain.ErrEmptyCorpus)
	}
	r := &Recommender{
		cfg:     cfg.withDefaults(),
		logger:  logger,
		encoder: embedding.NewEncoder(embedder),
		index:   index,
		byID:    make(map[string]int, len(reviews)),
		movies:  map[string]int{},
	}
	for _, rv := range reviews {
		text, _ := textnorm.MakeCorpusRow(textnorm.Normalize(rv.Title), textnorm.Normalize(rv.Body))
		if utf8.RuneCountInString(text) < minTextLength {
			continue
		}
		if _, dup := r.byID[rv.ReviewID]; dup {
			return nil, fmt.Errorf("duplicate review id %q", rv.ReviewID)
		}
		r.byID[rv.ReviewID] = len(r.entries)
		r.entries = append(r.entries, entry{review: rv, text: text})
		r.movies[rv.MovieID]++
	}
	if len(r.entries) == 0 {
		return nil, fmt.Errorf("%w: no review left after normalisation", domain.ErrEmptyCorpus)
	}

	texts := make([]string, len(r.entries))
	ids := make([]string, len(r.entries))
	movieIDs := make([]string, len(r.entries))
	for i, e := range r.entries {
		texts[i] = e.text
		ids[i] = e.review.ReviewID
		movieIDs[i] = e.review.MovieID
	}
	vectors, err := r.encoder.Encode(ctx, texts)
	if err != nil {
		return nil, err
	}
	if err := index.Fit(ctx, vectors, ids, movieIDs); err != nil {
		return nil, fmt.Errorf("fit index: %w", err)
	}
	hybrid, err := rerank.New(texts)
	if err != nil {
		return nil, fmt.Errorf("build reranker: %w", err)
	}
	r.reranker = hybrid
	r.vocab = hybrid.Vocabulary()

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	logger.Info().
		Int("reviews_in", len(reviews)).
		Int("reviews_indexed", len(r.entries)).
		Int("dimension", dim).
		Int("vocabulary", r.vocab).
		Str("embedder", r.encoder.Name()).
		Msg("recommender ready")
	return r, nil
}

// Similar returns up to K reviews of the same movie ranked by the hybrid
// score. Only the first K re-ranked candidates are considered, and those with
// a semantic similarity below MinSim are dropped from them, so fewer than K
// results may come back.
func (r *Recommender) Similar(ctx context.Context, q Query) ([]domain.Result, error) {
	pos, ok := r.byID[q.ReviewID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, q.ReviewID)
	}
	k := q.K
	if k <= 0 {
		k = r.cfg.TopK
	}
	minSim := r.cfg.MinSim
	if q.MinSim != nil {
		minSim = *q.MinSim
	}
	query := r.entries[pos]

	vecs, err := r.encoder.Encode(ctx, []string{query.text})
	if err != nil {
		return nil, err
	}
	ids, sims, err := r.index.QuerySameMovie(ctx, vecs[0], query.review.MovieID, r.cfg.CandidatePool)
	if err != nil {
		return nil, err
	}

	candidates := make([]int, 0, len(ids))
	semantic := make([]float64, 0, len(ids))
	for i, id := range ids {
		if id == q.ReviewID {
			continue
		}
		p, ok := r.byID[id]
		if !ok {
			continue
		}
		candidates = append(candidates, p)
		semantic = append(semantic, sims[i])
	}
	if len(candidates) == 0 {
		r.logger.Debug().Str("review_id", q.ReviewID).Msg("no candidate in movie")
		return []domain.Result{}, nil
	}

	order, scores := r.reranker.Score(query.text, candidates, semantic, r.cfg.Alpha)
	out := make([]domain.Result, 0, k)
	for i, o := range order {
		if i >= k {
			break
		}
		if semantic[o] < minSim {
			continue
		}
		out = append(out, r.result(query, r.entries[candidates[o]], semantic[o], scores[i]))
	}
	r.logger.Debug().
		Str("review_id", q.ReviewID).
		Int("candidates", len(candidates)).
		Int("returned", len(out)).
		Msg("similar reviews")
	return out, nil
}

func (r *Recommender) result(query, cand entry, sim, score float64) domain.Result {
	rv := cand.review
	return domain.Result{
		ReviewID:   rv.ReviewID,
		MovieID:    rv.MovieID,
		MovieTitle: rv.MovieTitle,
		UserID:     rv.UserID,
		Rating:     ParseRating(rv.Rating),
		Title:      rv.Title,
		Snippet:    Snippet(rv.Body, r.cfg.SnippetLength),
		Similarity: round4(sim),
		Score:      round4(score),
		Explanations: domain.Explanations{
			MatchingSentences: explain.MatchingSentences(query.review.Body, rv.Body, r.cfg.MatchingSentences),
			Keywords:          explain.Keywords(rv.Body, r.cfg.Keywords),
		},
	}
}

// Review returns the indexed review with the given id.
func (r *Recommender) Review(id string) (domain.Review, bool) {
	p, ok := r.byID[id]
	if !ok {
		return domain.Review{}, false
	}
	return r.entries[p].review, true
}

// Size returns the number of indexed reviews.
func (r *Recommender) Size() int { return len(r.entries) }

// Stats summarises the indexed corpus.
type Stats struct {
	Reviews    int            `json:"reviews"`
	Movies     map[string]int `json:"movies"`
	Vocabulary int            `json:"vocabulary"`
	Embedder   string         `json:"embedder"`
}

// Stats returns a copy of the per-movie counts with the index sizes.
func (r *Recommender) Stats() Stats {
	movies := make(map[string]int, len(r.movies))
	for m, n := range r.movies {
		movies[m] = n
	}
	return Stats{Reviews: len(r.entries), Movies: movies, Vocabulary: r.vocab, Embedder: r.encoder.Name()}
}

// Suggest returns up to n indexed ids closest to id by edit distance, for
// "did you mean" hints. Ids further than a third of id's length are ignored.
func (r *Recommender) Suggest(id string, n int) []string {
	if n <= 0 || id == "" {
		return nil
	}
	limit := max(2, utf8.RuneCountInString(id)/3)
	type cand struct {
		id   string
		dist int
	}
	var cands []cand
	for _, e := range r.entries {
		d := levenshtein.ComputeDistance(strings.ToLower(id), strings.ToLower(e.review.ReviewID))
		if d <= limit {
			cands = append(cands, cand{e.review.ReviewID, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.id
	}
	return out
}

// ParseRating reads a rating leniently: a comma decimal separator is
// accepted, and empty or unparsable values give nil.
func ParseRating(raw string) *float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Snippet truncates body to n characters, appending an ellipsis when cut.
func Snippet(body string, n int) string {
	if utf8.RuneCountInString(body) <= n {
		return body
	}
	return string([]rune(body)[:n]) + "…"
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
