// Package corpus loads review tables from permissive CSV exports.
//
// Column names vary between exports, so every field is looked up through an
// alias table. Rows without enough text are dropped and review ids are made
// unique across sources.
package corpus

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"reviewrec/internal/domain"
	"reviewrec/internal/textnorm"
)

// Movie used by LoadFile for untagged single-file corpora.
const (
	UnknownMovieID    = "UNK"
	UnknownMovieTitle = "Unknown"
	DefaultLang       = "fr"
)

const minTextLength = 3

// Fields lists the accepted header names per review field, in priority order.
var Fields = []struct {
	Name    string
	Aliases []string
}{
	{"review_id", []string{"review_id", "id", "reviewid"}},
	{"user_id", []string{"user_id", "username", "user", "author", "auteur", "uid"}},
	{"rating", []string{"rating", "note", "score"}},
	{"title", []string{"title", "titre", "headline", "subject", "review_title"}},
	{"body", []string{"body", "critique", "texte", "content", "review", "text", "comment", "review_content"}},
	{"created_at", []string{"created_at", "date", "datetime", "timestamp", "created", "review_date_creation"}},
	{"lang", []string{"lang", "language", "langue"}},
}

// Diagnostics describes what was read from one source.
type Diagnostics struct {
	Path        string
	RowsIn      int
	RowsKept    int
	RowsSkipped int
	Columns     []string
	// Matched maps a review field to the header it was read from.
	Matched  map[string]string
	HasTitle bool
	HasBody  bool
	Latin1   bool
	// Delimiter is the sniffed field separator.
	Delimiter string
}

func (d Diagnostics) String() string {
	return fmt.Sprintf("%s: %d/%d rows kept, columns %v, title? %t, body? %t",
		d.Path, d.RowsKept, d.RowsIn, d.Columns, d.HasTitle, d.HasBody)
}

// LoadError reports that no source produced a usable review.
type LoadError struct {
	Sources []Diagnostics
}

func (e *LoadError) Error() string {
	if len(e.Sources) == 0 {
		return "no usable review after loading: no readable source"
	}
	parts := make([]string, len(e.Sources))
	for i, d := range e.Sources {
		parts[i] = "- " + d.String()
	}
	return "no usable review after loading:\n" + strings.Join(parts, "\n")
}

func (e *LoadError) Unwrap() error { return domain.ErrEmptyCorpus }

// Corpus is the merged, disambiguated set of reviews.
type Corpus struct {
	Reviews     []domain.Review
	Diagnostics []Diagnostics
}

// Loader reads corpus sources.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a loader logging through logger.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger.With().Str("component", "corpus").Logger()}
}

// LoadFile reads a single untagged file as movie UnknownMovieID.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Corpus, error) {
	return l.Load(ctx, []domain.Source{{Path: path, MovieID: UnknownMovieID, MovieTitle: UnknownMovieTitle}})
}

// Load reads every source concurrently and merges them in declared order.
func (l *Loader) Load(ctx context.Context, sources []domain.Source) (*Corpus, error) {
	reviews := make([][]domain.Review, len(sources))
	diags := make([]Diagnostics, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(src.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", src.Path, err)
			}
			rs, d, err := readSource(src, data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", src.Path, err)
			}
			reviews[i], diags[i] = rs, d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []domain.Review
	for i, d := range diags {
		l.logger.Info().
			Str("path", d.Path).
			Str("movie_id", sources[i].MovieID).
			Int("rows_in", d.RowsIn).
			Int("rows_kept", d.RowsKept).
			Int("rows_skipped", d.RowsSkipped).
			Bool("latin1", d.Latin1).
			Str("delimiter", d.Delimiter).
			Msg("source loaded")
		if d.RowsKept == 0 {
			l.logger.Warn().Str("path", d.Path).Strs("columns", d.Columns).
				Bool("has_title", d.HasTitle).Bool("has_body", d.HasBody).
				Msg("no usable row in source")
		}
		merged = append(merged, reviews[i]...)
	}
	if len(merged) == 0 {
		return nil, &LoadError{Sources: diags}
	}
	if Disambiguate(merged) {
		l.logger.Info().Msg("duplicate review ids, prefixed with movie id")
	}
	return &Corpus{Reviews: merged, Diagnostics: diags}, nil
}

func readSource(src domain.Source, data []byte) ([]domain.Review, Diagnostics, error) {
	d := Diagnostics{Path: src.Path, Matched: map[string]string{}}
	t, err := parse(data)
	if err != nil {
		return nil, d, err
	}
	d.Columns = t.header
	d.RowsIn = len(t.rows)
	d.RowsSkipped = t.skipped
	d.Latin1 = t.latin1
	if t.comma != 0 {
		d.Delimiter = string(t.comma)
	}

	cols := map[string]int{}
	for i, h := range t.header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	pos := map[string]int{}
	for _, f := range Fields {
		for _, a := range f.Aliases {
			if i, ok := cols[a]; ok {
				pos[f.Name] = i
				d.Matched[f.Name] = t.header[i]
				break
			}
		}
	}
	_, d.HasTitle = pos["title"]
	_, d.HasBody = pos["body"]

	get := func(row []string, field string) string {
		i, ok := pos[field]
		if !ok {
			return ""
		}
		return row[i]
	}
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		if textnorm.IsPlaceholder(s) {
			return ""
		}
		return s
	}

	var out []domain.Review
	for n, row := range t.rows {
		r := domain.Review{
			ReviewID:   clean(get(row, "review_id")),
			MovieID:    src.MovieID,
			MovieTitle: src.MovieTitle,
			UserID:     clean(get(row, "user_id")),
			Rating:     strings.TrimSpace(get(row, "rating")),
			Title:      clean(get(row, "title")),
			Body:       clean(get(row, "body")),
			CreatedAt:  strings.TrimSpace(get(row, "created_at")),
			Lang:       strings.TrimSpace(get(row, "lang")),
		}
		if utf8.RuneCountInString(r.Title)+utf8.RuneCountInString(r.Body) < minTextLength {
			continue
		}
		if r.ReviewID == "" {
			r.ReviewID = strconv.Itoa(n + 1)
		}
		if _, ok := pos["lang"]; !ok {
			r.Lang = DefaultLang
		}
		out = append(out, r)
	}
	d.RowsKept = len(out)
	return out, d, nil
}

// Disambiguate makes review ids unique in place. When any id repeats, every id
// is prefixed with its movie id; ids still repeated get _2, _3... suffixes in
// order. It reports whether ids were rewritten.
func Disambiguate(reviews []domain.Review) bool {
	seen := make(map[string]struct{}, len(reviews))
	dup := false
	for _, r := range reviews {
		if _, ok := seen[r.ReviewID]; ok {
			dup = true
			break
		}
		seen[r.ReviewID] = struct{}{}
	}
	if !dup {
		return false
	}
	for i := range reviews {
		reviews[i].ReviewID = reviews[i].MovieID + "_" + reviews[i].ReviewID
	}
	taken := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		taken[r.ReviewID] = struct{}{}
	}
	count := make(map[string]int, len(reviews))
	for i := range reviews {
		id := reviews[i].ReviewID
		count[id]++
		if count[id] == 1 {
			continue
		}
		n := count[id]
		candidate := id + "_" + strconv.Itoa(n)
		for {
			if _, ok := taken[candidate]; !ok {
				break
			}
			n++
			candidate = id + "_" + strconv.Itoa(n)
		}
		count[id] = n
		taken[candidate] = struct{}{}
		reviews[i].ReviewID = candidate
	}
	return true
}
