package qdrant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"reviewrec/internal/domain"
	"reviewrec/internal/vectorstore"
)

const upsertBatch = 256

// Storage is a minimal REST client to Qdrant.
// Fit recreates the collection with cosine distance.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu     sync.RWMutex
	fitted bool
	count  int
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "reviews"
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// PointID derives a stable point id from a review id.
func PointID(reviewID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("review:"+reviewID)).String()
}

func (s *Storage) Fit(ctx context.Context, embeddings [][]float64, ids, movieIDs []string) error {
	if len(embeddings) != len(ids) || len(ids) != len(movieIDs) {
		return fmt.Errorf("%w: %d embeddings, %d ids, %d movie ids",
			domain.ErrLengthMismatch, len(embeddings), len(ids), len(movieIDs))
	}
	if len(embeddings) == 0 {
		return domain.ErrEmptyCorpus
	}
	dimension := len(embeddings[0])
	if dimension == 0 {
		return errors.New("invalid dimension")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false

	collURL := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	if err := s.do(ctx, http.MethodDelete, collURL, nil, nil, http.StatusNotFound); err != nil {
		return err
	}
	create := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, collURL, create, nil); err != nil {
		return err
	}
	for start := 0; start < len(ids); start += upsertBatch {
		end := min(start+upsertBatch, len(ids))
		points := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			if len(embeddings[i]) != dimension {
				return fmt.Errorf("%w: vector %d has dimension %d, want %d",
					domain.ErrLengthMismatch, i, len(embeddings[i]), dimension)
			}
			points = append(points, map[string]any{
				"id":     PointID(ids[i]),
				"vector": embeddings[i],
				"payload": map[string]any{
					"review_id": ids[i],
					"movie_id":  movieIDs[i],
				},
			})
		}
		body := map[string]any{"points": points}
		if err := s.do(ctx, http.MethodPut, collURL+"/points?wait=true", body, nil); err != nil {
			return err
		}
	}
	s.count = len(ids)
	s.fitted = true
	return nil
}

// QuerySameMovie searches the pool over the whole collection, then filters by movie
// locally so results match the in-memory index.
func (s *Storage) QuerySameMovie(ctx context.Context, query []float64, movieID string, k int) ([]string, []float64, error) {
	s.mu.RLock()
	fitted, count := s.fitted, s.count
	s.mu.RUnlock()
	if !fitted {
		return nil, nil, domain.ErrNotFitted
	}
	pool := vectorstore.PoolSize(k, count)
	if pool <= 0 || k <= 0 {
		return []string{}, []float64{}, nil
	}
	req := map[string]any{
		"vector":       query,
		"limit":        pool,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ReviewID string `json:"review_id"`
				MovieID  string `json:"movie_id"`
			} `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, nil, err
	}
	hits := make([]vectorstore.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, vectorstore.Hit{ID: r.Payload.ReviewID, MovieID: r.Payload.MovieID, Similarity: r.Score})
	}
	ids, sims := vectorstore.SameMovie(hits, movieID, k)
	return ids, sims, nil
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any, okStatus ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		for _, st := range okStatus {
			if resp.StatusCode == st {
				return nil
			}
		}
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
