package qdrant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrec/internal/domain"
)

type fakeQdrant struct {
	mu       sync.Mutex
	calls    []string
	points   []map[string]any
	limit    int
	apiKey   string
	response string
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.apiKey = r.Header.Get("api-key")
	switch {
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && r.URL.Path == "/collections/reviews/points":
		var body struct {
			Points []map[string]any `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points = append(f.points, body.Points...)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	case r.Method == http.MethodPut:
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPost:
		var body struct {
			Limit int `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.limit = body.Limit
		_, _ = w.Write([]byte(f.response))
	}
}

func TestQuery_NotFitted(t *testing.T) {
	s := NewStorage(Config{URL: "http://127.0.0.1:1"})
	_, _, err := s.QuerySameMovie(context.Background(), []float64{1}, "FC", 5)
	assert.ErrorIs(t, err, domain.ErrNotFitted)
}

func TestFitAndQuery(t *testing.T) {
	fake := &fakeQdrant{response: `{"result":[
		{"score":0.9,"payload":{"review_id":"int1","movie_id":"INT"}},
		{"score":0.8,"payload":{"review_id":"fc2","movie_id":"FC"}},
		{"score":0.85,"payload":{"review_id":"fc1","movie_id":"FC"}}
	]}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, APIKey: "k"})
	require.NoError(t, s.Fit(context.Background(),
		[][]float64{{1, 0}, {0, 1}, {1, 1}},
		[]string{"fc1", "fc2", "int1"},
		[]string{"FC", "FC", "INT"},
	))
	assert.Equal(t, []string{
		"DELETE /collections/reviews",
		"PUT /collections/reviews",
		"PUT /collections/reviews/points",
	}, fake.calls)
	require.Len(t, fake.points, 3)
	assert.Equal(t, PointID("fc1"), fake.points[0]["id"])
	assert.Equal(t, "k", fake.apiKey)

	ids, sims, err := s.QuerySameMovie(context.Background(), []float64{1, 0}, "FC", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"fc1", "fc2"}, ids)
	assert.Equal(t, []float64{0.85, 0.8}, sims)
	assert.Equal(t, 3, fake.limit)
}

func TestFit_LengthMismatch(t *testing.T) {
	s := NewStorage(Config{URL: "http://127.0.0.1:1"})
	err := s.Fit(context.Background(), [][]float64{{1}}, []string{"a", "b"}, []string{"FC"})
	assert.ErrorIs(t, err, domain.ErrLengthMismatch)
}

func TestFit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := NewStorage(Config{URL: srv.URL})
	err := s.Fit(context.Background(), [][]float64{{1}}, []string{"a"}, []string{"FC"})
	require.Error(t, err)
	_, _, err = s.QuerySameMovie(context.Background(), []float64{1}, "FC", 1)
	assert.ErrorIs(t, err, domain.ErrNotFitted)
}

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, PointID("FC_1"), PointID("FC_1"))
	assert.NotEqual(t, PointID("FC_1"), PointID("INT_1"))
}
