package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"reviewrec/internal/domain"
	"reviewrec/internal/metrics"
	"reviewrec/internal/service"
)

// DefaultK is the number of results when k is omitted.
const DefaultK = 5

var validate = validator.New()

// SimilarRequest is the validated query string of GET /similar.
type SimilarRequest struct {
	ReviewID string `validate:"required"`
	K        int    `validate:"min=1,max=20"`
}

// SimilarResponse is the body of a successful GET /similar.
type SimilarResponse struct {
	ReviewID string          `json:"review_id"`
	TopK     int             `json:"top_k"`
	Results  []domain.Result `json:"results"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail      string   `json:"detail"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Similar handles GET /similar?review_id=...&k=5.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := SimilarRequest{ReviewID: strings.TrimSpace(q.Get("review_id")), K: DefaultK}
	if raw := q.Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, ErrorResponse{Detail: "k must be an integer"}, nil)
			return
		}
		req.K = k
	}
	if err := validate.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, ErrorResponse{Detail: validationMessage(err)}, nil)
		return
	}

	start := time.Now()
	results, err := h.rec.Similar(r.Context(), service.Query{ReviewID: req.ReviewID, K: req.K})
	metrics.RecordQuery(time.Since(start), len(results), err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.respondError(w, http.StatusNotFound, ErrorResponse{
			Detail:      fmt.Sprintf("review_id %s not found", req.ReviewID),
			Suggestions: h.rec.Suggest(req.ReviewID, 3),
		}, nil)
		return
	case errors.Is(err, domain.ErrEmptyCorpus), errors.Is(err, domain.ErrNotFitted):
		h.respondError(w, http.StatusBadRequest, ErrorResponse{Detail: err.Error()}, err)
		return
	case err != nil:
		h.respondError(w, http.StatusInternalServerError, ErrorResponse{Detail: "internal error"}, err)
		return
	}
	respondJSON(w, http.StatusOK, SimilarResponse{ReviewID: req.ReviewID, TopK: req.K, Results: results})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "reviews": h.rec.Size()})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "ReviewID":
		return "review_id is required"
	case "K":
		return "k must be between 1 and 20"
	default:
		return fe.Error()
	}
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// respondError logs err when set and sends body with status.
func (h *Handler) respondError(w http.ResponseWriter, status int, body ErrorResponse, err error) {
	if err != nil {
		h.logger.Error().Int("status", status).Str("error", sanitizeLogValue(err.Error())).Msg("request failed")
	}
	respondJSON(w, status, body)
}

// sanitizeLogValue escapes control characters to keep log lines intact.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
