package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/certdrill/certdrill/internal/review"
)

// Admin maintenance endpoints. All take an explicit user_id: these passes run
// on someone else's data, never implicitly on the caller's.

// POST /admin/review/scrub  { "user_id": "..." }
func ScrubStandingsHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		report, err := svc.ScrubStandings(r.Context(), req.UserID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// GET /admin/review/standings?user_id=...  (inspection only, no mutation)
func ListStandingSummariesHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		list, err := svc.ListStandingSummaries(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /admin/attempts/backfill  { "user_id": "..." }
// Synthesizes attempt history for standings written before attempts existed.
func BackfillAttemptsHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		report, err := svc.BackfillAttempts(r.Context(), req.UserID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
