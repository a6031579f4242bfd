package http

import (
	"net/http"
	"strings"

	"github.com/certdrill/certdrill/internal/rbac"
	"github.com/certdrill/certdrill/internal/review"
)

// GET /attempts?question_id=...&user_id=...&limit=50&offset=0
// Students only see their own history; user_id is forced to the subject
// unless the caller is an admin.
func ListAttemptsHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if role != "admin" || userID == "" {
			userID = sub
		}
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := svc.History(r.Context(), review.AttemptListOpts{
			UserID:     userID,
			QuestionID: strings.TrimSpace(r.URL.Query().Get("question_id")),
			Limit:      parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:     parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /attempts/stats returns dashboard aggregates plus accuracy over all attempts.
func AttemptStatsHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if role != "admin" || userID == "" {
			userID = rbac.SubjectFromContext(r.Context())
		}
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		counts, err := svc.Counts(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		accuracy := 0.0
		if counts.Total > 0 {
			accuracy = float64(counts.Correct) / float64(counts.Total)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"total":    counts.Total,
			"correct":  counts.Correct,
			"wrong":    counts.Wrong,
			"accuracy": accuracy,
		})
	}
}
