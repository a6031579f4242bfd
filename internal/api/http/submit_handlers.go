package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/certdrill/certdrill/internal/question"
	"github.com/certdrill/certdrill/internal/rbac"
	"github.com/certdrill/certdrill/internal/review"
)

// POST /submissions
// Body: { "question_id": "...", "selected": ["A","C"], "origin": "practice" }
//
// Status mapping:
//   - 404 unknown question
//   - 422 malformed question (no scorable answer key); nothing is written
//   - 409 concurrent update lost the standing race; client retries
func SubmitHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var in review.Submission
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.QuestionID == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		res, err := svc.Submit(r.Context(), userID, in)
		switch {
		case errors.Is(err, question.ErrNotFound):
			http.Error(w, "question not found", http.StatusNotFound)
		case errors.Is(err, question.ErrMalformedQuestion):
			http.Error(w, "question has no scorable answer key", http.StatusUnprocessableEntity)
		case errors.Is(err, review.ErrStaleStanding):
			http.Error(w, "standing changed concurrently, retry", http.StatusConflict)
		case err != nil:
			http.Error(w, err.Error(), 500)
		default:
			writeJSON(w, http.StatusOK, res)
		}
	}
}
