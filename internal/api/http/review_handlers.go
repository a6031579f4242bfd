package http

import (
	"net/http"

	"github.com/certdrill/certdrill/internal/rbac"
	"github.com/certdrill/certdrill/internal/review"
)

// GET /review?filter=all|attention|recent&days=7
// Returns the caller's open standings, attention-first then by error count.
func ReviewQueueHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var f review.Filter
		switch r.URL.Query().Get("filter") {
		case "", "all":
			f.Kind = review.FilterAll
		case "attention":
			f.Kind = review.FilterAttention
		case "recent":
			f.Kind = review.FilterRecent
			f.Days = parseIntDefault(r.URL.Query().Get("days"), 7)
		default:
			http.Error(w, "filter must be all, attention or recent", http.StatusBadRequest)
			return
		}

		list, err := svc.ListForReview(r.Context(), userID, f)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		type entry struct {
			review.Standing
			NeedsAttention bool `json:"needs_attention"`
		}
		out := make([]entry, 0, len(list))
		for _, st := range list {
			out = append(out, entry{Standing: st, NeedsAttention: st.NeedsAttention()})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
