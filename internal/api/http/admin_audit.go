package http

import (
	"net/http"

	syncx "github.com/certdrill/certdrill/internal/sync"
)

// GET /admin/audit?q=StandingEscalated&limit=100
// Searches the append-only event log, newest first.
func AuditSearchHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := events.Search(r.Context(),
			r.URL.Query().Get("q"),
			parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
