package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/certdrill/certdrill/internal/video"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GET /videos?category=...
func ListVideosHandler(store *video.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /videos (admin). Upsert; a missing ID gets one.
func PutVideoHandler(store *video.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v video.Video
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if v.Title == "" || v.URL == "" {
			http.Error(w, "title and url required", http.StatusBadRequest)
			return
		}
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now()
		}
		if err := store.Put(r.Context(), v); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

// DELETE /videos/{id} (admin)
func DeleteVideoHandler(store *video.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, video.ErrNotFound) {
			http.Error(w, "video not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
