package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/certdrill/certdrill/internal/question"
	"github.com/certdrill/certdrill/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GET /questions?category=...&tag=...&limit=50&offset=0
// Students get redacted documents; admins get the full ones.
func ListQuestionsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := question.ListOpts{
			Category: r.URL.Query().Get("category"),
			Tag:      r.URL.Query().Get("tag"),
			Limit:    parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:   parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := store.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if rbac.RoleFromContext(r.Context()) != "admin" {
			for i := range list {
				list[i] = list[i].Redacted()
			}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, question.ErrNotFound) {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if rbac.RoleFromContext(r.Context()) != "admin" {
			q = q.Redacted()
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// POST /questions (admin). Accepts a full document; a missing ID gets one.
// The answer key is validated up front so malformed documents are rejected at
// the door instead of surfacing at submission time.
func CreateQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q question.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.CreatedAt == 0 {
			q.CreatedAt = time.Now().Unix()
		}
		if _, err := question.ResolveKey(q); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err := store.Put(r.Context(), q); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// PUT /questions/{id} (admin). Whole-document replace.
func UpdateQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		prev, err := store.Get(r.Context(), id)
		if errors.Is(err, question.ErrNotFound) {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		var q question.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q.ID = id
		if q.CreatedAt == 0 {
			q.CreatedAt = prev.CreatedAt
		}
		if _, err := question.ResolveKey(q); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err := store.Put(r.Context(), q); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func DeleteQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, question.ErrNotFound) {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
