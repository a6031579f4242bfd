package question

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("question not found")

type ListOpts struct {
	Category string
	Tag      string
	Limit    int
	Offset   int
}

// Store persists curated questions. Get and List return full documents,
// answer keys included; callers serving students redact via
// Question.Redacted.
type Store interface {
	Put(ctx context.Context, q Question) error
	Get(ctx context.Context, id string) (Question, error)
	List(ctx context.Context, opts ListOpts) ([]Question, error)
	Delete(ctx context.Context, id string) error
}

type memoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
}

func NewInMemoryStore() Store {
	return &memoryStore{questions: map[string]Question{}}
}

func (m *memoryStore) Put(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Question, 0, len(m.questions))
	for _, q := range m.questions {
		if opts.Category != "" && q.Category != opts.Category {
			continue
		}
		if opts.Tag != "" && !hasTag(q, opts.Tag) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return window(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func hasTag(q Question, tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func window(qs []Question, limit, offset int) []Question {
	if offset >= len(qs) {
		return []Question{}
	}
	qs = qs[offset:]
	if limit > 0 && limit < len(qs) {
		qs = qs[:limit]
	}
	return qs
}
