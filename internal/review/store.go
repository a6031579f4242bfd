package review

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNoStanding = errors.New("standing not found")

	// ErrStaleStanding signals that a standing write lost the
	// read-modify-write race to a concurrent submission (another tab or
	// device). Callers re-read and retry; the write is never applied.
	ErrStaleStanding = errors.New("standing version conflict")

	ErrDuplicateAttempt = errors.New("attempt id already recorded")
)

// Store persists the append-only attempt history and the per-question
// standings.
//
// PutStanding is versioned: a Standing with Version 0 must insert a new row
// (failing with ErrStaleStanding if one appeared meanwhile), any other
// version must match the stored row exactly. Attempts have no update path at
// all, and their IDs are unique per user, not globally: both the timestamp
// IDs and the deterministic migration IDs repeat across users for the same
// question.
type Store interface {
	AppendAttempt(ctx context.Context, a Attempt) error
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
	CountAttempts(ctx context.Context, userID string) (AttemptCounts, error)

	GetStanding(ctx context.Context, userID, questionID string) (Standing, error)
	PutStanding(ctx context.Context, s Standing) error
	DeleteStanding(ctx context.Context, userID, questionID string) error
	ListStandings(ctx context.Context, userID string) ([]Standing, error)
}

type memoryStore struct {
	mu        sync.RWMutex
	attempts  []Attempt
	standings map[string]Standing // key: userID|questionID
}

func NewInMemoryStore() Store {
	return &memoryStore{standings: map[string]Standing{}}
}

func standingKey(userID, questionID string) string { return userID + "|" + questionID }

func (m *memoryStore) AppendAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.attempts {
		if ex.ID == a.ID && ex.UserID == a.UserID {
			return ErrDuplicateAttempt
		}
	}
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.QuestionID != "" && a.QuestionID != opts.QuestionID {
			continue
		}
		out = append(out, a)
	}
	// newest first, matching the SQL store
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnsweredAt > out[j].AnsweredAt })
	if opts.Offset >= len(out) {
		return []Attempt{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) CountAttempts(_ context.Context, userID string) (AttemptCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var c AttemptCounts
	for _, a := range m.attempts {
		if a.UserID != userID {
			continue
		}
		c.Total++
		if a.Correct {
			c.Correct++
		} else {
			c.Wrong++
		}
	}
	return c, nil
}

func (m *memoryStore) GetStanding(_ context.Context, userID, questionID string) (Standing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.standings[standingKey(userID, questionID)]
	if !ok {
		return Standing{}, ErrNoStanding
	}
	return s, nil
}

func (m *memoryStore) PutStanding(_ context.Context, s Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := standingKey(s.UserID, s.QuestionID)
	cur, exists := m.standings[k]
	if s.Version == 0 {
		if exists {
			return ErrStaleStanding
		}
	} else if !exists || cur.Version != s.Version {
		return ErrStaleStanding
	}
	s.Version++
	m.standings[k] = s
	return nil
}

func (m *memoryStore) DeleteStanding(_ context.Context, userID, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := standingKey(userID, questionID)
	if _, ok := m.standings[k]; !ok {
		return ErrNoStanding
	}
	delete(m.standings, k)
	return nil
}

func (m *memoryStore) ListStandings(_ context.Context, userID string) ([]Standing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Standing{}
	for _, s := range m.standings {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}
