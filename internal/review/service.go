package review

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/certdrill/certdrill/internal/question"
	syncx "github.com/certdrill/certdrill/internal/sync"
)

// Service owns the answer-evaluation flow: resolve the verdict, append the
// attempt, then move the standing through its state machine. The two writes
// are not atomic; the attempt always lands first, so a store failure can at
// worst leave an extra attempt without a standing update, never the reverse.
type Service struct {
	questions question.Store
	store     Store
	events    *syncx.EventRepo // optional
	now       func() time.Time
}

type Option func(*Service)

func WithEvents(r *syncx.EventRepo) Option { return func(s *Service) { s.events = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(qs question.Store, st Store, opts ...Option) *Service {
	s := &Service{questions: qs, store: st, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submission is one answer from either flow.
type Submission struct {
	QuestionID string   `json:"question_id"`
	Selected   []string `json:"selected"`
	Origin     Origin   `json:"origin"`
}

// SubmitResult always carries a definite verdict; a submission never resolves
// to an indeterminate state.
type SubmitResult struct {
	Attempt  Attempt        `json:"attempt"`
	Correct  bool           `json:"correct"`
	Change   StandingChange `json:"standing_change"`
	Standing *Standing      `json:"standing,omitempty"` // present when a standing remains open
}

// Submit evaluates one answer end to end.
func (s *Service) Submit(ctx context.Context, userID string, in Submission) (SubmitResult, error) {
	if in.Origin == "" {
		in.Origin = OriginPractice
	}
	q, err := s.questions.Get(ctx, in.QuestionID)
	if err != nil {
		return SubmitResult{}, err
	}
	verdict, err := question.Resolve(q, in.Selected)
	if err != nil {
		// Malformed questions are excluded from scoring: no attempt, no
		// standing, the error goes straight back to the caller.
		return SubmitResult{}, err
	}

	now := s.now()
	attempt := Attempt{
		ID:         attemptID(in.QuestionID, now),
		UserID:     userID,
		QuestionID: in.QuestionID,
		Selected:   in.Selected,
		Canonical:  verdict.Key.Labels,
		Correct:    verdict.Correct,
		AnsweredAt: now.Unix(),
		Origin:     in.Origin,
	}
	if err := s.store.AppendAttempt(ctx, attempt); err != nil {
		// History is the audit trail: if it cannot be written, the standing
		// must not move either.
		return SubmitResult{}, fmt.Errorf("record attempt: %w", err)
	}
	s.logEvent(ctx, "AttemptRecorded", userID+"|"+in.QuestionID, attempt)

	change, standing, err := s.updateStanding(ctx, userID, q, in.Selected, verdict, now)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Attempt: attempt, Correct: verdict.Correct, Change: change, Standing: standing}, nil
}

// updateStanding runs the per-(user,question) state machine:
//
//	Absent      --incorrect--> Standing(1)
//	Standing(n) --incorrect--> Standing(n+1)
//	Standing(n) --correct-->   Absent
//	Absent      --correct-->   Absent
func (s *Service) updateStanding(ctx context.Context, userID string, q question.Question, selected []string, verdict question.Verdict, now time.Time) (StandingChange, *Standing, error) {
	cur, err := s.store.GetStanding(ctx, userID, q.ID)
	switch {
	case err == nil && verdict.Correct:
		if err := s.store.DeleteStanding(ctx, userID, q.ID); err != nil && err != ErrNoStanding {
			return StandingUnchanged, nil, err
		}
		s.logEvent(ctx, "StandingCleared", userID+"|"+q.ID, cur)
		return StandingDeleted, nil, nil

	case err == nil:
		cur.Selected = selected
		cur.Canonical = verdict.Key.Labels
		cur.ErrorCount++
		cur.LastErrorAt = now.Unix()
		if err := s.store.PutStanding(ctx, cur); err != nil {
			return StandingUnchanged, nil, err
		}
		cur.Version++
		if cur.ErrorCount == AttentionThreshold {
			s.logEvent(ctx, "StandingEscalated", userID+"|"+q.ID, cur)
		}
		return StandingIncremented, &cur, nil

	case err == ErrNoStanding && verdict.Correct:
		return StandingUnchanged, nil, nil

	case err == ErrNoStanding:
		st := Standing{
			UserID:       userID,
			QuestionID:   q.ID,
			Statement:    q.Statement,
			Alternatives: q.Alternatives,
			Selected:     selected,
			Canonical:    verdict.Key.Labels,
			ErrorCount:   1,
			LastErrorAt:  now.Unix(),
		}
		if err := s.store.PutStanding(ctx, st); err != nil {
			return StandingUnchanged, nil, err
		}
		st.Version = 1
		return StandingCreated, &st, nil

	default:
		return StandingUnchanged, nil, err
	}
}

// ListForReview is the review-queue projection: every open standing for the
// user, read fresh on each call, needs-attention first, then by error count
// descending. The sort is stable so equal records keep the store's order
// within one call.
func (s *Service) ListForReview(ctx context.Context, userID string, f Filter) ([]Standing, error) {
	list, err := s.store.ListStandings(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch f.Kind {
	case FilterAttention:
		kept := list[:0]
		for _, st := range list {
			if st.NeedsAttention() {
				kept = append(kept, st)
			}
		}
		list = kept
	case FilterRecent:
		days := f.Days
		if days <= 0 {
			days = 7
		}
		cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
		kept := list[:0]
		for _, st := range list {
			if st.LastErrorAt >= cutoff {
				kept = append(kept, st)
			}
		}
		list = kept
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.NeedsAttention() != b.NeedsAttention() {
			return a.NeedsAttention()
		}
		return a.ErrorCount > b.ErrorCount
	})
	return list, nil
}

// Counts returns the dashboard aggregates for a user.
func (s *Service) Counts(ctx context.Context, userID string) (AttemptCounts, error) {
	return s.store.CountAttempts(ctx, userID)
}

// History lists attempts, newest first.
func (s *Service) History(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	return s.store.ListAttempts(ctx, opts)
}

func (s *Service) logEvent(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	// Audit is best effort; a full event log must not block scoring.
	_ = s.events.Append(ctx, syncx.Event{Type: typ, Key: key, Data: payload})
}

func attemptID(questionID string, t time.Time) string {
	return fmt.Sprintf("%s_%d", questionID, t.UnixNano())
}
