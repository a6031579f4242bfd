package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/certdrill/certdrill/internal/question"
)

func testClock() func() time.Time {
	t := time.Unix(1_700_000_000, 0)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seedQuestion(t *testing.T, qs question.Store, id string, correct ...string) question.Question {
	t.Helper()
	q := question.Question{
		ID:             id,
		Statement:      "statement " + id,
		Alternatives:   []string{"alt a", "alt b", "alt c", "alt d"},
		CorrectAnswers: correct,
	}
	if err := qs.Put(context.Background(), q); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return q
}

func newTestService(t *testing.T) (*Service, question.Store, Store) {
	t.Helper()
	qs := question.NewInMemoryStore()
	st := NewInMemoryStore()
	return NewService(qs, st, WithClock(testClock())), qs, st
}

func TestSubmitStandingLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, qs, st := newTestService(t)
	seedQuestion(t, qs, "q1", "B")

	// First wrong answer opens a standing at one error.
	res, err := svc.Submit(ctx, "u1", Submission{QuestionID: "q1", Selected: []string{"A"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Correct || res.Change != StandingCreated {
		t.Fatalf("want incorrect+created, got correct=%v change=%v", res.Correct, res.Change)
	}
	if res.Standing == nil || res.Standing.ErrorCount != 1 {
		t.Fatalf("standing after first error: %+v", res.Standing)
	}

	// Second and third wrong answers increment; the third crosses the
	// attention threshold.
	for i, want := range []int{2, 3} {
		res, err = svc.Submit(ctx, "u1", Submission{QuestionID: "q1", Selected: []string{"C"}})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if res.Change != StandingIncremented || res.Standing.ErrorCount != want {
			t.Fatalf("submit %d: change=%v count=%d", i, res.Change, res.Standing.ErrorCount)
		}
	}
	if !res.Standing.NeedsAttention() {
		t.Fatal("three errors must need attention")
	}

	// A correct answer deletes the standing outright; the error count does
	// not linger.
	res, err = svc.Submit(ctx, "u1", Submission{QuestionID: "q1", Selected: []string{"B"}, Origin: OriginReview})
	if err != nil {
		t.Fatalf("correct submit: %v", err)
	}
	if !res.Correct || res.Change != StandingDeleted || res.Standing != nil {
		t.Fatalf("want deleted, got %+v", res)
	}
	if _, err := st.GetStanding(ctx, "u1", "q1"); !errors.Is(err, ErrNoStanding) {
		t.Fatalf("standing should be gone, got %v", err)
	}

	// Correct with no standing open is a no-op on the standing side.
	res, err = svc.Submit(ctx, "u1", Submission{QuestionID: "q1", Selected: []string{"B"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Change != StandingUnchanged {
		t.Fatalf("want unchanged, got %v", res.Change)
	}

	// A later wrong answer starts over at one error, not four.
	res, err = svc.Submit(ctx, "u1", Submission{QuestionID: "q1", Selected: []string{"D"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Change != StandingCreated || res.Standing.ErrorCount != 1 {
		t.Fatalf("recovery then relapse: %+v", res)
	}
}

func TestSubmitAppendsEveryAttempt(t *testing.T) {
	ctx := context.Background()
	svc, qs, _ := newTestService(t)
	seedQuestion(t, qs, "q1", "A")

	sels := [][]string{{"B"}, {"B"}, {"A"}, {"A"}}
	for _, sel := range sels {
		if _, err := svc.Submit(ctx, "u1", Submission{QuestionID: "q1", Selected: sel}); err != nil {
			t.Fatalf("submit %v: %v", sel, err)
		}
	}

	hist, err := svc.History(ctx, AttemptListOpts{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != len(sels) {
		t.Fatalf("want %d attempts (duplicates included), got %d", len(sels), len(hist))
	}
	// newest first
	for i := 1; i < len(hist); i++ {
		if hist[i-1].AnsweredAt < hist[i].AnsweredAt {
			t.Fatal("history must be newest first")
		}
	}

	counts, err := svc.Counts(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if counts.Total != 4 || counts.Correct != 2 || counts.Wrong != 2 {
		t.Fatalf("counts: %+v", counts)
	}
}

func TestSubmitMalformedQuestionWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, qs, st := newTestService(t)
	// No answer key in any shape.
	if err := qs.Put(ctx, question.Question{ID: "bad", Alternatives: []string{"x", "y"}}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Submit(ctx, "u1", Submission{QuestionID: "bad", Selected: []string{"A"}})
	if !errors.Is(err, question.ErrMalformedQuestion) {
		t.Fatalf("want ErrMalformedQuestion, got %v", err)
	}

	if hist, _ := svc.History(ctx, AttemptListOpts{UserID: "u1"}); len(hist) != 0 {
		t.Fatalf("malformed submission must not record attempts, got %d", len(hist))
	}
	if list, _ := st.ListStandings(ctx, "u1"); len(list) != 0 {
		t.Fatalf("malformed submission must not touch standings, got %d", len(list))
	}
}

func TestSubmitUnknownQuestion(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Submit(context.Background(), "u1", Submission{QuestionID: "nope", Selected: []string{"A"}})
	if !errors.Is(err, question.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// failingAttemptStore rejects attempt appends but delegates everything else.
type failingAttemptStore struct {
	Store
}

func (f failingAttemptStore) AppendAttempt(context.Context, Attempt) error {
	return errors.New("disk full")
}

func TestAttemptFailureBlocksStanding(t *testing.T) {
	ctx := context.Background()
	qs := question.NewInMemoryStore()
	st := NewInMemoryStore()
	svc := NewService(qs, failingAttemptStore{st}, WithClock(testClock()))
	seedQuestion(t, qs, "q1", "A")

	_, err := svc.Submit(ctx, "u1", Submission{QuestionID: "q1", Selected: []string{"B"}})
	if err == nil {
		t.Fatal("want append failure")
	}
	if list, _ := st.ListStandings(ctx, "u1"); len(list) != 0 {
		t.Fatal("standing must not move when the attempt cannot be recorded")
	}
}

func TestPutStandingVersionConflict(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore()

	base := Standing{UserID: "u1", QuestionID: "q1", Canonical: []string{"A"}, ErrorCount: 1}
	if err := st.PutStanding(ctx, base); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Second insert with version 0 loses the race.
	if err := st.PutStanding(ctx, base); !errors.Is(err, ErrStaleStanding) {
		t.Fatalf("want ErrStaleStanding on duplicate insert, got %v", err)
	}

	cur, err := st.GetStanding(ctx, "u1", "q1")
	if err != nil {
		t.Fatal(err)
	}
	// A writer holding the current version wins...
	cur.ErrorCount++
	if err := st.PutStanding(ctx, cur); err != nil {
		t.Fatalf("versioned update: %v", err)
	}
	// ...and the same stale version loses afterwards.
	if err := st.PutStanding(ctx, cur); !errors.Is(err, ErrStaleStanding) {
		t.Fatalf("want ErrStaleStanding on stale update, got %v", err)
	}
}

func TestDuplicateAttemptRejected(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore()
	a := Attempt{ID: "q1_1", UserID: "u1", QuestionID: "q1"}
	if err := st.AppendAttempt(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendAttempt(ctx, a); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("want ErrDuplicateAttempt, got %v", err)
	}
	// IDs are scoped per user: the same ID for someone else is fine.
	b := a
	b.UserID = "u2"
	if err := st.AppendAttempt(ctx, b); err != nil {
		t.Fatalf("same id, different user: %v", err)
	}
}
