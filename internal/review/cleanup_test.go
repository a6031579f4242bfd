package review

import (
	"context"
	"testing"
	"time"

	"github.com/certdrill/certdrill/internal/question"
)

func TestScrubStandings(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	st := NewInMemoryStore()
	svc := NewService(question.NewInMemoryStore(), st, WithClock(func() time.Time { return now }))

	// Healthy record.
	putStanding(t, st, "ok", 2, now.Unix())
	// No canonical answer (question edited to remove its key).
	if err := st.PutStanding(ctx, Standing{
		UserID: "u1", QuestionID: "nokey",
		Alternatives: []string{"a", "b"}, ErrorCount: 1,
	}); err != nil {
		t.Fatal(err)
	}
	// No alternatives snapshot (question deleted).
	if err := st.PutStanding(ctx, Standing{
		UserID: "u1", QuestionID: "noalts",
		Canonical: []string{"A"}, ErrorCount: 1,
	}); err != nil {
		t.Fatal(err)
	}
	// Canonical label pointing past the alternatives.
	if err := st.PutStanding(ctx, Standing{
		UserID: "u1", QuestionID: "orphanlabel",
		Alternatives: []string{"a", "b"}, Canonical: []string{"C"}, ErrorCount: 1,
	}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.ScrubStandings(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Checked != 4 || len(report.Removed) != 3 {
		t.Fatalf("report: %+v", report)
	}

	left, err := st.ListStandings(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].QuestionID != "ok" {
		t.Fatalf("scrub kept the wrong rows: %v", queueIDs(left))
	}

	// Idempotent: a second pass finds nothing to remove.
	report, err = svc.ScrubStandings(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Checked != 1 || len(report.Removed) != 0 {
		t.Fatalf("second pass: %+v", report)
	}
}

func TestListStandingSummaries(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	st := NewInMemoryStore()
	svc := NewService(question.NewInMemoryStore(), st, WithClock(func() time.Time { return now }))

	putStanding(t, st, "ok", 3, now.Unix())
	if err := st.PutStanding(ctx, Standing{UserID: "u1", QuestionID: "bad", ErrorCount: 1}); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListStandingSummaries(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 summaries, got %d", len(list))
	}
	byID := map[string]StandingSummary{}
	for _, s := range list {
		byID[s.QuestionID] = s
	}
	if byID["bad"].Malformed != true || byID["ok"].Malformed != false {
		t.Fatalf("malformed flags: %+v", byID)
	}
	if !byID["ok"].NeedsAttention {
		t.Fatal("three errors must flag attention in the summary")
	}

	// Inspection must not mutate.
	if left, _ := st.ListStandings(ctx, "u1"); len(left) != 2 {
		t.Fatalf("summaries deleted rows: %d left", len(left))
	}
}
