package review

import (
	"context"
	"testing"
	"time"

	"github.com/certdrill/certdrill/internal/question"
)

func TestBackfillAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	st := NewInMemoryStore()
	svc := NewService(question.NewInMemoryStore(), st, WithClock(func() time.Time { return now }))

	putStanding(t, st, "qa", 3, now.Unix())
	putStanding(t, st, "qb", 0, now.Unix()) // pre-counter data: still one attempt

	report, err := svc.BackfillAttempts(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Standings != 2 || report.Created != 4 || report.Skipped != 0 {
		t.Fatalf("first pass: %+v", report)
	}

	hist, err := svc.History(ctx, AttemptListOpts{UserID: "u1", QuestionID: "qa"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 3 {
		t.Fatalf("qa backfill: want 3 attempts, got %d", len(hist))
	}
	for _, a := range hist {
		if a.Correct || !a.Migrated {
			t.Fatalf("backfilled attempt must be incorrect and flagged migrated: %+v", a)
		}
	}

	// Re-running is a no-op thanks to deterministic IDs.
	report, err = svc.BackfillAttempts(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 0 || report.Skipped != 4 {
		t.Fatalf("second pass: %+v", report)
	}
}
