package review

import (
	"context"
	"fmt"
)

// BackfillReport summarizes one attempt-backfill pass.
type BackfillReport struct {
	Standings int `json:"standings"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"` // already backfilled
}

// BackfillAttempts synthesizes history for data written before attempts
// existed: each open standing becomes errorCount incorrect attempts carrying
// the standing's selection. Backfilled attempts use deterministic IDs, so the
// pass is safe to re-run; rows that already exist are skipped.
func (s *Service) BackfillAttempts(ctx context.Context, userID string) (BackfillReport, error) {
	standings, err := s.store.ListStandings(ctx, userID)
	if err != nil {
		return BackfillReport{}, err
	}
	report := BackfillReport{Standings: len(standings)}
	for _, st := range standings {
		n := st.ErrorCount
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			a := Attempt{
				ID:         fmt.Sprintf("%s_migrated_%d", st.QuestionID, i),
				UserID:     userID,
				QuestionID: st.QuestionID,
				Selected:   st.Selected,
				Canonical:  st.Canonical,
				Correct:    false,
				AnsweredAt: st.LastErrorAt,
				Origin:     OriginPractice,
				Migrated:   true,
			}
			switch err := s.store.AppendAttempt(ctx, a); err {
			case nil:
				report.Created++
			case ErrDuplicateAttempt:
				report.Skipped++
			default:
				return report, err
			}
		}
	}
	return report, nil
}
