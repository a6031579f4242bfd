package review

import (
	"context"

	"github.com/certdrill/certdrill/internal/question"
)

// ScrubReport summarizes one malformed-standing cleanup pass.
type ScrubReport struct {
	Checked int      `json:"checked"`
	Removed []string `json:"removed"` // question IDs
}

// ScrubStandings deletes every standing whose snapshot can no longer be
// scored: no canonical answer, no alternatives, or a canonical label that
// names no alternative. Such records come from questions that were deleted or
// edited after the standing was written; they are removed, never repaired.
// Takes an explicit user ID so it can run from an admin endpoint or a script.
func (s *Service) ScrubStandings(ctx context.Context, userID string) (ScrubReport, error) {
	list, err := s.store.ListStandings(ctx, userID)
	if err != nil {
		return ScrubReport{}, err
	}
	report := ScrubReport{Checked: len(list), Removed: []string{}}
	for _, st := range list {
		if !standingMalformed(st) {
			continue
		}
		if err := s.store.DeleteStanding(ctx, userID, st.QuestionID); err != nil && err != ErrNoStanding {
			return report, err
		}
		s.logEvent(ctx, "StandingScrubbed", userID+"|"+st.QuestionID, st)
		report.Removed = append(report.Removed, st.QuestionID)
	}
	return report, nil
}

func standingMalformed(st Standing) bool {
	if len(st.Canonical) == 0 || len(st.Alternatives) == 0 {
		return true
	}
	valid := make(map[string]struct{}, len(st.Alternatives))
	for i := range st.Alternatives {
		valid[question.LabelFor(i)] = struct{}{}
	}
	for _, l := range st.Canonical {
		if _, ok := valid[l]; !ok {
			return true
		}
	}
	return false
}

// StandingSummary is the inspection view returned by ListStandingSummaries.
type StandingSummary struct {
	QuestionID     string `json:"question_id"`
	Statement      string `json:"statement"`
	ErrorCount     int    `json:"error_count"`
	NeedsAttention bool   `json:"needs_attention"`
	Malformed      bool   `json:"malformed"`
	LastErrorAt    int64  `json:"last_error_at"`
}

// ListStandingSummaries is the debugging companion to ScrubStandings: it
// lists every standing for a user with its malformed flag, without touching
// anything.
func (s *Service) ListStandingSummaries(ctx context.Context, userID string) ([]StandingSummary, error) {
	list, err := s.store.ListStandings(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]StandingSummary, 0, len(list))
	for _, st := range list {
		out = append(out, StandingSummary{
			QuestionID:     st.QuestionID,
			Statement:      st.Statement,
			ErrorCount:     st.ErrorCount,
			NeedsAttention: st.NeedsAttention(),
			Malformed:      standingMalformed(st),
			LastErrorAt:    st.LastErrorAt,
		})
	}
	return out, nil
}
