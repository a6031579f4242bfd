package review

import "fmt"

// AttentionThreshold is the error count at which a standing is promoted to
// "needs attention" in the review queue. Fixed policy, named for tests.
const AttentionThreshold = 3

// Origin distinguishes where a submission came from. It feeds analytics only
// and never changes scoring.
type Origin string

const (
	OriginPractice Origin = "practice"
	OriginReview   Origin = "review"
)

// Attempt is one immutable row of a user's answer history. Attempts are only
// ever appended: aggregate counts and the chronological listing depend on
// every submission being preserved, duplicates included.
type Attempt struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	QuestionID string   `json:"question_id"`
	Selected   []string `json:"selected"`
	Canonical  []string `json:"canonical"` // answer-key snapshot at answer time
	Correct    bool     `json:"correct"`
	AnsweredAt int64    `json:"answered_at"`
	Origin     Origin   `json:"origin"`
	Migrated   bool     `json:"migrated,omitempty"`
}

// IsRevision reports whether the attempt came from the review queue rather
// than first-pass practice.
func (a Attempt) IsRevision() bool { return a.Origin == OriginReview }

// Standing is the single open review record for one (user, question) pair.
// It exists if and only if the user's most recent submission for the question
// was incorrect; a correct resubmission deletes it outright. The statement
// and alternatives are snapshotted so the review screen renders without a
// second question fetch (and so cleanup can spot orphaned records after a
// question is deleted or mangled).
type Standing struct {
	UserID       string   `json:"user_id"`
	QuestionID   string   `json:"question_id"`
	Statement    string   `json:"statement"`
	Alternatives []string `json:"alternatives"`
	Selected     []string `json:"selected"`
	Canonical    []string `json:"canonical"`
	ErrorCount   int      `json:"error_count"`
	LastErrorAt  int64    `json:"last_error_at"`

	// Version guards the read-modify-write cycle: a write carrying a stale
	// version is rejected with ErrStaleStanding instead of silently winning.
	Version int64 `json:"-"`
}

func (s Standing) NeedsAttention() bool { return s.ErrorCount >= AttentionThreshold }

// StandingChange describes what a submission did to the standing record.
type StandingChange int

const (
	StandingUnchanged StandingChange = iota
	StandingCreated
	StandingIncremented
	StandingDeleted
)

func (c StandingChange) String() string {
	switch c {
	case StandingCreated:
		return "created"
	case StandingIncremented:
		return "incremented"
	case StandingDeleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

func (c StandingChange) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// FilterKind selects which standings the review queue returns.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterAttention
	FilterRecent
)

// Filter narrows the review queue. Days only applies to FilterRecent; the
// window is inclusive of exactly Days*24h before the call.
type Filter struct {
	Kind FilterKind
	Days int
}

// AttemptCounts are the dashboard aggregates over a user's full history.
type AttemptCounts struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

type AttemptListOpts struct {
	UserID     string
	QuestionID string
	Limit      int
	Offset     int
}
