package question

import (
	"encoding/json"
	"errors"
)

// Question is the curated study item. Alternatives are positional; position 0
// carries label "A", position 1 label "B", and so on.
//
// The canonical answer appears in exactly one of three historical shapes:
//   - correct_answers: array of labels (current; len 1 = single choice)
//   - correct_answer:  bare label string (oldest data)
//   - correct_answer:  array of labels (intermediate data)
type Question struct {
	ID           string   `json:"id"`
	Statement    string   `json:"statement"`
	Alternatives []string `json:"alternatives"`

	CorrectAnswers []string      `json:"correct_answers,omitempty"`
	CorrectAnswer  *LegacyAnswer `json:"correct_answer,omitempty"`

	Comment   string   `json:"comment,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Level     string   `json:"level,omitempty"`
	Category  string   `json:"category,omitempty"`
	CreatedAt int64    `json:"created_at,omitempty"`
}

// Redacted returns a copy safe to serve to students: all canonical-answer
// fields and the comment (which usually spells out the answer) removed.
func (q Question) Redacted() Question {
	q.CorrectAnswers = nil
	q.CorrectAnswer = nil
	q.Comment = ""
	return q
}

// MultiSelect reports whether the question expects more than one label.
// Malformed questions report false.
func (q Question) MultiSelect() bool {
	k, err := ResolveKey(q)
	return err == nil && len(k.Labels) > 1
}

// LegacyAnswer decodes the old correct_answer field, which historical data
// stored either as a bare label string or as an array of labels.
type LegacyAnswer struct {
	Labels []string
	Scalar bool // true when the stored form was a bare string
}

func (a *LegacyAnswer) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Labels = []string{s}
		a.Scalar = true
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		a.Labels = arr
		a.Scalar = false
		return nil
	}
	return errors.New("correct_answer must be a string or an array of strings")
}

func (a LegacyAnswer) MarshalJSON() ([]byte, error) {
	if a.Scalar && len(a.Labels) == 1 {
		return json.Marshal(a.Labels[0])
	}
	return json.Marshal(a.Labels)
}

// LabelFor maps an alternative position to its letter label ("A", "B", ...).
func LabelFor(i int) string {
	return string(rune('A' + i))
}
