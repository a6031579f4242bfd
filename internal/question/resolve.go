package question

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedQuestion marks a question that cannot be scored: empty
// alternatives, no canonical answer in any of the three shapes, or a
// canonical label that names no alternative. Such questions are excluded
// from scoring and queued for removal, never repaired.
var ErrMalformedQuestion = errors.New("malformed question")

// Key is the normalized canonical answer, regardless of which historical
// shape stored it. Labels are deduplicated and sorted.
type Key struct {
	Labels []string
}

// Verdict is the outcome of resolving one selection against one question.
type Verdict struct {
	Correct bool
	Key     Key
}

// ResolveKey normalizes the canonical answer. Shape priority, first match
// wins: correct_answers set, then correct_answer array, then correct_answer
// scalar.
func ResolveKey(q Question) (Key, error) {
	if len(q.Alternatives) == 0 {
		return Key{}, fmt.Errorf("%w: question %s has no alternatives", ErrMalformedQuestion, q.ID)
	}

	var labels []string
	switch {
	case len(q.CorrectAnswers) > 0:
		labels = q.CorrectAnswers
	case q.CorrectAnswer != nil && !q.CorrectAnswer.Scalar && len(q.CorrectAnswer.Labels) > 0:
		labels = q.CorrectAnswer.Labels
	case q.CorrectAnswer != nil && q.CorrectAnswer.Scalar && len(q.CorrectAnswer.Labels) == 1 && q.CorrectAnswer.Labels[0] != "":
		labels = q.CorrectAnswer.Labels
	default:
		return Key{}, fmt.Errorf("%w: question %s has no canonical answer", ErrMalformedQuestion, q.ID)
	}

	valid := make(map[string]struct{}, len(q.Alternatives))
	for i := range q.Alternatives {
		valid[LabelFor(i)] = struct{}{}
	}

	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := valid[l]; !ok {
			return Key{}, fmt.Errorf("%w: question %s: label %q names no alternative", ErrMalformedQuestion, q.ID, l)
		}
		set[l] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return Key{Labels: out}, nil
}

// Resolve scores a selection against a question. Correctness is exact set
// equality: every canonical label selected and nothing else. Single-choice is
// the cardinality-1 case of the same rule; no partial credit. Resolve is pure,
// so resubmitting the same (question, selection) always yields the same
// verdict.
func Resolve(q Question, selection []string) (Verdict, error) {
	key, err := ResolveKey(q)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{
		Correct: setEqual(toSet(selection), toSet(key.Labels)),
		Key:     key,
	}, nil
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
