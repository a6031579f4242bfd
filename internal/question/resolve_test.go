package question

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func q4(alts int) Question {
	q := Question{ID: "q1", Statement: "pick"}
	for i := 0; i < alts; i++ {
		q.Alternatives = append(q.Alternatives, "alt "+LabelFor(i))
	}
	return q
}

func TestResolveKeyShapePriority(t *testing.T) {
	// All three shapes on one document: correct_answers wins.
	q := q4(4)
	q.CorrectAnswers = []string{"B"}
	q.CorrectAnswer = &LegacyAnswer{Labels: []string{"C"}, Scalar: true}
	k, err := ResolveKey(q)
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if !reflect.DeepEqual(k.Labels, []string{"B"}) {
		t.Fatalf("want [B], got %v", k.Labels)
	}

	// Array form of the legacy field beats the scalar interpretation.
	q = q4(4)
	q.CorrectAnswer = &LegacyAnswer{Labels: []string{"A", "C"}}
	k, err = ResolveKey(q)
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if !reflect.DeepEqual(k.Labels, []string{"A", "C"}) {
		t.Fatalf("want [A C], got %v", k.Labels)
	}

	// Oldest data: bare scalar label.
	q = q4(4)
	q.CorrectAnswer = &LegacyAnswer{Labels: []string{"D"}, Scalar: true}
	k, err = ResolveKey(q)
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if !reflect.DeepEqual(k.Labels, []string{"D"}) {
		t.Fatalf("want [D], got %v", k.Labels)
	}
}

func TestResolveKeyNormalizes(t *testing.T) {
	q := q4(4)
	q.CorrectAnswers = []string{"C", "A", "C"}
	k, err := ResolveKey(q)
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if !reflect.DeepEqual(k.Labels, []string{"A", "C"}) {
		t.Fatalf("want deduped sorted [A C], got %v", k.Labels)
	}
}

func TestResolveKeyMalformed(t *testing.T) {
	cases := map[string]Question{
		"no alternatives": {ID: "q", CorrectAnswers: []string{"A"}},
		"no answer key":   q4(3),
		"label out of range": func() Question {
			q := q4(2)
			q.CorrectAnswers = []string{"C"}
			return q
		}(),
		"empty scalar": func() Question {
			q := q4(2)
			q.CorrectAnswer = &LegacyAnswer{Labels: []string{""}, Scalar: true}
			return q
		}(),
	}
	for name, q := range cases {
		if _, err := ResolveKey(q); !errors.Is(err, ErrMalformedQuestion) {
			t.Errorf("%s: want ErrMalformedQuestion, got %v", name, err)
		}
	}
}

func TestResolveExactSetEquality(t *testing.T) {
	q := q4(4)
	q.CorrectAnswers = []string{"A", "C"}

	cases := []struct {
		name     string
		selected []string
		correct  bool
	}{
		{"exact match", []string{"A", "C"}, true},
		{"order independent", []string{"C", "A"}, true},
		{"duplicate selection", []string{"A", "A", "C"}, true},
		{"partial is wrong", []string{"A"}, false},
		{"overselection is wrong", []string{"A", "B", "C"}, false},
		{"disjoint is wrong", []string{"B", "D"}, false},
		{"empty is wrong", nil, false},
	}
	for _, tc := range cases {
		v, err := Resolve(q, tc.selected)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if v.Correct != tc.correct {
			t.Errorf("%s: want correct=%v, got %v", tc.name, tc.correct, v.Correct)
		}
	}
}

func TestResolveSingleChoice(t *testing.T) {
	q := q4(3)
	q.CorrectAnswer = &LegacyAnswer{Labels: []string{"B"}, Scalar: true}

	if v, _ := Resolve(q, []string{"B"}); !v.Correct {
		t.Fatal("single correct label should score correct")
	}
	if v, _ := Resolve(q, []string{"A", "B"}); v.Correct {
		t.Fatal("extra label must fail single-choice")
	}
}

func TestResolveIsPure(t *testing.T) {
	q := q4(4)
	q.CorrectAnswers = []string{"B", "D"}
	sel := []string{"D", "B"}
	first, err := Resolve(q, sel)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		v, err := Resolve(q, sel)
		if err != nil || v.Correct != first.Correct {
			t.Fatalf("resubmission %d changed the verdict: %v %v", i, v.Correct, err)
		}
	}
}

func TestLegacyAnswerJSON(t *testing.T) {
	var q Question
	doc := `{"id":"q1","alternatives":["x","y"],"correct_answer":"A"}`
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		t.Fatal(err)
	}
	if q.CorrectAnswer == nil || !q.CorrectAnswer.Scalar || q.CorrectAnswer.Labels[0] != "A" {
		t.Fatalf("scalar decode: %+v", q.CorrectAnswer)
	}

	doc = `{"id":"q1","alternatives":["x","y"],"correct_answer":["A","B"]}`
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		t.Fatal(err)
	}
	if q.CorrectAnswer.Scalar || len(q.CorrectAnswer.Labels) != 2 {
		t.Fatalf("array decode: %+v", q.CorrectAnswer)
	}

	// Round-trip keeps the stored shape.
	b, err := json.Marshal(LegacyAnswer{Labels: []string{"A"}, Scalar: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"A"` {
		t.Fatalf("scalar marshal: %s", b)
	}
}

func TestRedacted(t *testing.T) {
	q := q4(2)
	q.CorrectAnswers = []string{"A"}
	q.Comment = "the answer is A because..."
	r := q.Redacted()
	if r.CorrectAnswers != nil || r.CorrectAnswer != nil || r.Comment != "" {
		t.Fatalf("redaction left key material: %+v", r)
	}
	if q.CorrectAnswers == nil {
		t.Fatal("redaction must not mutate the original")
	}
}

func TestMultiSelect(t *testing.T) {
	q := q4(4)
	q.CorrectAnswers = []string{"A", "B"}
	if !q.MultiSelect() {
		t.Fatal("two canonical labels is multi-select")
	}
	q.CorrectAnswers = []string{"A"}
	if q.MultiSelect() {
		t.Fatal("one canonical label is single choice")
	}
}
