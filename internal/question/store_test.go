package question

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreListFilters(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore()

	seed := []Question{
		{ID: "q1", Alternatives: []string{"a"}, CorrectAnswers: []string{"A"}, Category: "sql", Tags: []string{"joins"}, CreatedAt: 1},
		{ID: "q2", Alternatives: []string{"a"}, CorrectAnswers: []string{"A"}, Category: "sql", CreatedAt: 2},
		{ID: "q3", Alternatives: []string{"a"}, CorrectAnswers: []string{"A"}, Category: "tuning", Tags: []string{"joins"}, CreatedAt: 3},
	}
	for _, q := range seed {
		if err := st.Put(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	list, err := st.List(ctx, ListOpts{Category: "sql"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "q1" || list[1].ID != "q2" {
		t.Fatalf("category filter: %+v", list)
	}

	list, _ = st.List(ctx, ListOpts{Tag: "joins"})
	if len(list) != 2 {
		t.Fatalf("tag filter: want 2, got %d", len(list))
	}

	list, _ = st.List(ctx, ListOpts{Limit: 1, Offset: 1})
	if len(list) != 1 || list[0].ID != "q2" {
		t.Fatalf("pagination: %+v", list)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore()
	if err := st.Put(ctx, Question{ID: "q1", Alternatives: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, "q1"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(ctx, "q1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := st.Delete(ctx, "q1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}
