package history

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.SaveRun(ctx, Record{ID: "x"}); err == nil {
		t.Fatal("SaveRun() before Init should fail")
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"fiesta", "aspire", "neon"} {
		rec := Record{ID: name, Scenario: name, Started: base.Add(time.Duration(i) * time.Minute), Passed: true}
		if err := store.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", name, err)
		}
	}

	got, ok, err := store.GetRun(ctx, "aspire")
	if err != nil || !ok || got.Scenario != "aspire" {
		t.Errorf("GetRun(aspire) = %+v, %v, %v", got, ok, err)
	}
	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Error("GetRun(missing) should report false")
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "neon" || all[2].ID != "fiesta" {
		t.Errorf("ListRuns() order = %v", ids(all))
	}

	two, _ := store.ListRuns(ctx, 2)
	if len(two) != 2 {
		t.Errorf("ListRuns(2) = %v", ids(two))
	}

	if err := store.SaveRun(ctx, Record{}); err == nil {
		t.Error("SaveRun() without id should fail")
	}

	n, err := store.Prune(ctx, base.Add(90*time.Second))
	if err != nil || n != 2 {
		t.Errorf("Prune() = %d, %v; want 2", n, err)
	}
	left, _ := store.ListRuns(ctx, 0)
	if len(left) != 1 || left[0].ID != "neon" {
		t.Errorf("after Prune() = %v, want [neon]", ids(left))
	}
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil || store == nil {
		t.Fatalf("NewStore(memory) = %v, %v", store, err)
	}
	if _, err := NewStore("postgres", ""); err == nil {
		t.Error("NewStore(postgres) expected error")
	}
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
