package interner_test

import (
	"context"
	"testing"

	"github.com/recomlite/recomlite-server/internal/interner"
	"github.com/recomlite/recomlite-server/internal/store"
)

func newTestInterner(t *testing.T) *interner.Interner {
	t.Helper()
	in, err := interner.New(interner.Config{
		Prefix: "P",
		Store:  store.NewMemory(),
	})
	if err != nil {
		t.Fatalf("interner.New: %v", err)
	}
	return in
}

func TestInvalidConfig(t *testing.T) {
	if _, err := interner.New(interner.Config{}); err == nil {
		t.Fatal("expected error for empty config")
	}
	if _, err := interner.New(interner.Config{Prefix: "P"}); err == nil {
		t.Fatal("expected error for missing store")
	}
}

// S7 — Interner monotonicity.
func TestInternMonotonicity(t *testing.T) {
	ctx := context.Background()
	in := newTestInterner(t)

	ids := map[string]int64{}
	for _, tok := range []string{"a", "b", "a", "c"} {
		id, ok, err := in.IdOf(ctx, tok, interner.TypeString, true)
		if err != nil || !ok {
			t.Fatalf("IdOf(%q): id=%d ok=%v err=%v", tok, id, ok, err)
		}
		ids[tok] = id
	}
	if ids["a"] != 1 || ids["b"] != 2 || ids["c"] != 3 {
		t.Fatalf("expected a=1 b=2 c=3, got %v", ids)
	}

	deleted, err := in.Delete(ctx, "a")
	if err != nil || !deleted {
		t.Fatalf("Delete(a): deleted=%v err=%v", deleted, err)
	}

	id, ok, err := in.IdOf(ctx, "a", interner.TypeString, true)
	if err != nil || !ok {
		t.Fatalf("re-intern a: id=%d ok=%v err=%v", id, ok, err)
	}
	if id != 4 {
		t.Fatalf("expected re-interned id 4 (ids are never reused), got %d", id)
	}
}

// Invariant 1: valueOf(idOf(T)) == T and typeOf(idOf(T)) == type(T).
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := newTestInterner(t)

	id, ok, err := in.IdOf(ctx, "user:42", interner.TypeString, true)
	if err != nil || !ok {
		t.Fatalf("IdOf: %v %v %v", id, ok, err)
	}

	token, ok, err := in.ValueOf(ctx, id)
	if err != nil || !ok || token != "user:42" {
		t.Fatalf("ValueOf(%d) = %q, %v, %v; want user:42, true, nil", id, token, ok, err)
	}

	tag, ok, err := in.TypeOf(ctx, id)
	if err != nil || !ok || tag != interner.TypeString {
		t.Fatalf("TypeOf(%d) = %v, %v, %v; want TypeString, true, nil", id, tag, ok, err)
	}
}

func TestIdOfLookupOnly(t *testing.T) {
	ctx := context.Background()
	in := newTestInterner(t)

	id, ok, err := in.IdOf(ctx, "unseen", interner.TypeString, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected Absent for unseen token, got id=%d", id)
	}
}

func TestDeleteUnknownToken(t *testing.T) {
	ctx := context.Background()
	in := newTestInterner(t)

	deleted, err := in.Delete(ctx, "never-seen")
	if err != nil || deleted {
		t.Fatalf("Delete(never-seen) = %v, %v; want false, nil", deleted, err)
	}
}

func TestCountAndClear(t *testing.T) {
	ctx := context.Background()
	in := newTestInterner(t)

	for _, tok := range []string{"a", "b", "c"} {
		if _, _, err := in.IdOf(ctx, tok, interner.TypeString, true); err != nil {
			t.Fatalf("IdOf(%q): %v", tok, err)
		}
	}
	count, err := in.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count() = %d, %v; want 3, nil", count, err)
	}

	if err := in.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	count, err = in.Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("Count() after Clear = %d, %v; want 0, nil", count, err)
	}
}
