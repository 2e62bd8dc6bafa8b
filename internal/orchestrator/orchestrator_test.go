package orchestrator_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/engine"
	"github.com/recomlite/recomlite-server/internal/engine/cb"
	"github.com/recomlite/recomlite-server/internal/engine/tcr"
	"github.com/recomlite/recomlite-server/internal/interner"
	"github.com/recomlite/recomlite-server/internal/orchestrator"
	"github.com/recomlite/recomlite-server/internal/rerank"
	"github.com/recomlite/recomlite-server/internal/store"
)

func newTestOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()

	mem := store.NewMemory()
	logger := zerolog.Nop()

	in, err := interner.New(interner.Config{Prefix: "orch-test", Store: mem, Logger: logger})
	if err != nil {
		t.Fatalf("interner.New: %v", err)
	}

	tcrEngine, err := tcr.New(tcr.Config{Prefix: "orch-test:tcr", Store: mem, Logger: logger})
	if err != nil {
		t.Fatalf("tcr.New: %v", err)
	}

	epsilon, err := rerank.NewEpsilon(rerank.EpsilonConfig{Epsilon: 1.0})
	if err != nil {
		t.Fatalf("rerank.NewEpsilon: %v", err)
	}

	o, err := orchestrator.New(orchestrator.Config{
		Logger:   logger,
		Interner: in,
		Engines: map[string]engine.Engine{
			"tcr": tcrEngine,
			"cb":  cb.New(),
		},
		Reranker: epsilon,
	})
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}
	return o
}

func TestUnknownUserReturnsEmpty(t *testing.T) {
	o := newTestOrchestrator(t)
	out, err := o.GetRecommendations(context.Background(), "nobody", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no recommendations for unknown user, got %+v", out)
	}
}

func TestRecordThenRecommend(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	must(t, o.RecordInteraction(ctx, "alice", "widget", "purchase", 5))
	must(t, o.RecordInteraction(ctx, "alice", "gadget", "purchase", 5))
	must(t, o.RecordInteraction(ctx, "bob", "widget", "purchase", 5))
	must(t, o.RecordInteraction(ctx, "bob", "gadget", "purchase", 5))
	must(t, o.RecordInteraction(ctx, "bob", "doohickey", "purchase", 5))

	out, err := o.GetRecommendations(ctx, "alice", 10, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}

	found := false
	for _, ts := range out {
		if ts.Token == "doohickey" {
			found = true
		}
		if ts.Token == "widget" || ts.Token == "gadget" {
			t.Fatalf("already-bought item %q should have been pruned, got %+v", ts.Token, out)
		}
	}
	if !found {
		t.Fatalf("expected doohickey to be recommended to alice, got %+v", out)
	}
}

func TestInteractionInvalidatesCache(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	must(t, o.RecordInteraction(ctx, "alice", "widget", "purchase", 5))
	must(t, o.RecordInteraction(ctx, "bob", "widget", "purchase", 5))
	must(t, o.RecordInteraction(ctx, "bob", "gadget", "purchase", 5))

	first, err := o.GetRecommendations(ctx, "alice", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if len(first) == 0 {
		t.Fatalf("expected a recommendation before the second interaction")
	}

	must(t, o.RecordInteraction(ctx, "alice", "gadget", "purchase", 5))

	second, err := o.GetRecommendations(ctx, "alice", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	for _, ts := range second {
		if ts.Token == "gadget" {
			t.Fatalf("gadget should now be pruned as already-bought, got %+v", second)
		}
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
