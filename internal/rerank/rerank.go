// Package rerank implements the pluggable reranking layer (spec §4.6):
// epsilon-noise dithering and impression-based discounting, both
// operating on a scored recommendation list produced by an engine.
package rerank

import (
	"context"
	"math/rand"

	"github.com/recomlite/recomlite-server/internal/engine"
)

// Reranker permutes a scored recommendation list for a given user. It
// never errors on an empty list — it degrades to identity (spec §7).
// The RNG is owned by the caller and seeded once per invocation (spec
// §4.9's "explicit RNG handle" design note), not by package-global state.
type Reranker interface {
	Rerank(ctx context.Context, userToken string, rng *rand.Rand, recs []engine.Recommendation) ([]engine.Recommendation, error)
}

// cloneRecs returns a copy of recs so rerankers never mutate the
// engine's own slice.
func cloneRecs(recs []engine.Recommendation) []engine.Recommendation {
	out := make([]engine.Recommendation, len(recs))
	copy(out, recs)
	return out
}
