package rerank

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/recomlite/recomlite-server/internal/engine"
	"github.com/recomlite/recomlite-server/internal/recomerr"
)

// EpsilonConfig configures an EpsilonReranker. Epsilon must be >= 1.0
// (spec §4.7).
type EpsilonConfig struct {
	Epsilon float64
}

// EpsilonReranker implements randomized rank-perturbation dithering
// (spec §4.7), after Dunning & Friedman's "Practical Recommendations"
// epsilon-greedy exploration.
type EpsilonReranker struct {
	sigma float64
}

// NewEpsilon validates cfg and returns an EpsilonReranker.
func NewEpsilon(cfg EpsilonConfig) (*EpsilonReranker, error) {
	if cfg.Epsilon < 1.0 {
		return nil, fmt.Errorf("%w: epsilon must be >= 1.0, got %v", recomerr.ErrInvalidConfig, cfg.Epsilon)
	}
	sigma := 1e-10
	if cfg.Epsilon > 1.0 {
		sigma = math.Sqrt(math.Log(cfg.Epsilon))
	}
	return &EpsilonReranker{sigma: sigma}, nil
}

// Rerank implements spec §4.7 steps 1-3. A nil rng adds no noise, so
// the list comes back in descending score order.
func (r *EpsilonReranker) Rerank(_ context.Context, _ string, rng *rand.Rand, recs []engine.Recommendation) ([]engine.Recommendation, error) {
	if len(recs) == 0 {
		return []engine.Recommendation{}, nil
	}

	out := cloneRecs(recs)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	type dithered struct {
		rec    engine.Recommendation
		dither float64
	}
	ds := make([]dithered, len(out))
	for i, rec := range out {
		rank := i + 1
		noise := 0.0
		if rng != nil {
			noise = r.sigma * standardNormal(rng)
		}
		ds[i] = dithered{rec: rec, dither: math.Log(float64(rank)) + noise}
	}

	sort.SliceStable(ds, func(i, j int) bool { return ds[i].dither < ds[j].dither })

	result := make([]engine.Recommendation, len(ds))
	for i, d := range ds {
		result[i] = d.rec
	}
	return result, nil
}

// standardNormal draws one N(0,1) sample via the Box-Muller transform,
// rejecting u1 <= 0.0001 as spec §4.7 prescribes to avoid log(0).
func standardNormal(rng *rand.Rand) float64 {
	var u1 float64
	for {
		u1 = rng.Float64()
		if u1 > 0.0001 {
			break
		}
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

var _ Reranker = (*EpsilonReranker)(nil)
