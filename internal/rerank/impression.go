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

const defaultExponent = 0.5

// ImpressionConfig configures an ImpressionReranker. W1 and W2 must be
// in (0,1]; the exponents default to 0.5 when zero (spec §4.8).
type ImpressionConfig struct {
	W1                 float64
	W2                 float64
	ImpressionExponent float64
	LastSeenExponent   float64
}

// ImpressionReranker attenuates scores using rank as a stand-in for
// impression-count and time-since-last-impression (spec §4.8). A
// production deployment should source those two signals from an
// impression store instead of approximating them from rank.
type ImpressionReranker struct {
	w1, w2                       float64
	impressionExp, lastSeenExp   float64
}

// NewImpression validates cfg and returns an ImpressionReranker.
func NewImpression(cfg ImpressionConfig) (*ImpressionReranker, error) {
	if cfg.W1 <= 0 || cfg.W1 > 1 {
		return nil, fmt.Errorf("%w: w1 must be in (0,1], got %v", recomerr.ErrInvalidConfig, cfg.W1)
	}
	if cfg.W2 <= 0 || cfg.W2 > 1 {
		return nil, fmt.Errorf("%w: w2 must be in (0,1], got %v", recomerr.ErrInvalidConfig, cfg.W2)
	}
	impExp := cfg.ImpressionExponent
	if impExp == 0 {
		impExp = defaultExponent
	}
	lastSeenExp := cfg.LastSeenExponent
	if lastSeenExp == 0 {
		lastSeenExp = defaultExponent
	}
	return &ImpressionReranker{
		w1:            cfg.W1,
		w2:            cfg.W2,
		impressionExp: impExp,
		lastSeenExp:   lastSeenExp,
	}, nil
}

// Rerank implements spec §4.8.
func (r *ImpressionReranker) Rerank(_ context.Context, _ string, _ *rand.Rand, recs []engine.Recommendation) ([]engine.Recommendation, error) {
	if len(recs) == 0 {
		return []engine.Recommendation{}, nil
	}

	out := cloneRecs(recs)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	type discounted struct {
		rec engine.Recommendation
		d   float64
	}
	ds := make([]discounted, len(out))
	for i, rec := range out {
		rank := float64(i + 1)
		d := rec.Score * (r.w1/math.Pow(rank+1, r.impressionExp) + r.w2/math.Pow(rank+1, r.lastSeenExp))
		ds[i] = discounted{rec: rec, d: d}
	}

	sort.SliceStable(ds, func(i, j int) bool { return ds[i].d < ds[j].d })

	result := make([]engine.Recommendation, len(ds))
	for i, d := range ds {
		result[i] = d.rec
	}
	return result, nil
}

var _ Reranker = (*ImpressionReranker)(nil)
