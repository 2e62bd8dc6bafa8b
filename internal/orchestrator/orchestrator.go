// Package orchestrator implements the single entry point described in
// spec §4.9: intern tokens, fan writes/reads out over the registered
// engines, pick TCR's recommendation list, rerank it, and translate ids
// back to tokens.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/gammazero/workerpool"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/engine"
	"github.com/recomlite/recomlite-server/internal/interner"
	"github.com/recomlite/recomlite-server/internal/observability"
	"github.com/recomlite/recomlite-server/internal/recomerr"
	"github.com/recomlite/recomlite-server/internal/rerank"
)

// selectedEngine names the engine whose recommendation list the
// orchestrator returns (spec §9 item 4: the orchestrator's convention,
// the TCR engine itself is agnostic to it).
const selectedEngine = "tcr"

// TokenScore is one entry of the orchestrator's externally facing
// recommendation list — ids translated back to caller tokens.
type TokenScore struct {
	Token string
	Score float64
}

// Config wires an Orchestrator together.
type Config struct {
	Logger   zerolog.Logger
	Interner *interner.Interner

	// Engines maps a name to every registered engine; fan-out iterates
	// this set. selectedEngine's entry is the one whose recommendation
	// list is returned.
	Engines map[string]engine.Engine

	Reranker rerank.Reranker

	Metrics *observability.Metrics

	// CacheSize bounds the orchestrator-level LRU placed in front of
	// the (expensive) multi-engine GetRecommendations fan-out. Reranking
	// still runs fresh on every call — only the raw, pre-rerank engine
	// output is cached, and RecordInteraction invalidates a user's entry
	// so a fresh interaction is never served a stale list.
	CacheSize int
}

// Orchestrator is the coordinator of spec §4.9. One instance serves every
// request and keeps its recommendation cache across calls.
type Orchestrator struct {
	logger   zerolog.Logger
	interner *interner.Interner
	engines  map[string]engine.Engine
	reranker rerank.Reranker
	metrics  *observability.Metrics

	// cache is internally synchronized (hashicorp/golang-lru/v2's Cache
	// is safe for concurrent use), so no extra locking is needed here.
	cache *lru.Cache[string, []engine.Recommendation]
}

// New validates cfg and returns an Orchestrator, or recomerr.ErrInvalidConfig.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Interner == nil {
		return nil, fmt.Errorf("%w: orchestrator interner is required", recomerr.ErrInvalidConfig)
	}
	if len(cfg.Engines) == 0 {
		return nil, fmt.Errorf("%w: orchestrator needs at least one engine", recomerr.ErrInvalidConfig)
	}
	if _, ok := cfg.Engines[selectedEngine]; !ok {
		return nil, fmt.Errorf("%w: orchestrator requires a %q engine", recomerr.ErrInvalidConfig, selectedEngine)
	}
	if cfg.Reranker == nil {
		return nil, fmt.Errorf("%w: orchestrator reranker is required", recomerr.ErrInvalidConfig)
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, err := lru.New[string, []engine.Recommendation](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build recommendation cache: %w", err)
	}

	return &Orchestrator{
		logger:   cfg.Logger.With().Str("component", "orchestrator").Logger(),
		interner: cfg.Interner,
		engines:  cfg.Engines,
		reranker: cfg.Reranker,
		metrics:  cfg.Metrics,
		cache:    cache,
	}, nil
}

// fanOutWrite runs fn against every engine over a worker pool and
// returns the first error, if any. Engines are independent — a failure
// in one does not prevent the others from running, matching spec §2's
// "fans writes ... out over registered engines".
func (o *Orchestrator) fanOutWrite(fn func(name string, e engine.Engine) error) error {
	wp := workerpool.New(len(o.engines))
	var mu sync.Mutex
	var firstErr error

	for name, e := range o.engines {
		name, e := name, e
		wp.Submit(func() {
			if err := fn(name, e); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("engine %q: %w", name, err)
				}
				mu.Unlock()
			}
		})
	}
	wp.StopWait()
	return firstErr
}

// fanOutRead runs fn against every engine over a worker pool and
// returns each engine's result keyed by name.
func (o *Orchestrator) fanOutRead(fn func(e engine.Engine) ([]engine.Recommendation, error)) (map[string][]engine.Recommendation, error) {
	wp := workerpool.New(len(o.engines))
	var mu sync.Mutex
	results := make(map[string][]engine.Recommendation, len(o.engines))
	var firstErr error

	for name, e := range o.engines {
		name, e := name, e
		wp.Submit(func() {
			recs, err := fn(e)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("engine %q: %w", name, err)
				}
				return
			}
			results[name] = recs
		})
	}
	wp.StopWait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// RecordInteraction interns userToken/itemToken, fans the interaction
// out over every registered engine, and invalidates userToken's cached
// recommendation list so the next GetRecommendations call sees it.
func (o *Orchestrator) RecordInteraction(ctx context.Context, userToken, itemToken, eventType string, weight float64) error {
	userID, _, err := o.interner.IdOf(ctx, userToken, interner.TypeString, true)
	if err != nil {
		return fmt.Errorf("orchestrator: intern user: %w", err)
	}
	itemID, _, err := o.interner.IdOf(ctx, itemToken, interner.TypeString, true)
	if err != nil {
		return fmt.Errorf("orchestrator: intern item: %w", err)
	}

	in := engine.Interaction{
		UserID:    userID,
		ItemID:    itemID,
		EventType: eventType,
		Weight:    weight,
	}

	err = o.fanOutWrite(func(_ string, e engine.Engine) error {
		return e.RecordInteraction(ctx, in)
	})

	if o.metrics != nil {
		o.metrics.InteractionsTotal.WithLabelValues(eventType).Inc()
	}

	o.cache.Remove(userToken)

	if err != nil {
		return fmt.Errorf("orchestrator: record interaction: %w", err)
	}
	return nil
}

// GetRecommendations looks userToken up in the interner without interning
// it (an unknown user gets an empty list), fans the read out over every
// registered engine, selects the TCR engine's list (caching its raw
// output), reranks it with rng, and translates item ids back to
// tokens. rng may be nil; rerankers treat that as "no randomization".
func (o *Orchestrator) GetRecommendations(ctx context.Context, userToken string, limit int, rng *rand.Rand) ([]TokenScore, error) {
	if o.metrics != nil {
		timer := prometheus.NewTimer(o.metrics.RecommendLatency)
		defer timer.ObserveDuration()
	}

	userID, found, err := o.interner.IdOf(ctx, userToken, interner.TypeString, false)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: lookup user: %w", err)
	}
	if !found {
		if o.metrics != nil {
			o.metrics.RecommendationsTotal.WithLabelValues("empty").Inc()
		}
		return []TokenScore{}, nil
	}

	raw, err := o.rawRecommendations(ctx, userToken, userID, limit)
	if err != nil {
		return nil, err
	}

	reranked, err := o.reranker.Rerank(ctx, userToken, rng, raw)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: rerank: %w", err)
	}

	out := make([]TokenScore, 0, len(reranked))
	for _, rec := range reranked {
		token, found, err := o.interner.ValueOf(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: translate item %d: %w", rec.ID, err)
		}
		if !found {
			o.logger.Warn().Int64("item_id", rec.ID).Msg("recommended item has no token, skipping")
			continue
		}
		out = append(out, TokenScore{Token: token, Score: rec.Score})
	}

	result := "hit"
	if len(out) == 0 {
		result = "empty"
	}
	if o.metrics != nil {
		o.metrics.RecommendationsTotal.WithLabelValues(result).Inc()
	}

	return out, nil
}

// rawRecommendations returns the TCR engine's pre-rerank recommendation
// list for userID, serving from cache when present.
func (o *Orchestrator) rawRecommendations(ctx context.Context, userToken string, userID int64, limit int) ([]engine.Recommendation, error) {
	if cached, ok := o.cache.Get(userToken); ok {
		if o.metrics != nil {
			o.metrics.CacheHitsTotal.Inc()
		}
		return cached, nil
	}

	if o.metrics != nil {
		o.metrics.CacheMissesTotal.Inc()
	}

	results, err := o.fanOutRead(func(e engine.Engine) ([]engine.Recommendation, error) {
		return e.GetRecommendations(ctx, userID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: fan out recommendations: %w", err)
	}

	raw := results[selectedEngine]
	o.cache.Add(userToken, raw)

	return raw, nil
}
