// Package tcr implements the item-based collaborative filtering engine
// (spec §4.4, §4.5): the incremental TencentRec-style co-occurrence +
// cosine-style similarity maintenance protocol, and the recommendation
// scoring algorithm built on top of it.
package tcr

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/engine"
	"github.com/recomlite/recomlite-server/internal/recomerr"
	"github.com/recomlite/recomlite-server/internal/store"
)

const (
	defaultNeighborCap         = 100
	defaultInLoopCap           = 10
	defaultAlreadyBoughtWeight = 5.0
)

// Config configures the TCR engine. Prefix and Store are required.
type Config struct {
	Prefix string
	Logger zerolog.Logger
	Store  store.Store

	// NeighborCap bounds how many of an item's neighbors are fetched
	// per getRecommendations call (spec §4.5 step 2, default 100).
	NeighborCap int

	// InLoopCap bounds how many surviving neighbors of a single item
	// are kept before aggregation (spec §4.5 step 4 — distinct from the
	// final output limit).
	InLoopCap int

	// AlreadyBoughtWeight is the weight value that marks an item as
	// already bought and therefore ineligible as a recommendation (spec
	// §9 open question 1: configurable instead of hardcoded to 5).
	AlreadyBoughtWeight float64
}

// Engine is the TCR item-item collaborative filtering engine.
type Engine struct {
	prefix              string
	logger              zerolog.Logger
	store               store.Store
	neighborCap         int64
	inLoopCap           int
	alreadyBoughtWeight float64
}

// New validates cfg and returns an Engine, or recomerr.ErrInvalidConfig.
func New(cfg Config) (*Engine, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("%w: tcr prefix is required", recomerr.ErrInvalidConfig)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: tcr store is required", recomerr.ErrInvalidConfig)
	}
	neighborCap := cfg.NeighborCap
	if neighborCap <= 0 {
		neighborCap = defaultNeighborCap
	}
	inLoopCap := cfg.InLoopCap
	if inLoopCap <= 0 {
		inLoopCap = defaultInLoopCap
	}
	alreadyBought := cfg.AlreadyBoughtWeight
	if alreadyBought <= 0 {
		alreadyBought = defaultAlreadyBoughtWeight
	}
	return &Engine{
		prefix:              cfg.Prefix,
		logger:              cfg.Logger.With().Str("component", "tcr").Str("prefix", cfg.Prefix).Logger(),
		store:               cfg.Store,
		neighborCap:         int64(neighborCap),
		inLoopCap:           inLoopCap,
		alreadyBoughtWeight: alreadyBought,
	}, nil
}

func (e *Engine) itemCountKey() string       { return e.prefix + ":z:i:c" }
func (e *Engine) pairCountKey() string       { return e.prefix + ":z:i:pc" }
func (e *Engine) similarityKey() string      { return e.prefix + ":h:i:s" }
func (e *Engine) neighborKey(item int64) string {
	return e.prefix + ":z:i:" + strconv.FormatInt(item, 10) + ":s"
}
func (e *Engine) userItemsKey(user int64) string {
	return e.prefix + ":h:u:" + strconv.FormatInt(user, 10) + ":i"
}

// pairKey canonically orders the pair lexicographically over the
// stringified ids — not numerically — per spec §3 invariant 3.
func pairKey(a, b int64) string {
	as, bs := strconv.FormatInt(a, 10), strconv.FormatInt(b, 10)
	if as < bs {
		return as + ":" + bs
	}
	return bs + ":" + as
}

// AddUser is a no-op; user state is created lazily on first interaction
// (spec §3 lifecycle).
func (e *Engine) AddUser(_ context.Context, _ int64) error { return nil }

// AddItem is a no-op for the same reason.
func (e *Engine) AddItem(_ context.Context, _ int64) error { return nil }

// RecordInteraction implements the update protocol of spec §4.4.
func (e *Engine) RecordInteraction(ctx context.Context, in engine.Interaction) error {
	if in.EventType == "impression" {
		return nil
	}

	userKey := e.userItemsKey(in.UserID)
	itemIDStr := strconv.FormatInt(in.ItemID, 10)

	userItems, err := e.store.HGetAll(ctx, userKey)
	if err != nil {
		return fmt.Errorf("tcr: load user items: %w", err)
	}

	currentWeight := 0.0
	if raw, ok := userItems[itemIDStr]; ok {
		currentWeight, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("tcr: corrupt weight for user %d item %d: %w", in.UserID, in.ItemID, err)
		}
	}
	newWeight := in.Weight

	// Weight monotonicity: a weaker event never overrides a stronger one.
	if newWeight <= currentWeight {
		return nil
	}

	if err := e.store.HSet(ctx, userKey, itemIDStr, formatWeight(newWeight)); err != nil {
		return fmt.Errorf("tcr: write user weight: %w", err)
	}

	newItemCount, err := e.store.ZIncrBy(ctx, e.itemCountKey(), itemIDStr, newWeight-currentWeight)
	if err != nil {
		return fmt.Errorf("tcr: increment item count: %w", err)
	}

	for otherIDStr, rawWeight := range userItems {
		if otherIDStr == itemIDStr {
			continue
		}
		otherID, err := strconv.ParseInt(otherIDStr, 10, 64)
		if err != nil {
			return fmt.Errorf("tcr: corrupt item id %q: %w", otherIDStr, err)
		}
		otherWeight, err := strconv.ParseFloat(rawWeight, 64)
		if err != nil {
			return fmt.Errorf("tcr: corrupt weight for item %q: %w", otherIDStr, err)
		}

		if err := e.updatePairSimilarity(ctx, in.ItemID, otherID, currentWeight, newWeight, otherWeight, newItemCount); err != nil {
			return err
		}
	}

	return nil
}

// updatePairSimilarity updates the pair count (when the weight delta
// actually grows the shared min-mass) and unconditionally recomputes
// and rewrites the pair's similarity, since item_id's count has changed
// even when this particular pair's co-rating count has not (spec §4.4
// step 7).
func (e *Engine) updatePairSimilarity(ctx context.Context, itemID, otherID int64, currentWeight, newWeight, otherWeight, itemCount float64) error {
	delta := deltaCoRating(currentWeight, newWeight, otherWeight)
	key := pairKey(itemID, otherID)

	var pairCount float64
	var err error
	if delta != 0 {
		pairCount, err = e.store.ZIncrBy(ctx, e.pairCountKey(), key, delta)
		if err != nil {
			return fmt.Errorf("tcr: increment pair count: %w", err)
		}
	} else {
		var ok bool
		pairCount, ok, err = e.store.ZScore(ctx, e.pairCountKey(), key)
		if err != nil {
			return fmt.Errorf("tcr: read pair count: %w", err)
		}
		if !ok {
			pairCount = 0
		}
	}

	otherCount, ok, err := e.store.ZScore(ctx, e.itemCountKey(), strconv.FormatInt(otherID, 10))
	if err != nil {
		return fmt.Errorf("tcr: read item count: %w", err)
	}
	if !isValidCount(otherCount, ok) {
		return fmt.Errorf("%w: item %d has no count while updating pair (%d,%d)", recomerr.ErrMissingItemCount, otherID, itemID, otherID)
	}

	similarity := 0.0
	if itemCount > 0 && otherCount > 0 {
		similarity = pairCount / (math.Sqrt(itemCount) * math.Sqrt(otherCount))
	}

	if err := e.store.HSet(ctx, e.similarityKey(), key, formatWeight(similarity)); err != nil {
		return fmt.Errorf("tcr: write canonical similarity: %w", err)
	}
	if err := e.store.ZAdd(ctx, e.neighborKey(itemID), strconv.FormatInt(otherID, 10), similarity); err != nil {
		return fmt.Errorf("tcr: write neighbor index (%d -> %d): %w", itemID, otherID, err)
	}
	if err := e.store.ZAdd(ctx, e.neighborKey(otherID), strconv.FormatInt(itemID, 10), similarity); err != nil {
		return fmt.Errorf("tcr: write neighbor index (%d -> %d): %w", otherID, itemID, err)
	}
	return nil
}

// deltaCoRating implements spec §4.4 step 7's case analysis exactly.
func deltaCoRating(currentWeight, newWeight, otherWeight float64) float64 {
	switch {
	case currentWeight == 0:
		return math.Min(newWeight, otherWeight)
	case currentWeight < otherWeight:
		if newWeight < otherWeight {
			return newWeight - currentWeight
		}
		return otherWeight - currentWeight
	default:
		return 0
	}
}

// isValidCount implements the corrected guard from spec §9 open question
// 2: the source's `not is_integer(x) and x > 0` reads as always-true for
// a valid positive count, which would make the error path live for the
// good case. The intended guard — and the one implemented here — fires
// MissingItemCount only when the count is genuinely absent or invalid.
func isValidCount(count float64, found bool) bool {
	return found && count > 0
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

var _ engine.Engine = (*Engine)(nil)
