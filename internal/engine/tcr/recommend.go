package tcr

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/recomlite/recomlite-server/internal/engine"
)

// candidate accumulates the numerator/denominator of a predicted score
// for one candidate item across all of the user's touched items (spec
// §4.5 step 6).
type candidate struct {
	numer float64
	denom float64
}

// GetRecommendations implements spec §4.5.
func (e *Engine) GetRecommendations(ctx context.Context, userID int64, limit int) ([]engine.Recommendation, error) {
	if limit <= 0 {
		limit = defaultInLoopCap
	}

	userItems, err := e.store.HGetAll(ctx, e.userItemsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("tcr: load user items: %w", err)
	}
	if len(userItems) == 0 {
		return []engine.Recommendation{}, nil
	}

	userWeights := make(map[int64]float64, len(userItems))
	for idStr, rawWeight := range userItems {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tcr: corrupt item id %q: %w", idStr, err)
		}
		weight, err := strconv.ParseFloat(rawWeight, 64)
		if err != nil {
			return nil, fmt.Errorf("tcr: corrupt weight for item %q: %w", idStr, err)
		}
		userWeights[id] = weight
	}

	candidates := make(map[int64]*candidate)

	for itemID, itemWeight := range userWeights {
		neighbors, err := e.store.ZRevRangeByScore(ctx, e.neighborKey(itemID), e.neighborCap)
		if err != nil {
			return nil, fmt.Errorf("tcr: fetch neighbors of %d: %w", itemID, err)
		}

		kept := 0
		for _, n := range neighbors {
			if kept >= e.inLoopCap {
				break
			}
			neighborID, err := strconv.ParseInt(n.Member, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("tcr: corrupt neighbor id %q: %w", n.Member, err)
			}

			// Already-bought pruning (spec §4.5 step 3, §9 item 1).
			if w, ok := userWeights[neighborID]; ok && w == e.alreadyBoughtWeight {
				continue
			}

			c, ok := candidates[neighborID]
			if !ok {
				c = &candidate{}
				candidates[neighborID] = c
			}
			c.numer += n.Score * itemWeight
			c.denom += n.Score
			kept++
		}
	}

	if len(candidates) == 0 {
		return []engine.Recommendation{}, nil
	}

	predictions := make([]engine.Recommendation, 0, len(candidates))
	for id, c := range candidates {
		if c.denom == 0 {
			continue
		}
		predictions = append(predictions, engine.Recommendation{ID: id, Score: c.numer / c.denom})
	}
	if len(predictions) == 0 {
		return []engine.Recommendation{}, nil
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].Score == predictions[j].Score {
			return predictions[i].ID < predictions[j].ID
		}
		return predictions[i].Score > predictions[j].Score
	})

	if limit < len(predictions) {
		predictions = predictions[:limit]
	}

	// Normalize over the returned window so scores sum to 1 (spec §4.5
	// step 7, invariant 4) — applied after the cap rather than before it,
	// since the invariant is stated over the list getRecommendations
	// actually hands back.
	var total float64
	for _, p := range predictions {
		total += p.Score
	}
	if total == 0 {
		return []engine.Recommendation{}, nil
	}
	for i := range predictions {
		predictions[i].Score /= total
	}

	return predictions, nil
}
