// Package engine defines the four-operation contract every
// recommendation engine implements (spec §4.3). The TCR engine
// (internal/engine/tcr) and the content-based stub (internal/engine/cb)
// both satisfy Engine; the orchestrator holds a set of this interface
// instead of a sum type, which is the idiomatic Go rendering of the
// source's abstract base class (spec §9).
package engine

import "context"

// Interaction is one (user, item) event fed to RecordInteraction.
// UserID and ItemID are already dense interner ids, per the shared
// convention that engines are agnostic to what their ids mean (spec §9
// item 4).
type Interaction struct {
	UserID    int64
	ItemID    int64
	EventType string
	Weight    float64
}

// Recommendation is one scored candidate in a recommendation list.
type Recommendation struct {
	ID    int64
	Score float64
}

// Engine is the capability every recommender implementation exposes.
// AddUser and AddItem are optional hooks — implementations are free to
// treat them as no-ops (spec §4.3).
type Engine interface {
	AddUser(ctx context.Context, userID int64) error
	AddItem(ctx context.Context, itemID int64) error
	RecordInteraction(ctx context.Context, in Interaction) error
	GetRecommendations(ctx context.Context, userID int64, limit int) ([]Recommendation, error)
}
