// Package cb is the concrete null implementation of the engine contract
// (spec §2, "CB engine (stub)") — the content-based engine skeleton the
// spec places out of scope beyond its four-method shape.
package cb

import (
	"context"

	"github.com/recomlite/recomlite-server/internal/engine"
)

// Engine is a no-op content-based engine. It is registered alongside the
// TCR engine so the orchestrator's fan-out has more than one member, the
// way the source always runs CB + TCR together even though CB never
// contributes a recommendation.
type Engine struct{}

// New returns a ready-to-use no-op engine; it holds no state and its
// constructor has no failure mode.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) AddUser(_ context.Context, _ int64) error { return nil }

func (e *Engine) AddItem(_ context.Context, _ int64) error { return nil }

func (e *Engine) RecordInteraction(_ context.Context, _ engine.Interaction) error { return nil }

func (e *Engine) GetRecommendations(_ context.Context, _ int64, _ int) ([]engine.Recommendation, error) {
	return nil, nil
}

var _ engine.Engine = (*Engine)(nil)
