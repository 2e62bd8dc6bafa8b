// Package store is the typed facade over the external key/value store's
// hash and sorted-set commands (spec §4.1, §6). Every engine and the
// interner depend only on this interface, never on a concrete client, so
// they can be exercised against Memory in tests.
package store

import "context"

// ScoredMember is one entry of a sorted-set range reply.
type ScoredMember struct {
	Member string
	Score  float64
}

// Store is the command surface the core needs. Every method is assumed
// atomic per call (spec §5); no method here issues a multi-key
// transaction.
type Store interface {
	// HGet returns the field's value and true, or ("", false) if the
	// field or key is absent. The source treats both nil and false as
	// absent (spec §6); this return shape is that sentinel made explicit.
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error
	HLen(ctx context.Context, key string) (int64, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// HMGet returns each requested field's value and a parallel
	// found-flag slice, the same (value, bool) sentinel HGet uses, one
	// pair per field in request order. Kept for parity with spec §6's
	// command list; no implemented path calls it yet (see ZUnionStore).
	HMGet(ctx context.Context, key string, fields ...string) ([]string, []bool, error)

	// Del removes whole keys (used by Clear).
	Del(ctx context.Context, keys ...string) error

	// IncrBy atomically increments a plain integer key and returns the
	// new value. Used for the interner's id counter.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// ZAdd sets member's score unconditionally, replacing any prior
	// score (used to (re)write similarity entries).
	ZAdd(ctx context.Context, key, member string, score float64) error

	// ZIncrBy adds delta to member's current score (creating it at
	// delta if absent) and returns the new score.
	ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error)

	ZScore(ctx context.Context, key, member string) (float64, bool, error)

	// ZRevRangeByScore returns up to limit members in descending score
	// order (spec: zrevrangebyscore(key, +inf, -inf, limit=N, withscores)).
	ZRevRangeByScore(ctx context.Context, key string, limit int64) ([]ScoredMember, error)

	// ZUnionStore computes the weighted union of keys into dest. Kept
	// for parity with spec §4.1's command list; the "fast" recommendation
	// path that would exercise it is not ported (spec §9 item 3).
	ZUnionStore(ctx context.Context, dest string, keys []string, weights []float64) error
}
