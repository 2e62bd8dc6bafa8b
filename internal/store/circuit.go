package store

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/observability"
)

// CircuitBreakerConfig configures the resilience wrapper placed around a
// Store. Store calls are the only suspension points in the core (spec
// §5); when the backing store degrades, the breaker trips so callers
// fail fast instead of piling up on a slow dependency.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns sane defaults for a store sitting
// behind a network hop.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitStore wraps a Store with a circuit breaker, tripping after
// FailureThreshold consecutive failures and shedding load until Timeout
// elapses.
type CircuitStore struct {
	inner  Store
	logger zerolog.Logger
	cb     *gobreaker.CircuitBreaker[any]
}

// NewCircuitStore wraps inner with a circuit breaker built from cfg. metrics
// may be nil (e.g. in tests); OnStateChange then only logs.
func NewCircuitStore(inner Store, cfg CircuitBreakerConfig, logger zerolog.Logger, metrics *observability.Metrics) *CircuitStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("store circuit breaker state change")
			if metrics != nil {
				metrics.CircuitBreakerTrips.WithLabelValues(to.String()).Inc()
			}
		},
	}
	return &CircuitStore{
		inner:  inner,
		logger: logger.With().Str("component", "store_circuit").Logger(),
		cb:     gobreaker.NewCircuitBreaker[any](settings),
	}
}

func runBreaker[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (s *CircuitStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	type result struct {
		v  string
		ok bool
	}
	r, err := runBreaker(s.cb, func() (result, error) {
		v, ok, err := s.inner.HGet(ctx, key, field)
		return result{v, ok}, err
	})
	return r.v, r.ok, err
}

func (s *CircuitStore) HSet(ctx context.Context, key, field, value string) error {
	_, err := runBreaker(s.cb, func() (struct{}, error) {
		return struct{}{}, s.inner.HSet(ctx, key, field, value)
	})
	return err
}

func (s *CircuitStore) HDel(ctx context.Context, key string, fields ...string) error {
	_, err := runBreaker(s.cb, func() (struct{}, error) {
		return struct{}{}, s.inner.HDel(ctx, key, fields...)
	})
	return err
}

func (s *CircuitStore) HLen(ctx context.Context, key string) (int64, error) {
	return runBreaker(s.cb, func() (int64, error) {
		return s.inner.HLen(ctx, key)
	})
}

func (s *CircuitStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return runBreaker(s.cb, func() (map[string]string, error) {
		return s.inner.HGetAll(ctx, key)
	})
}

func (s *CircuitStore) HMGet(ctx context.Context, key string, fields ...string) ([]string, []bool, error) {
	type result struct {
		values []string
		found  []bool
	}
	r, err := runBreaker(s.cb, func() (result, error) {
		values, found, err := s.inner.HMGet(ctx, key, fields...)
		return result{values, found}, err
	})
	return r.values, r.found, err
}

func (s *CircuitStore) Del(ctx context.Context, keys ...string) error {
	_, err := runBreaker(s.cb, func() (struct{}, error) {
		return struct{}{}, s.inner.Del(ctx, keys...)
	})
	return err
}

func (s *CircuitStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return runBreaker(s.cb, func() (int64, error) {
		return s.inner.IncrBy(ctx, key, delta)
	})
}

func (s *CircuitStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	_, err := runBreaker(s.cb, func() (struct{}, error) {
		return struct{}{}, s.inner.ZAdd(ctx, key, member, score)
	})
	return err
}

func (s *CircuitStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	return runBreaker(s.cb, func() (float64, error) {
		return s.inner.ZIncrBy(ctx, key, member, delta)
	})
}

func (s *CircuitStore) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	type result struct {
		v  float64
		ok bool
	}
	r, err := runBreaker(s.cb, func() (result, error) {
		v, ok, err := s.inner.ZScore(ctx, key, member)
		return result{v, ok}, err
	})
	return r.v, r.ok, err
}

func (s *CircuitStore) ZRevRangeByScore(ctx context.Context, key string, limit int64) ([]ScoredMember, error) {
	return runBreaker(s.cb, func() ([]ScoredMember, error) {
		return s.inner.ZRevRangeByScore(ctx, key, limit)
	})
}

func (s *CircuitStore) ZUnionStore(ctx context.Context, dest string, keys []string, weights []float64) error {
	_, err := runBreaker(s.cb, func() (struct{}, error) {
		return struct{}{}, s.inner.ZUnionStore(ctx, dest, keys, weights)
	})
	return err
}
