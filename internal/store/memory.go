package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store used to exercise the interner and
// engines without a live Redis instance — the same role the teacher's
// caching.Engine plays for the semantic cache: a real implementation of
// the contract, backed by plain maps instead of the wire protocol.
type Memory struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	sortedSets map[string]map[string]float64
	counters map[string]int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		hashes:     make(map[string]map[string]string),
		sortedSets: make(map[string]map[string]float64),
		counters:   make(map[string]int64),
	}
}

func (m *Memory) HGet(_ context.Context, key, field string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		return "", false, nil
	}
	v, ok := h[field]
	return v, ok, nil
}

func (m *Memory) HSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	h[field] = value
	return nil
}

func (m *Memory) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(h, f)
	}
	return nil
}

func (m *Memory) HLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.hashes[key])), nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) HMGet(_ context.Context, key string, fields ...string) ([]string, []bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[key]
	values := make([]string, len(fields))
	found := make([]bool, len(fields))
	for i, f := range fields {
		v, ok := h[f]
		values[i] = v
		found[i] = ok
	}
	return values, found, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.hashes, k)
		delete(m.sortedSets, k)
		delete(m.counters, k)
	}
	return nil
}

func (m *Memory) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] += delta
	return m.counters[key], nil
}

func (m *Memory) ZAdd(_ context.Context, key, member string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.sortedSets[key]
	if !ok {
		z = make(map[string]float64)
		m.sortedSets[key] = z
	}
	z[member] = score
	return nil
}

func (m *Memory) ZIncrBy(_ context.Context, key, member string, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.sortedSets[key]
	if !ok {
		z = make(map[string]float64)
		m.sortedSets[key] = z
	}
	z[member] += delta
	return z[member], nil
}

func (m *Memory) ZScore(_ context.Context, key, member string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.sortedSets[key]
	if !ok {
		return 0, false, nil
	}
	v, ok := z[member]
	return v, ok, nil
}

func (m *Memory) ZRevRangeByScore(_ context.Context, key string, limit int64) ([]ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.sortedSets[key]
	out := make([]ScoredMember, 0, len(z))
	for member, score := range z {
		out = append(out, ScoredMember{Member: member, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Member < out[j].Member
		}
		return out[i].Score > out[j].Score
	})
	if limit >= 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ZUnionStore(_ context.Context, dest string, keys []string, weights []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	union := make(map[string]float64)
	for i, key := range keys {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		for member, score := range m.sortedSets[key] {
			union[member] += score * w
		}
	}
	m.sortedSets[dest] = union
	return nil
}
