// Package interner implements the atomic bidirectional token↔id map
// shared by every engine (spec §3, §4.2). Tokens here are always the
// opaque external identifiers recomlite deals in — user and item
// tokens — so the type tag defaults to TypeString; the enum is kept to
// preserve the source's general token classification for callers that
// want to record something else.
package interner

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/recomerr"
	"github.com/recomlite/recomlite-server/internal/store"
)

// TypeTag mirrors the source's nil/boolean/number/string/userdata/
// function/thread/table-like type codes (spec §3, `th` hash).
type TypeTag int

const (
	TypeNil TypeTag = iota + 1
	TypeBoolean
	TypeNumber
	TypeString
	TypeUserdata
	TypeFunction
	TypeThread
	TypeTable
)

func (t TypeTag) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeUserdata:
		return "userdata"
	case TypeFunction:
		return "function"
	case TypeThread:
		return "thread"
	case TypeTable:
		return "table"
	default:
		return "unknown"
	}
}

// Config configures an Interner. Prefix and Store are required; Logger
// defaults to a disabled logger when zero-valued. Lock is optional — set
// it to close the idOf race described in spec §5 by serializing the
// read-then-allocate-then-write sequence per token.
type Config struct {
	Prefix string
	Logger zerolog.Logger
	Store  store.Store

	// Lock, if set, is used to make IdOf's allocate path atomic across
	// concurrent callers sharing Prefix (spec §5's "implementations that
	// require strict uniqueness must wrap the sequence in a store-side
	// transaction").
	Lock    *redislock.Client
	LockTTL time.Duration
}

// Interner is the struct-plus-methods rendering of the source's
// prototype-table interner object (spec §9).
type Interner struct {
	prefix  string
	logger  zerolog.Logger
	store   store.Store
	lock    *redislock.Client
	lockTTL time.Duration
}

// New validates cfg and returns an Interner, or recomerr.ErrInvalidConfig.
func New(cfg Config) (*Interner, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("%w: interner prefix is required", recomerr.ErrInvalidConfig)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: interner store is required", recomerr.ErrInvalidConfig)
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Second
	}
	return &Interner{
		prefix:  cfg.Prefix,
		logger:  cfg.Logger.With().Str("component", "interner").Str("prefix", cfg.Prefix).Logger(),
		store:   cfg.Store,
		lock:    cfg.Lock,
		lockTTL: lockTTL,
	}, nil
}

func (in *Interner) idKey() string { return in.prefix + ":id" }
func (in *Interner) fhKey() string { return in.prefix + ":fh" }
func (in *Interner) rhKey() string { return in.prefix + ":rh" }
func (in *Interner) thKey() string { return in.prefix + ":th" }

// Count returns the number of interned tokens.
func (in *Interner) Count(ctx context.Context) (int64, error) {
	return in.store.HLen(ctx, in.fhKey())
}

// Clear drops all four interner keys, atomically from the caller's
// point of view (spec §3 lifecycle).
func (in *Interner) Clear(ctx context.Context) error {
	return in.store.Del(ctx, in.idKey(), in.fhKey(), in.rhKey(), in.thKey())
}

// IdOf returns token's id, interning it first if shouldIntern is true
// and it has not been seen before. typeTag defaults to TypeString when
// zero. Returns (0, false, nil) when the token is unknown and
// shouldIntern is false — Absent, not an error (spec §4.2).
func (in *Interner) IdOf(ctx context.Context, token string, typeTag TypeTag, shouldIntern bool) (int64, bool, error) {
	if in.lock != nil && shouldIntern {
		return in.idOfLocked(ctx, token, typeTag)
	}
	return in.idOf(ctx, token, typeTag, shouldIntern)
}

func (in *Interner) idOf(ctx context.Context, token string, typeTag TypeTag, shouldIntern bool) (int64, bool, error) {
	existing, ok, err := in.store.HGet(ctx, in.fhKey(), token)
	if err != nil {
		return 0, false, err
	}
	if ok {
		id, err := strconv.ParseInt(existing, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("interner: corrupt id for token %q: %w", token, err)
		}
		return id, true, nil
	}
	if !shouldIntern {
		return 0, false, nil
	}
	return in.allocate(ctx, token, typeTag)
}

// idOfLocked wraps the read-then-allocate sequence in a distributed
// lock keyed on the token, closing the narrow race spec §5 calls out:
// two callers allocating ids for the same token concurrently.
func (in *Interner) idOfLocked(ctx context.Context, token string, typeTag TypeTag) (int64, bool, error) {
	lockKey := in.prefix + ":lock:" + token
	lock, err := in.lock.Obtain(ctx, lockKey, in.lockTTL, nil)
	if err != nil {
		return 0, false, fmt.Errorf("interner: obtain lock for %q: %w", token, err)
	}
	defer lock.Release(ctx)

	return in.idOf(ctx, token, typeTag, true)
}

func (in *Interner) allocate(ctx context.Context, token string, typeTag TypeTag) (int64, bool, error) {
	if typeTag == 0 {
		typeTag = TypeString
	}
	id, err := in.store.IncrBy(ctx, in.idKey(), 1)
	if err != nil {
		return 0, false, err
	}
	idStr := strconv.FormatInt(id, 10)

	if err := in.store.HSet(ctx, in.fhKey(), token, idStr); err != nil {
		return 0, false, err
	}
	if err := in.store.HSet(ctx, in.rhKey(), idStr, token); err != nil {
		return 0, false, err
	}
	if err := in.store.HSet(ctx, in.thKey(), idStr, strconv.Itoa(int(typeTag))); err != nil {
		return 0, false, err
	}

	in.logger.Debug().Str("token", token).Int64("id", id).Msg("interned new token")
	return id, true, nil
}

// ValueOf returns the token for id, or ("", false) if id is unknown.
func (in *Interner) ValueOf(ctx context.Context, id int64) (string, bool, error) {
	return in.store.HGet(ctx, in.rhKey(), strconv.FormatInt(id, 10))
}

// TypeOf returns the type tag recorded for id, or (0, false) if unknown.
func (in *Interner) TypeOf(ctx context.Context, id int64) (TypeTag, bool, error) {
	v, ok, err := in.store.HGet(ctx, in.thKey(), strconv.FormatInt(id, 10))
	if err != nil || !ok {
		return 0, ok, err
	}
	code, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("interner: corrupt type tag for id %d: %w", id, err)
	}
	return TypeTag(code), true, nil
}

// Delete removes token's three hash entries. The id counter is never
// decremented and the freed id is never reused (spec invariant 3).
func (in *Interner) Delete(ctx context.Context, token string) (bool, error) {
	existing, ok, err := in.store.HGet(ctx, in.fhKey(), token)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := in.store.HDel(ctx, in.fhKey(), token); err != nil {
		return false, err
	}
	if err := in.store.HDel(ctx, in.rhKey(), existing); err != nil {
		return false, err
	}
	if err := in.store.HDel(ctx, in.thKey(), existing); err != nil {
		return false, err
	}
	return true, nil
}
