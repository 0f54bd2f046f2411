// Package dedupe tracks idempotency keys for retried score submissions.
package dedupe

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxKeys bounds how many keys are remembered.
const DefaultMaxKeys = 4096

// Deduper remembers keys so a retried request applies at most once.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// when it was not. Blank keys are never recorded.
	SeenAndRecord(ctx context.Context, key string) bool
	// Unrecord forgets key so a request that did not apply can be retried.
	Unrecord(ctx context.Context, key string)
	// Size returns the number of remembered keys.
	Size() int
}

// KeyedDeduper is a bounded Deduper. Lookups do not refresh a key, so the
// oldest recorded key is evicted first.
type KeyedDeduper struct {
	keys    *lru.Cache[string, struct{}]
	maxKeys int
}

var _ Deduper = (*KeyedDeduper)(nil)

// New creates a deduper. A non-positive max size falls back to DefaultMaxKeys.
func New(opts ...Option) *KeyedDeduper {
	d := &KeyedDeduper{maxKeys: DefaultMaxKeys}
	for _, opt := range opts {
		opt(d)
	}
	keys, err := lru.New[string, struct{}](d.maxKeys)
	if err != nil {
		// only reachable with a non-positive size, which options reject
		panic(err)
	}
	d.keys = keys
	return d
}

// Scope joins parts into one key so the same client key used against two
// players does not collide.
func Scope(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// SeenAndRecord implements Deduper.
func (d *KeyedDeduper) SeenAndRecord(_ context.Context, key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	seen, _ := d.keys.ContainsOrAdd(key, struct{}{})
	return seen
}

// Unrecord implements Deduper.
func (d *KeyedDeduper) Unrecord(_ context.Context, key string) {
	d.keys.Remove(key)
}

// Size implements Deduper.
func (d *KeyedDeduper) Size() int {
	return d.keys.Len()
}
