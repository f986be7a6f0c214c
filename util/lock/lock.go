// Package lock provides advisory locks keyed by string, used to serialise
// rent and return sequences per book across requests.
package lock

import (
	"context"
	"fmt"
	"slices"
)

type Locker interface {
	// Lock acquires every key, waiting until ctx is done. Keys are taken in
	// sorted order, so two callers with overlapping sets cannot deadlock.
	// The returned release func is safe to call more than once.
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// BookKey names the lock guarding one book.
func BookKey(id int64) string { return fmt.Sprintf("book:%d", id) }

// BookKeys maps ids to lock keys.
func BookKeys(ids []int64) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, BookKey(id))
	}
	return keys
}

// Noop never blocks.
type Noop struct{}

func (Noop) Lock(context.Context, ...string) (func(), error) { return func() {}, nil }

func normalize(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// acquireAll takes keys in order with take, releasing what it holds if one fails.
func acquireAll(keys []string, take func(string) (func(), error)) (func(), error) {
	held := make([]func(), 0, len(keys))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
		held = held[:0]
	}
	for _, k := range normalize(keys) {
		rel, err := take(k)
		if err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, rel)
	}
	return releaseAll, nil
}
