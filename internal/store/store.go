// Package store defines the eventually-consistent key-value contract the
// multiplayer layer runs on: whole-value writes that propagate to all
// current and future subscribers of a key, last-write-wins per key.
package store

import "errors"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Handler receives a value notification for a key. Handlers run on the
// store's dispatch goroutine; they may call Put but must not block on
// Once or List.
type Handler func(key string, data []byte)

// CancelFunc tears down a subscription.
type CancelFunc func()

// Store is the shared namespace peers converge through. Keys are
// "/"-separated paths; values are opaque whole-record payloads.
type Store interface {
	// Put replaces the value at key and propagates it to subscribers.
	Put(key string, data []byte) error

	// Once returns the current value at key, nil when unset.
	Once(key string) ([]byte, error)

	// List returns the current children under prefix, keyed by full path.
	List(prefix string) (map[string][]byte, error)

	// On subscribes to key. The current value, if any, is replayed to the
	// handler; the subscription is registered by the time On returns.
	On(key string, fn Handler) CancelFunc

	// OnPrefix subscribes to every child of prefix, with replay of all
	// current children.
	OnPrefix(prefix string, fn Handler) CancelFunc

	Close() error
}

func normalizePrefix(prefix string) string {
	if prefix == "" || prefix[len(prefix)-1] == '/' {
		return prefix
	}
	return prefix + "/"
}
