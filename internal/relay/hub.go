// Package relay implements the rendezvous server: a last-write-wins
// key/value hub with live fanout, served to peers over websockets. The
// relay knows nothing about rooms or game rules; it stores the latest
// value per key and forwards writes to subscribers.
package relay

import (
	"sort"
	"strings"
	"sync"
)

// Hub holds the latest value for every key and the live subscriptions.
// Delivery functions are called with the hub lock held and must not
// block; sessions satisfy this by enqueueing onto a buffered channel.
type Hub struct {
	mu     sync.Mutex
	values map[string][]byte
	subs   map[*Subscription]struct{}
}

// Subscription is one registered key or prefix watch.
type Subscription struct {
	key     string // exact-match when non-empty
	prefix  string // prefix-match when non-empty
	deliver func(key string, data []byte)
}

func (s *Subscription) matches(key string) bool {
	if s.key != "" {
		return key == s.key
	}
	return strings.HasPrefix(key, s.prefix)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		values: make(map[string][]byte),
		subs:   make(map[*Subscription]struct{}),
	}
}

// Put stores the value and fans it out to every matching subscription.
// Later writes overwrite earlier ones; there is no merge.
func (h *Hub) Put(key string, data []byte) {
	copied := append([]byte(nil), data...)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.values[key] = copied
	for sub := range h.subs {
		if sub.matches(key) {
			sub.deliver(key, copied)
		}
	}
}

// Get returns the current value at key.
func (h *Hub) Get(key string) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	value, ok := h.values[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

// List returns the current values under prefix.
func (h *Hub) List(prefix string) map[string][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	children := make(map[string][]byte)
	for key, value := range h.values {
		if strings.HasPrefix(key, prefix) {
			children[key] = append([]byte(nil), value...)
		}
	}
	return children
}

// SubscribeKey registers a watch on one key and replays its current
// value. Replay and registration are atomic, so a subscriber never
// misses a write that lands in between.
func (h *Hub) SubscribeKey(key string, deliver func(key string, data []byte)) *Subscription {
	return h.subscribe(&Subscription{key: key, deliver: deliver})
}

// SubscribePrefix registers a watch on a prefix and replays the current
// children in sorted key order.
func (h *Hub) SubscribePrefix(prefix string, deliver func(key string, data []byte)) *Subscription {
	return h.subscribe(&Subscription{prefix: prefix, deliver: deliver})
}

func (h *Hub) subscribe(sub *Subscription) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}

	matching := make([]string, 0)
	for key := range h.values {
		if sub.matches(key) {
			matching = append(matching, key)
		}
	}
	sort.Strings(matching)
	for _, key := range matching {
		sub.deliver(key, h.values[key])
	}
	return sub
}

// Unsubscribe removes a subscription. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// Stats reports hub occupancy for the readiness probe.
func (h *Hub) Stats() (keys, subscriptions int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values), len(h.subs)
}
