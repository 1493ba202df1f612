package store

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStore is the single-process Store. Two clients sharing one
// MemoryStore get the full propagation semantics without a relay, which
// is how local multiplayer and the protocol tests run.
type MemoryStore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	values  map[string][]byte
	subs    map[*subscription]struct{}
	pending []func()
	closed  bool
}

type subscription struct {
	key    string
	prefix bool
	fn     Handler
}

func (s *subscription) matches(key string) bool {
	if s.prefix {
		return strings.HasPrefix(key, s.key) && len(key) > len(s.key)
	}
	return key == s.key
}

// NewMemoryStore creates an in-memory store and starts its dispatch
// goroutine. Notifications are delivered asynchronously, one at a time,
// in write order.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		values: make(map[string][]byte),
		subs:   make(map[*subscription]struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.dispatch()
	return s
}

func (s *MemoryStore) dispatch() {
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		fn()
	}
}

// enqueue appends a notification; callers must hold mu.
func (s *MemoryStore) enqueue(fn func()) {
	s.pending = append(s.pending, fn)
	s.cond.Signal()
}

// Put stores data at key and notifies matching subscribers.
func (s *MemoryStore) Put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	value := append([]byte(nil), data...)
	s.values[key] = value

	for sub := range s.subs {
		if sub.matches(key) {
			fn := sub.fn
			s.enqueue(func() { fn(key, value) })
		}
	}
	return nil
}

// Once returns the current value at key, nil when unset.
func (s *MemoryStore) Once(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	value, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

// List returns the current children under prefix.
func (s *MemoryStore) List(prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	prefix = normalizePrefix(prefix)
	children := make(map[string][]byte)
	for key, value := range s.values {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			children[key] = append([]byte(nil), value...)
		}
	}
	return children, nil
}

// On subscribes to key, replaying the current value if one exists.
func (s *MemoryStore) On(key string, fn Handler) CancelFunc {
	return s.subscribe(&subscription{key: key, fn: fn})
}

// OnPrefix subscribes to every child of prefix, replaying all current
// children in key order.
func (s *MemoryStore) OnPrefix(prefix string, fn Handler) CancelFunc {
	return s.subscribe(&subscription{key: normalizePrefix(prefix), prefix: true, fn: fn})
}

func (s *MemoryStore) subscribe(sub *subscription) CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return func() {}
	}
	s.subs[sub] = struct{}{}

	// Replay current values in deterministic order.
	var keys []string
	for key := range s.values {
		if sub.matches(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		key, value := key, s.values[key]
		s.enqueue(func() { sub.fn(key, value) })
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, sub)
	}
}

// Flush blocks until every notification queued so far has been
// delivered. Test helper.
func (s *MemoryStore) Flush() {
	done := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.enqueue(func() { close(done) })
	s.mu.Unlock()
	<-done
}

// Close stops the dispatcher after draining pending notifications.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.cond.Broadcast()
	return nil
}
