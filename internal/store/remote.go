package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RelayStore is a Store backed by a relay server over a websocket. The
// relay keeps the latest value per key and fans writes out to every
// subscribed peer; this client keeps no cache of its own.
//
// Partition recovery is the relay's problem, not ours: if the
// connection drops, subscriptions die with it and the peer is offline.
type RelayStore struct {
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex // serializes conn writes

	mu      sync.Mutex
	nextID  uint64
	subs    map[uint64]Handler
	pending map[uint64]chan Frame
	closed  bool

	done    chan struct{}
	timeout time.Duration
}

// DialRelay connects to a relay server's /ws endpoint.
func DialRelay(ctx context.Context, url string, timeout time.Duration, log *zap.Logger) (*RelayStore, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}

	s := &RelayStore{
		conn:    conn,
		log:     log,
		subs:    make(map[uint64]Handler),
		pending: make(map[uint64]chan Frame),
		done:    make(chan struct{}),
		timeout: timeout,
	}
	go s.readLoop()
	return s, nil
}

// readLoop is the dispatch goroutine: every subscription handler runs
// here, in relay delivery order.
func (s *RelayStore) readLoop() {
	defer s.shutdown()

	for {
		var frame Frame
		if err := s.conn.ReadJSON(&frame); err != nil {
			select {
			case <-s.done:
			default:
				s.log.Warn("relay connection lost", zap.Error(err))
			}
			return
		}

		switch frame.Op {
		case OpValue:
			s.mu.Lock()
			fn := s.subs[frame.Sub]
			s.mu.Unlock()
			if fn != nil {
				fn(frame.Key, frame.Data)
			}
		case OpResult:
			s.mu.Lock()
			ch := s.pending[frame.ID]
			delete(s.pending, frame.ID)
			s.mu.Unlock()
			if ch != nil {
				ch <- frame
			}
		default:
			s.log.Warn("unexpected frame from relay", zap.String("op", frame.Op))
		}
	}
}

func (s *RelayStore) shutdown() {
	s.mu.Lock()
	s.closed = true
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
	s.mu.Unlock()
}

func (s *RelayStore) write(frame Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(frame)
}

// Put sends a whole-value write to the relay.
func (s *RelayStore) Put(key string, data []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.write(Frame{Op: OpPut, Key: key, Data: data})
}

// Once reads the current value at key from the relay. Must not be
// called from a subscription handler.
func (s *RelayStore) Once(key string) ([]byte, error) {
	frame, err := s.roundTrip(Frame{Op: OpOnce, Key: key})
	if err != nil {
		return nil, err
	}
	if !frame.Exists {
		return nil, nil
	}
	return frame.Data, nil
}

// List reads the current children under prefix from the relay.
func (s *RelayStore) List(prefix string) (map[string][]byte, error) {
	frame, err := s.roundTrip(Frame{Op: OpList, Key: normalizePrefix(prefix)})
	if err != nil {
		return nil, err
	}
	children := make(map[string][]byte, len(frame.Values))
	for key, value := range frame.Values {
		children[key] = value
	}
	return children, nil
}

func (s *RelayStore) roundTrip(frame Frame) (Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Frame{}, ErrClosed
	}
	s.nextID++
	frame.ID = s.nextID
	ch := make(chan Frame, 1)
	s.pending[frame.ID] = ch
	s.mu.Unlock()

	if err := s.write(frame); err != nil {
		s.mu.Lock()
		delete(s.pending, frame.ID)
		s.mu.Unlock()
		return Frame{}, err
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return Frame{}, ErrClosed
		}
		return reply, nil
	case <-time.After(s.timeout):
		s.mu.Lock()
		delete(s.pending, frame.ID)
		s.mu.Unlock()
		return Frame{}, fmt.Errorf("relay %s %s: timed out after %s", frame.Op, frame.Key, s.timeout)
	}
}

// On subscribes to key; the relay replays the current value if set.
func (s *RelayStore) On(key string, fn Handler) CancelFunc {
	return s.subscribe(Frame{Op: OpOn, Key: key}, fn)
}

// OnPrefix subscribes to the children of prefix.
func (s *RelayStore) OnPrefix(prefix string, fn Handler) CancelFunc {
	return s.subscribe(Frame{Op: OpOnPrefix, Key: normalizePrefix(prefix)}, fn)
}

func (s *RelayStore) subscribe(frame Frame, fn Handler) CancelFunc {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.mu.Unlock()

	frame.Sub = id
	if err := s.write(frame); err != nil {
		s.log.Warn("subscribe failed", zap.String("key", frame.Key), zap.Error(err))
	}

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			s.write(Frame{Op: OpCancel, Sub: id})
		}
	}
}

func (s *RelayStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close tears down the relay connection.
func (s *RelayStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	return s.conn.Close()
}
