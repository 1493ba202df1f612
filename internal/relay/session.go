package relay

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"switchbomb/internal/store"
)

// session is one connected peer. The read loop applies incoming frames
// to the hub; the write loop drains the send queue. Hub deliveries
// enqueue without blocking, dropping frames when a consumer falls too
// far behind; last-write-wins means a later write repairs the gap.
type session struct {
	hub  *Hub
	conn *websocket.Conn
	log  *zap.Logger

	send chan store.Frame

	mu   sync.Mutex
	subs map[uint64]*Subscription

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(hub *Hub, conn *websocket.Conn, sendBuffer int, log *zap.Logger) *session {
	return &session{
		hub:  hub,
		conn: conn,
		log:  log,
		send: make(chan store.Frame, sendBuffer),
		subs: make(map[uint64]*Subscription),
		done: make(chan struct{}),
	}
}

// run services the connection until it drops. Blocks.
func (s *session) run(maxMessageSize int64) {
	s.conn.SetReadLimit(maxMessageSize)
	go s.writeLoop()
	s.readLoop()
	s.close()
}

func (s *session) readLoop() {
	for {
		var frame store.Frame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("peer connection lost", zap.Error(err))
			}
			return
		}
		s.handle(frame)
	}
}

func (s *session) handle(frame store.Frame) {
	switch frame.Op {
	case store.OpPut:
		s.hub.Put(frame.Key, frame.Data)

	case store.OpOn:
		s.register(frame.Sub, s.hub.SubscribeKey(frame.Key, s.deliverFunc(frame.Sub)))

	case store.OpOnPrefix:
		s.register(frame.Sub, s.hub.SubscribePrefix(frame.Key, s.deliverFunc(frame.Sub)))

	case store.OpCancel:
		s.mu.Lock()
		sub := s.subs[frame.Sub]
		delete(s.subs, frame.Sub)
		s.mu.Unlock()
		if sub != nil {
			s.hub.Unsubscribe(sub)
		}

	case store.OpOnce:
		data, exists := s.hub.Get(frame.Key)
		s.enqueue(store.Frame{Op: store.OpResult, ID: frame.ID, Key: frame.Key, Data: data, Exists: exists})

	case store.OpList:
		children := s.hub.List(frame.Key)
		values := make(map[string]json.RawMessage, len(children))
		for key, value := range children {
			values[key] = value
		}
		s.enqueue(store.Frame{Op: store.OpResult, ID: frame.ID, Key: frame.Key, Values: values})

	default:
		s.log.Warn("unknown frame op", zap.String("op", frame.Op))
	}
}

func (s *session) register(id uint64, sub *Subscription) {
	s.mu.Lock()
	previous := s.subs[id]
	s.subs[id] = sub
	s.mu.Unlock()
	if previous != nil {
		s.hub.Unsubscribe(previous)
	}
}

// deliverFunc adapts one client subscription id into a hub delivery
// callback. Runs with the hub lock held, so it only enqueues.
func (s *session) deliverFunc(id uint64) func(key string, data []byte) {
	return func(key string, data []byte) {
		s.enqueue(store.Frame{Op: store.OpValue, Sub: id, Key: key, Data: data})
	}
}

func (s *session) enqueue(frame store.Frame) {
	select {
	case s.send <- frame:
	case <-s.done:
	default:
		s.log.Warn("dropping frame for slow consumer",
			zap.String("op", frame.Op),
			zap.String("key", frame.Key))
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case frame := <-s.send:
			if err := s.conn.WriteJSON(frame); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()

		s.mu.Lock()
		subs := s.subs
		s.subs = make(map[uint64]*Subscription)
		s.mu.Unlock()
		for _, sub := range subs {
			s.hub.Unsubscribe(sub)
		}
	})
}
