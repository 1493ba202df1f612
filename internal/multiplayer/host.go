package multiplayer

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"switchbomb/internal/game"
	"switchbomb/internal/room"
)

// Host side of the synchronizer: request validation, authoritative
// engine calls, and full-state broadcast.

// freshLocked reports whether a request timestamp is inside the
// freshness window and strictly newer than the last handled slot value.
// Single-slot registers persist after being handled; without this guard
// a fresh subscription replay would re-trigger them.
func (c *Client) freshLocked(ts, lastHandled int64) bool {
	if ts <= lastHandled {
		return false
	}
	return c.now()-ts < c.cfg.Room.RequestTTL.Milliseconds()
}

// onPressRequest validates and applies a guest press intent. Invalid or
// stale requests are dropped silently; the guest converges on the next
// broadcast.
func (c *Client) onPressRequest(key string, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.log.Warn("malformed press request", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.session.Connected || !c.session.IsHost {
		c.mu.Unlock()
		return
	}
	if !c.freshLocked(req.Timestamp, c.lastPress) {
		c.mu.Unlock()
		c.log.Debug("dropping stale press request",
			zap.String("from", req.From),
			zap.Int64("timestamp", req.Timestamp))
		return
	}
	c.lastPress = req.Timestamp

	// Re-check the turn server-authoritatively; the guest's own gate
	// can be stale or forged.
	character, seated := game.CharacterFor(c.assignments, req.From)
	if !seated || character.Name != c.state.CurrentPlayerName() {
		c.mu.Unlock()
		c.log.Debug("dropping out-of-turn press request",
			zap.String("from", req.From),
			zap.Int("index", req.Index))
		return
	}

	c.state.PressSwitch(req.Index)
	c.finishHostUpdate()
}

// onResetRequest validates and applies a guest reset intent.
func (c *Client) onResetRequest(key string, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.log.Warn("malformed reset request", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.session.Connected || !c.session.IsHost {
		c.mu.Unlock()
		return
	}
	if !c.freshLocked(req.Timestamp, c.lastReset) {
		c.mu.Unlock()
		c.log.Debug("dropping stale reset request", zap.String("from", req.From))
		return
	}
	c.lastReset = req.Timestamp

	c.state.Reset()
	c.finishHostUpdate()
}

// finishHostUpdate serializes the whole state with a fresh timestamp
// and broadcasts it. Called with the mutex held; releases it.
func (c *Client) finishHostUpdate() {
	key, payload := c.prepareBroadcastLocked()
	snapshot := c.snapshotLocked()
	bombHit := c.state.BombHit
	c.mu.Unlock()

	if payload != nil {
		if err := c.store.Put(key, payload); err != nil {
			c.log.Warn("broadcasting game state failed", zap.Error(err))
		}
	}
	if bombHit {
		// One-shot trigger: hold it up long enough for consumers to
		// fire their sound, then clear and rebroadcast.
		time.AfterFunc(c.cfg.Room.BombHitResetDelay, c.clearBombHit)
	}
	c.notify(snapshot)
}

// prepareBroadcastLocked stamps the state with a strictly-increasing
// timestamp and marshals it. The host pre-advances its own applied mark
// so the echo of this write is inert.
func (c *Client) prepareBroadcastLocked() (string, []byte) {
	ts := c.now()
	if ts <= c.lastPublished {
		ts = c.lastPublished + 1
	}
	c.lastPublished = ts
	c.lastApplied = ts
	c.state.Timestamp = ts

	payload, err := json.Marshal(c.state)
	if err != nil {
		c.log.Warn("marshaling game state failed", zap.Error(err))
		return "", nil
	}
	return room.GameStateKey(c.session.Code), payload
}

func (c *Client) clearBombHit() {
	c.mu.Lock()
	if !c.state.BombHit {
		c.mu.Unlock()
		return
	}
	c.state.BombHit = false

	if c.session.Connected && c.session.IsHost {
		c.finishHostUpdate()
		return
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
}
