// Package multiplayer implements the turn-authority synchronizer: one
// host peer per room simulates authoritative game state, guests submit
// timestamped intents, and everyone converges through the shared store.
package multiplayer

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"switchbomb/internal/config"
	"switchbomb/internal/game"
	"switchbomb/internal/room"
	"switchbomb/internal/store"
)

// Client is one peer's connection to a room. All mutation is serialized
// by the client mutex; store callbacks arrive on the store's dispatch
// goroutine and never hold the mutex across a store write.
type Client struct {
	store store.Store
	cfg   *config.Config
	log   *zap.Logger

	// now returns unix milliseconds; swappable for the staleness tests.
	now func() int64

	mu          sync.Mutex
	session     *room.Session
	state       *game.State
	players     map[string]room.Player
	assignments []game.Assignment
	roomStarted bool
	joinedAt    int64
	observers   []Observer
	cancels     []store.CancelFunc

	// Staleness guards: gameState records
	// must be strictly newer than the last applied, request slots must
	// be strictly newer than the last handled and inside the freshness
	// window.
	lastApplied   int64
	lastPublished int64
	lastPress     int64
	lastReset     int64
}

// NewClient creates a disconnected peer on top of a shared store.
func NewClient(st store.Store, cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		store:   st,
		cfg:     cfg,
		log:     log,
		now:     func() int64 { return time.Now().UnixMilli() },
		session: room.NewSession(),
		state:   game.NewState(),
		players: make(map[string]room.Player),
	}
}

// AddObserver registers a snapshot consumer.
func (c *Client) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// PlayerID returns the local player's id.
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.PlayerID
}

// CreateRoom generates a room code, marks this peer as host and joins.
// The creator is host by convention; nothing in the store enforces a
// single host per code.
func (c *Client) CreateRoom(playerName string) (string, error) {
	code := room.GenerateCode(c.cfg.Room.CodeLength)
	if err := c.join(code, playerName, true); err != nil {
		return "", err
	}
	return code, nil
}

// JoinRoom joins an existing room as a guest. The code is canonicalized
// to uppercase.
func (c *Client) JoinRoom(code, playerName string) error {
	return c.join(room.NormalizeCode(code), playerName, false)
}

func (c *Client) join(code, playerName string, host bool) error {
	if playerName == "" {
		return room.ErrNameRequired
	}
	if code == "" {
		return room.ErrCodeRequired
	}

	c.mu.Lock()
	if c.session.Connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.session.Code = code
	c.session.PlayerName = playerName
	c.session.IsHost = host
	c.session.Connected = true
	playerID := c.session.PlayerID
	c.mu.Unlock()

	// Room-full check before announcing ourselves. Not race-free (two
	// peers can pass it at once), but the deterministic seat cap keeps
	// overflow players benched rather than corrupting the seating.
	children, err := c.store.List(room.PlayersPrefix(code))
	if err != nil {
		c.rollbackJoin()
		return err
	}
	active := 0
	for key, data := range children {
		var p room.Player
		if jsonErr := json.Unmarshal(data, &p); jsonErr != nil {
			c.log.Warn("skipping malformed player record", zap.String("key", key), zap.Error(jsonErr))
			continue
		}
		if p.Active && p.ID != playerID {
			active++
		}
	}
	if active >= c.cfg.Room.MaxPlayers {
		c.rollbackJoin()
		return room.ErrRoomFull
	}

	// Subscriptions are registered before our own record is written, so
	// the membership replay that includes us is guaranteed to arrive.
	cancels := []store.CancelFunc{
		c.store.OnPrefix(room.PlayersPrefix(code), c.onPlayerRecord),
		c.store.On(room.GameStateKey(code), c.onGameState),
		c.store.On(room.RoomStartedKey(code), c.onRoomStarted),
	}
	if host {
		cancels = append(cancels,
			c.store.On(room.PressRequestKey(code), c.onPressRequest),
			c.store.On(room.ResetRequestKey(code), c.onResetRequest),
		)
	}

	c.mu.Lock()
	c.cancels = cancels
	c.joinedAt = c.now()
	record := room.Player{
		ID:       playerID,
		Name:     playerName,
		Active:   true,
		JoinedAt: c.joinedAt,
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := c.store.Put(room.PlayerKey(code, playerID), payload); err != nil {
		c.teardown()
		return err
	}

	c.log.Info("joined room",
		zap.String("room", code),
		zap.String("player", playerName),
		zap.Bool("host", host))
	c.notify(snapshot)
	return nil
}

func (c *Client) rollbackJoin() {
	c.mu.Lock()
	c.session.Disconnect()
	c.mu.Unlock()
}

// Leave soft-deactivates the local player record and tears down the
// room subscriptions. Best effort: a killed process never gets here and
// simply stays active in the store.
func (c *Client) Leave() {
	c.mu.Lock()
	if !c.session.Connected {
		c.mu.Unlock()
		return
	}
	code := c.session.Code
	record := room.Player{
		ID:       c.session.PlayerID,
		Name:     c.session.PlayerName,
		Active:   false,
		JoinedAt: c.joinedAt,
	}
	c.mu.Unlock()

	if payload, err := json.Marshal(record); err == nil {
		if err := c.store.Put(room.PlayerKey(code, record.ID), payload); err != nil {
			c.log.Warn("deactivating player record failed", zap.Error(err))
		}
	}
	c.teardown()
}

func (c *Client) teardown() {
	c.mu.Lock()
	cancels := c.cancels
	c.cancels = nil
	c.session.Disconnect()
	c.players = make(map[string]room.Player)
	c.assignments = nil
	c.roomStarted = false
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	c.notify(snapshot)
}

// Snapshot returns the current view of the room and game.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() Snapshot {
	active := make([]room.Player, 0, len(c.players))
	for _, p := range c.players {
		if p.Active {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].JoinedAt != active[j].JoinedAt {
			return active[i].JoinedAt < active[j].JoinedAt
		}
		return active[i].ID < active[j].ID
	})

	return Snapshot{
		RoomCode:    c.session.Code,
		Connected:   c.session.Connected,
		IsHost:      c.session.IsHost,
		RoomStarted: c.roomStarted,
		Character:   c.session.Character,
		Players:     active,
		Assignments: append([]game.Assignment(nil), c.assignments...),
		Game:        c.state.Clone(),
	}
}

func (c *Client) notify(snapshot Snapshot) {
	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, o := range observers {
		o.RoomChanged(snapshot)
	}
}

// onPlayerRecord handles membership notifications. The whole assignment
// mapping is rebuilt from scratch every time; all peers converge on the
// same seating without agreeing on why it changed.
func (c *Client) onPlayerRecord(key string, data []byte) {
	var p room.Player
	if err := json.Unmarshal(data, &p); err != nil {
		c.log.Warn("malformed player record", zap.String("key", key), zap.Error(err))
		return
	}
	if p.ID == "" {
		return
	}

	c.mu.Lock()
	if !c.session.Connected {
		c.mu.Unlock()
		return
	}
	c.players[p.ID] = p

	participants := make([]game.Participant, 0, len(c.players))
	for _, member := range c.players {
		participants = append(participants, game.Participant{
			ID:       member.ID,
			Name:     member.Name,
			Active:   member.Active,
			JoinedAt: member.JoinedAt,
		})
	}
	c.assignments = game.AssignCharacters(participants)

	if character, ok := game.CharacterFor(c.assignments, c.session.PlayerID); ok {
		c.session.Character = character.Name
	} else {
		c.session.Character = ""
	}

	if order := game.TurnOrder(c.assignments); len(order) > 0 {
		c.state.Players = order
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// onRoomStarted handles the host-authored waiting-room gate.
func (c *Client) onRoomStarted(key string, data []byte) {
	var started bool
	if err := json.Unmarshal(data, &started); err != nil {
		c.log.Warn("malformed roomStarted flag", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.session.Connected || c.roomStarted == started {
		c.mu.Unlock()
		return
	}
	c.roomStarted = started
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// onGameState applies an authoritative snapshot from the host. The
// host ignores the echo of its own writes; guests apply verbatim,
// gated on strictly newer timestamps.
func (c *Client) onGameState(key string, data []byte) {
	c.mu.Lock()
	if !c.session.Connected || c.session.IsHost {
		c.mu.Unlock()
		return
	}

	var incoming game.State
	if err := json.Unmarshal(data, &incoming); err != nil {
		// Keep the previous local state rather than propagating a fault.
		c.mu.Unlock()
		c.log.Warn("malformed game state record", zap.Error(err))
		return
	}
	if incoming.Timestamp <= c.lastApplied {
		c.mu.Unlock()
		return
	}
	c.lastApplied = incoming.Timestamp
	*c.state = incoming
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}
