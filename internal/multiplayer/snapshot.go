package multiplayer

import (
	"switchbomb/internal/game"
	"switchbomb/internal/room"
)

// Snapshot is the immutable view of everything a rendering surface can
// depend on. Views receive whole snapshots instead of tracking
// individual reactive fields.
type Snapshot struct {
	RoomCode    string
	Connected   bool
	IsHost      bool
	RoomStarted bool

	// Character is the local player's assigned character name, empty
	// when unseated or offline.
	Character string

	// Players are the active members of the room in join order.
	Players []room.Player

	Assignments []game.Assignment

	Game game.State
}

// ReadyToStart reports whether enough players are seated for the host
// to start the room.
func (s Snapshot) ReadyToStart() bool {
	return len(s.Assignments) >= 2
}

// MyTurn reports whether the local player's character is up.
func (s Snapshot) MyTurn() bool {
	return s.Character != "" && s.Game.CurrentPlayerName() == s.Character
}

// Observer is notified with a fresh snapshot after every state change.
// Callbacks run on the store's dispatch goroutine (or the caller's for
// local actions); they must not block.
type Observer interface {
	RoomChanged(Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Snapshot)

// RoomChanged implements Observer.
func (f ObserverFunc) RoomChanged(s Snapshot) { f(s) }
