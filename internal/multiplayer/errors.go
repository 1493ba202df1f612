package multiplayer

import "errors"

var (
	// ErrNotConnected is returned by operations that need a joined room.
	ErrNotConnected = errors.New("not connected to a room")

	// ErrNotHost is returned when a guest calls a host-only operation.
	ErrNotHost = errors.New("only the host can do that")

	// ErrAlreadyConnected is returned when joining while already in a room.
	ErrAlreadyConnected = errors.New("already connected to a room")
)
