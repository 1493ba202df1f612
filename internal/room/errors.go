package room

import "errors"

var (
	// ErrNameRequired is returned when joining without a player name.
	ErrNameRequired = errors.New("player name is required")

	// ErrCodeRequired is returned when joining without a room code.
	ErrCodeRequired = errors.New("room code is required")

	// ErrRoomFull is returned when a room already has a full roster of
	// active players.
	ErrRoomFull = errors.New("room is full")
)
