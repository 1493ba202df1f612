package room

import "github.com/google/uuid"

// Session is the process-local per-peer state: who we are, which room
// we are in and in what role. Created when the peer is constructed,
// reset on leave. Role flags are never transferred between peers; there
// is no host migration.
type Session struct {
	Code       string
	PlayerID   string
	PlayerName string
	IsHost     bool
	Connected  bool

	// Character is the locally-owned copy of "my character", refreshed
	// on every assignment recomputation. Empty when unseated.
	Character string
}

// NewSession creates a disconnected session with a fresh player ID.
func NewSession() *Session {
	return &Session{
		PlayerID: uuid.NewString(),
	}
}

// Disconnect rolls the session back to its pre-join state, keeping the
// player identity.
func (s *Session) Disconnect() {
	s.Code = ""
	s.IsHost = false
	s.Connected = false
	s.Character = ""
}
