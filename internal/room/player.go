package room

// Player is the record a peer writes about itself into the room's
// players map. The local peer owns and writes its own record; all peers
// read all records. Leaving flips Active to false, the record itself is
// never removed.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	JoinedAt int64  `json:"joinedAt"` // unix milliseconds
}
