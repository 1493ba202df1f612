package multiplayer

// Request is a guest-originated intent asking the host to act. Requests
// live in single-slot registers, overwritten on every use; the
// timestamp is what keeps old slots from re-triggering on replay.
type Request struct {
	From      string `json:"from"`
	Index     int    `json:"index"`
	Character string `json:"character,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}
