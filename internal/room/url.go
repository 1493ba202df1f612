package room

import (
	"fmt"
	"net/url"
)

// Shareable links carry the room code in the "room" query parameter.

// CodeFromURL extracts and canonicalizes the room code from a shareable
// link, or returns "" when the link carries none.
func CodeFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return NormalizeCode(u.Query().Get("room"))
}

// ShareURL builds the shareable link for a room.
func ShareURL(base, code string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	q := u.Query()
	q.Set("room", NormalizeCode(code))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
