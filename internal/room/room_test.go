package room

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	code := GenerateCode(6)

	if len(code) != 6 {
		t.Errorf("expected code length 6, got %d", len(code))
	}
	for _, char := range code {
		if !((char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			t.Errorf("room code contains invalid character: %c", char)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  abc123 "); got != "ABC123" {
		t.Errorf("expected ABC123, got %q", got)
	}
}

func TestKeys(t *testing.T) {
	if got := GameStateKey("ABC123"); got != "room/ABC123/gameState" {
		t.Errorf("unexpected game state key: %s", got)
	}
	if got := PlayerKey("ABC123", "p1"); got != "room/ABC123/players/p1" {
		t.Errorf("unexpected player key: %s", got)
	}
	if !strings.HasPrefix(PlayerKey("ABC123", "p1"), PlayersPrefix("ABC123")) {
		t.Error("player key must live under the players prefix")
	}
	if got := PressRequestKey("ABC123"); got != "room/ABC123/requests/press" {
		t.Errorf("unexpected press request key: %s", got)
	}
}

func TestSession(t *testing.T) {
	s := NewSession()

	if s.PlayerID == "" {
		t.Error("session must have a player id")
	}
	if s.Connected || s.IsHost {
		t.Error("new session must be disconnected")
	}

	s.Code = "ABC123"
	s.IsHost = true
	s.Connected = true
	s.Character = "Mario"
	s.PlayerName = "Alice"
	id := s.PlayerID

	s.Disconnect()

	if s.Code != "" || s.IsHost || s.Connected || s.Character != "" {
		t.Error("disconnect must roll back room state")
	}
	if s.PlayerID != id || s.PlayerName != "Alice" {
		t.Error("disconnect must keep the player identity")
	}
}

func TestCodeFromURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain link", "http://example.com/?room=abc123", "ABC123"},
		{"no room param", "http://example.com/", ""},
		{"other params", "http://example.com/?x=1&room=XYZ999", "XYZ999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeFromURL(tt.raw); got != tt.want {
				t.Errorf("CodeFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestShareURL(t *testing.T) {
	link, err := ShareURL("http://example.com/play", "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link != "http://example.com/play?room=ABC123" {
		t.Errorf("unexpected share url: %s", link)
	}
	if got := CodeFromURL(link); got != "ABC123" {
		t.Errorf("share url must round trip the code, got %q", got)
	}
}
