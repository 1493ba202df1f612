// Package room names the shared namespace one multiplayer session lives
// in: the human-shareable code, the keys inside the namespace, the
// per-player records, and the process-local session flags.
package room

import (
	"crypto/rand"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode generates an uppercase alphanumeric room code. Global
// uniqueness is by convention, not enforced.
func GenerateCode(length int) string {
	b := make([]byte, length)
	rand.Read(b)

	for i := range b {
		b[i] = codeAlphabet[b[i]%byte(len(codeAlphabet))]
	}
	return string(b)
}

// NormalizeCode canonicalizes a user-entered room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Keys inside the room namespace. Every peer derives the same paths
// from the code alone.

func prefix(code string) string {
	return "room/" + code
}

// GameStateKey is the single authoritative game state record.
func GameStateKey(code string) string {
	return prefix(code) + "/gameState"
}

// RoomStartedKey is the host-authored flag gating waiting room vs game.
func RoomStartedKey(code string) string {
	return prefix(code) + "/roomStarted"
}

// PlayersPrefix is the membership sub-namespace.
func PlayersPrefix(code string) string {
	return prefix(code) + "/players"
}

// PlayerKey is one player's record inside the membership map.
func PlayerKey(code, playerID string) string {
	return PlayersPrefix(code) + "/" + playerID
}

// PressRequestKey is the single-slot press intent register.
func PressRequestKey(code string) string {
	return prefix(code) + "/requests/press"
}

// ResetRequestKey is the single-slot reset intent register.
func ResetRequestKey(code string) string {
	return prefix(code) + "/requests/reset"
}
