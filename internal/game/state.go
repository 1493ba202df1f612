package game

import (
	"fmt"
	"math/rand/v2"
)

// NumSwitches is the number of switches on the board. Exactly one of
// them hides the bomb for the lifetime of a round.
const NumSwitches = 5

// Outcome is the result of a press attempt.
type Outcome int

const (
	// OutcomeIgnored means the press had no effect (game over, not
	// started, or the switch was already pressed).
	OutcomeIgnored Outcome = iota
	OutcomeSafe
	OutcomeBomb
	OutcomeWin
)

// State is one round of the game. It is written wholesale on every
// authoritative mutation and never partially patched.
type State struct {
	CurrentPlayer int               `json:"currentPlayer"`
	GameOver      bool              `json:"gameOver"`
	Winner        string            `json:"winner"`
	Loser         string            `json:"loser"`
	BombIndex     int               `json:"bombIndex"`
	Switches      [NumSwitches]bool `json:"switchStates"`
	Started       bool              `json:"gameStarted"`
	Message       string            `json:"message"`
	Players       []string          `json:"players"`
	BombHit       bool              `json:"bombHit"`
	Timestamp     int64             `json:"timestamp"`
}

// NewState returns a fresh pre-game state with the default roster.
func NewState() *State {
	return &State{
		BombIndex: rand.IntN(NumSwitches),
		Players:   RosterNames(),
		Message:   "Press Start to begin!",
	}
}

// CurrentPlayerName resolves the character whose turn it is. Turn
// identity is computed from the ordered player list, never stored.
func (s *State) CurrentPlayerName() string {
	if len(s.Players) == 0 {
		return ""
	}
	return s.Players[s.CurrentPlayer%len(s.Players)]
}

// PressedCount returns the number of switches already pressed.
func (s *State) PressedCount() int {
	count := 0
	for _, pressed := range s.Switches {
		if pressed {
			count++
		}
	}
	return count
}

// Reset starts a new round: resamples the bomb, clears all switches and
// resets the turn to player 0. Always succeeds.
func (s *State) Reset() {
	s.resetWithBomb(rand.IntN(NumSwitches))
}

func (s *State) resetWithBomb(bombIndex int) {
	s.CurrentPlayer = 0
	s.GameOver = false
	s.Winner = ""
	s.Loser = ""
	s.BombIndex = bombIndex
	s.Switches = [NumSwitches]bool{}
	s.Started = true
	s.BombHit = false
	s.Message = fmt.Sprintf("%s's turn - Pick a switch (1-5)", s.CurrentPlayerName())
}

// PressSwitch presses the switch at index on behalf of the current
// player. Invalid presses are silently ignored; they return
// OutcomeIgnored and leave the state untouched.
func (s *State) PressSwitch(index int) Outcome {
	if index < 0 || index >= NumSwitches {
		return OutcomeIgnored
	}
	if s.GameOver || !s.Started {
		return OutcomeIgnored
	}
	if s.Switches[index] {
		return OutcomeIgnored
	}

	s.Switches[index] = true

	if index == s.BombIndex {
		s.GameOver = true
		s.Loser = s.CurrentPlayerName()
		s.Message = fmt.Sprintf("💥 BOOM! %s hit the bomb and lost!", s.Loser)
		s.BombHit = true
		return OutcomeBomb
	}

	remaining := 0
	for i, pressed := range s.Switches {
		if !pressed && i != s.BombIndex {
			remaining++
		}
	}
	if remaining == 0 {
		s.GameOver = true
		s.Winner = s.CurrentPlayerName()
		s.Message = fmt.Sprintf("🎉 %s wins! All safe switches pressed!", s.Winner)
		return OutcomeWin
	}

	s.CurrentPlayer = (s.CurrentPlayer + 1) % len(s.Players)
	s.Message = fmt.Sprintf("Safe! %s's turn - Pick a switch (1-5)", s.CurrentPlayerName())
	return OutcomeSafe
}

// Clone returns a deep copy safe to hand to observers.
func (s *State) Clone() State {
	copied := *s
	copied.Players = append([]string(nil), s.Players...)
	return copied
}
