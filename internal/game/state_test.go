package game

import (
	"strings"
	"testing"
)

func TestNewState(t *testing.T) {
	s := NewState()

	if s.Started {
		t.Error("new state should not be started")
	}
	if s.BombIndex < 0 || s.BombIndex >= NumSwitches {
		t.Errorf("bomb index out of range: %d", s.BombIndex)
	}
	if len(s.Players) != MaxSeats {
		t.Errorf("expected %d default players, got %d", MaxSeats, len(s.Players))
	}
	if s.Message != "Press Start to begin!" {
		t.Errorf("unexpected opening message: %q", s.Message)
	}
}

func TestState_Reset(t *testing.T) {
	s := NewState()
	s.resetWithBomb(2)
	s.PressSwitch(0)
	s.PressSwitch(2) // bomb

	for i := 0; i < 50; i++ {
		s.Reset()

		if s.BombIndex < 0 || s.BombIndex >= NumSwitches {
			t.Fatalf("bomb index out of range after reset: %d", s.BombIndex)
		}
		if s.CurrentPlayer != 0 {
			t.Errorf("expected turn reset to player 0, got %d", s.CurrentPlayer)
		}
		if s.GameOver || !s.Started {
			t.Error("reset should yield a started, not-over round")
		}
		if s.Winner != "" || s.Loser != "" {
			t.Error("winner/loser should be cleared on reset")
		}
		if s.BombHit {
			t.Error("bombHit should be cleared on reset")
		}
		if s.PressedCount() != 0 {
			t.Errorf("expected all switches cleared, got %d pressed", s.PressedCount())
		}
	}
}

func TestState_PressSwitch_AdvancesTurn(t *testing.T) {
	s := NewState()
	s.resetWithBomb(4)

	// Safe presses advance the turn by exactly one each time.
	for i, index := range []int{0, 1, 2} {
		if got := s.PressSwitch(index); got != OutcomeSafe {
			t.Fatalf("press %d: expected OutcomeSafe, got %v", index, got)
		}
		want := (i + 1) % len(s.Players)
		if s.CurrentPlayer != want {
			t.Errorf("after press %d: expected current player %d, got %d", index, want, s.CurrentPlayer)
		}
	}
}

func TestState_PressSwitch_DoublePressIgnored(t *testing.T) {
	s := NewState()
	s.resetWithBomb(4)

	s.PressSwitch(1)
	turn := s.CurrentPlayer

	if got := s.PressSwitch(1); got != OutcomeIgnored {
		t.Errorf("expected duplicate press to be ignored, got %v", got)
	}
	if s.CurrentPlayer != turn {
		t.Error("duplicate press must not advance the turn")
	}
}

func TestState_PressSwitch_Bomb(t *testing.T) {
	s := NewState()
	s.resetWithBomb(3)
	s.PressSwitch(0) // Mario safe
	presser := s.CurrentPlayerName()
	turn := s.CurrentPlayer

	if got := s.PressSwitch(3); got != OutcomeBomb {
		t.Fatalf("expected OutcomeBomb, got %v", got)
	}
	if !s.GameOver {
		t.Error("bomb press must end the game")
	}
	if s.Loser != presser {
		t.Errorf("expected loser %q, got %q", presser, s.Loser)
	}
	if s.CurrentPlayer != turn {
		t.Error("bomb press must not advance the turn")
	}
	if !s.BombHit {
		t.Error("bomb press must raise the bombHit trigger")
	}
	if !strings.Contains(s.Message, "BOOM") {
		t.Errorf("expected loss message, got %q", s.Message)
	}
}

func TestState_PressSwitch_Win(t *testing.T) {
	s := NewState()
	s.resetWithBomb(2)

	// Press every non-bomb switch; the last one wins the round.
	s.PressSwitch(0)
	s.PressSwitch(1)
	s.PressSwitch(3)
	presser := s.CurrentPlayerName()

	if got := s.PressSwitch(4); got != OutcomeWin {
		t.Fatalf("expected OutcomeWin, got %v", got)
	}
	if !s.GameOver {
		t.Error("winning press must end the game")
	}
	if s.Winner != presser {
		t.Errorf("expected winner %q, got %q", presser, s.Winner)
	}
	if s.Loser != "" {
		t.Error("no loser in a won round")
	}
	if s.BombHit {
		t.Error("bombHit must stay clear in a won round")
	}
}

func TestState_PressSwitch_InvalidStates(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		s := NewState()
		if got := s.PressSwitch(0); got != OutcomeIgnored {
			t.Errorf("expected press before start to be ignored, got %v", got)
		}
	})

	t.Run("after game over", func(t *testing.T) {
		s := NewState()
		s.resetWithBomb(0)
		s.PressSwitch(0)
		if got := s.PressSwitch(1); got != OutcomeIgnored {
			t.Errorf("expected press after game over to be ignored, got %v", got)
		}
	})

	t.Run("out of range index", func(t *testing.T) {
		s := NewState()
		s.resetWithBomb(0)
		if got := s.PressSwitch(-1); got != OutcomeIgnored {
			t.Errorf("expected negative index to be ignored, got %v", got)
		}
		if got := s.PressSwitch(NumSwitches); got != OutcomeIgnored {
			t.Errorf("expected out-of-range index to be ignored, got %v", got)
		}
	})
}

func TestState_CurrentPlayerName(t *testing.T) {
	s := NewState()
	s.Players = []string{"Mario", "Luigi"}
	s.CurrentPlayer = 3

	// Index wraps around the live player list.
	if got := s.CurrentPlayerName(); got != "Luigi" {
		t.Errorf("expected wrapped turn Luigi, got %q", got)
	}

	s.Players = nil
	if got := s.CurrentPlayerName(); got != "" {
		t.Errorf("expected empty name with no players, got %q", got)
	}
}

func TestState_Clone(t *testing.T) {
	s := NewState()
	s.resetWithBomb(1)

	clone := s.Clone()
	clone.Players[0] = "changed"

	if s.Players[0] == "changed" {
		t.Error("clone must not share the players slice")
	}
}
