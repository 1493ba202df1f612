package multiplayer

import (
	"encoding/json"
	"fmt"

	"switchbomb/internal/game"
	"switchbomb/internal/room"
)

// Player-facing actions. Offline they drive the local engine directly;
// connected they route through the turn-authority protocol.

// StartGame opens the room for play: raises the shared roomStarted
// flag, then starts the first round. Host only; guests observe the flag
// flip and switch views.
func (c *Client) StartGame() error {
	c.mu.Lock()
	if !c.session.Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if !c.session.IsHost {
		c.mu.Unlock()
		return ErrNotHost
	}
	code := c.session.Code
	c.roomStarted = true
	c.mu.Unlock()

	if err := c.store.Put(room.RoomStartedKey(code), []byte("true")); err != nil {
		return fmt.Errorf("publishing roomStarted: %w", err)
	}
	return c.ResetGame()
}

// ResetGame starts a fresh round. The host runs the engine and
// broadcasts; a guest submits a reset intent and waits for the
// resulting state to come back.
func (c *Client) ResetGame() error {
	c.mu.Lock()
	if !c.session.Connected {
		c.state.Reset()
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot)
		return nil
	}

	if c.session.IsHost {
		c.state.Reset()
		c.finishHostUpdate()
		return nil
	}

	req := Request{
		From:      c.session.PlayerID,
		Timestamp: c.now(),
	}
	key := room.ResetRequestKey(c.session.Code)
	c.mu.Unlock()

	return c.putRequest(key, req)
}

// PressSwitch presses a switch on the local player's behalf. Out-of-turn
// attempts never leave the peer: the local message is updated and no
// request is emitted.
func (c *Client) PressSwitch(index int) error {
	if index < 0 || index >= game.NumSwitches {
		return nil
	}

	c.mu.Lock()
	if !c.session.Connected {
		c.state.PressSwitch(index)
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot)
		return nil
	}

	// Turn gating, enforced on both roles: the host for correctness,
	// the guest for responsiveness and to avoid emitting doomed
	// requests.
	current := c.state.CurrentPlayerName()
	if c.session.Character == "" || c.session.Character != current {
		if c.state.Started && !c.state.GameOver {
			c.state.Message = fmt.Sprintf("It's %s's turn!", current)
		}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot)
		return nil
	}

	if c.session.IsHost {
		c.state.PressSwitch(index)
		c.finishHostUpdate()
		return nil
	}

	req := Request{
		From:      c.session.PlayerID,
		Index:     index,
		Character: c.session.Character,
		Timestamp: c.now(),
	}
	key := room.PressRequestKey(c.session.Code)
	c.mu.Unlock()

	return c.putRequest(key, req)
}

// PressKey maps the keyboard surface onto switches: digits '1'-'5'
// press indices 0-4. Other keys are ignored.
func (c *Client) PressKey(key rune) error {
	if key < '1' || key > '5' {
		return nil
	}
	return c.PressSwitch(int(key - '1'))
}

func (c *Client) putRequest(key string, req Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if err := c.store.Put(key, payload); err != nil {
		return fmt.Errorf("submit request: %w", err)
	}
	return nil
}
