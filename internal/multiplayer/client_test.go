package multiplayer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"switchbomb/internal/config"
	"switchbomb/internal/room"
	"switchbomb/internal/store"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newTestClient(t *testing.T, st store.Store) *Client {
	t.Helper()
	return NewClient(st, config.DefaultConfig(), zap.NewNop())
}

func TestCreateRoom(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	host := newTestClient(t, st)
	code, err := host.CreateRoom("Alice")
	require.NoError(t, err)
	require.Len(t, code, 6)

	snap := host.Snapshot()
	require.True(t, snap.Connected)
	require.True(t, snap.IsHost)
	require.Equal(t, code, snap.RoomCode)

	// The creator's own membership record comes back through the
	// subscription and seats them as Mario.
	require.Eventually(t, func() bool {
		snap := host.Snapshot()
		return len(snap.Players) == 1 && snap.Character == "Mario"
	}, waitFor, tick)
}

func TestJoin_Validation(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	c := newTestClient(t, st)

	t.Run("missing name", func(t *testing.T) {
		require.ErrorIs(t, c.JoinRoom("ABC123", ""), room.ErrNameRequired)
	})

	t.Run("missing code", func(t *testing.T) {
		require.ErrorIs(t, c.JoinRoom("", "Alice"), room.ErrCodeRequired)
	})

	t.Run("no state mutated", func(t *testing.T) {
		require.False(t, c.Snapshot().Connected)
	})
}

func TestJoin_NormalizesCode(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	c := newTestClient(t, st)
	require.NoError(t, c.JoinRoom("abc123", "Alice"))
	require.Equal(t, "ABC123", c.Snapshot().RoomCode)
}

func TestJoin_RoomFull(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	// Four active players already in the room.
	for i, id := range []string{"p1", "p2", "p3", "p4"} {
		record, _ := json.Marshal(room.Player{
			ID: id, Name: "Player", Active: true, JoinedAt: int64(i + 1),
		})
		require.NoError(t, st.Put(room.PlayerKey("ABC123", id), record))
	}

	c := newTestClient(t, st)
	require.ErrorIs(t, c.JoinRoom("ABC123", "Late"), room.ErrRoomFull)

	// Connection flags rolled back, no record written.
	require.False(t, c.Snapshot().Connected)
	value, err := st.Once(room.PlayerKey("ABC123", c.PlayerID()))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestJoin_SoftDeletedSeatsFreed(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	for i, id := range []string{"p1", "p2", "p3", "p4"} {
		record, _ := json.Marshal(room.Player{
			ID: id, Name: "Player", Active: i != 0, JoinedAt: int64(i + 1),
		})
		require.NoError(t, st.Put(room.PlayerKey("ABC123", id), record))
	}

	c := newTestClient(t, st)
	require.NoError(t, c.JoinRoom("ABC123", "Eve"))
}

func TestHostAndGuestAssignment(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	host := newTestClient(t, st)
	code, err := host.CreateRoom("Alice")
	require.NoError(t, err)

	guest := newTestClient(t, st)
	require.NoError(t, guest.JoinRoom(code, "Bob"))

	// Both peers converge on the same two-seat assignment: earliest
	// joiner is Mario, the guest Luigi.
	for _, c := range []*Client{host, guest} {
		require.Eventually(t, func() bool {
			snap := c.Snapshot()
			return len(snap.Players) == 2 &&
				len(snap.Assignments) == 2 &&
				snap.Assignments[0].Character.Name == "Mario" &&
				snap.Assignments[1].Character.Name == "Luigi"
		}, waitFor, tick)
	}

	require.Eventually(t, func() bool { return host.Snapshot().Character == "Mario" }, waitFor, tick)
	require.Eventually(t, func() bool { return guest.Snapshot().Character == "Luigi" }, waitFor, tick)
	require.True(t, host.Snapshot().ReadyToStart())
}

func TestLeave_SoftDeactivates(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	host := newTestClient(t, st)
	code, err := host.CreateRoom("Alice")
	require.NoError(t, err)

	guest := newTestClient(t, st)
	require.NoError(t, guest.JoinRoom(code, "Bob"))
	require.Eventually(t, func() bool { return len(host.Snapshot().Players) == 2 }, waitFor, tick)

	guestID := guest.PlayerID()
	guest.Leave()
	require.False(t, guest.Snapshot().Connected)

	// The record survives, flipped inactive; the host re-seats without
	// the guest.
	require.Eventually(t, func() bool {
		value, err := st.Once(room.PlayerKey(code, guestID))
		if err != nil || value == nil {
			return false
		}
		var p room.Player
		if json.Unmarshal(value, &p) != nil {
			return false
		}
		return !p.Active
	}, waitFor, tick)

	require.Eventually(t, func() bool {
		snap := host.Snapshot()
		return len(snap.Players) == 1 && len(snap.Assignments) == 1
	}, waitFor, tick)
}

func TestOfflineSoloPlay(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	c := newTestClient(t, st)

	// Without a room the local engine runs directly.
	require.NoError(t, c.ResetGame())
	snap := c.Snapshot()
	require.True(t, snap.Game.Started)

	safe := 0
	if snap.Game.BombIndex == 0 {
		safe = 1
	}
	require.NoError(t, c.PressSwitch(safe))
	require.True(t, c.Snapshot().Game.Switches[safe])
}

func TestPressKey(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	c := newTestClient(t, st)
	require.NoError(t, c.ResetGame())

	bomb := c.Snapshot().Game.BombIndex
	key := rune('1')
	index := 0
	if bomb == 0 {
		key = '2'
		index = 1
	}

	require.NoError(t, c.PressKey(key))
	require.True(t, c.Snapshot().Game.Switches[index], "digit keys map to switch indices")

	// Non-digit keys are ignored.
	before := gameSnap(c).PressedCount()
	require.NoError(t, c.PressKey('x'))
	require.NoError(t, c.PressKey('9'))
	require.Equal(t, before, gameSnap(c).PressedCount())
}

func TestObserverNotified(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	c := newTestClient(t, st)
	snapshots := make(chan Snapshot, 16)
	c.AddObserver(ObserverFunc(func(s Snapshot) { snapshots <- s }))

	_, err := c.CreateRoom("Alice")
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.True(t, snap.Connected)
	case <-time.After(waitFor):
		t.Fatal("observer was not notified on join")
	}
}
