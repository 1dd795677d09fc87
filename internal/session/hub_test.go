package session

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/replication"
)

func newTestHub(t *testing.T, staleTimeout time.Duration) (*Hub, *replication.Memory) {
	t.Helper()
	channel := replication.NewMemory(slog.Default())
	hub := NewHub(channel, slog.Default(), staleTimeout)
	t.Cleanup(hub.Close)
	return hub, channel
}

func seedRoom(t *testing.T, channel *replication.Memory, code string, players int) {
	t.Helper()
	room := domain.NewRoom(code, domain.ModeNetworked)
	for i := 0; i < players; i++ {
		room.Players = append(room.Players, domain.NewPlayer(string(rune('a'+i)), "Player"))
	}
	require.NoError(t, channel.Put(code, room))
}

func TestAttachDetachCounts(t *testing.T) {
	hub, _ := newTestHub(t, 0)

	assert.Zero(t, hub.ConnectionCount("ABCD"))

	hub.Attach("ABCD")
	hub.Attach("ABCD")
	assert.Equal(t, 2, hub.ConnectionCount("ABCD"))

	hub.Detach("ABCD")
	assert.Equal(t, 1, hub.ConnectionCount("ABCD"))
	hub.Detach("ABCD")
	assert.Zero(t, hub.ConnectionCount("ABCD"))

	// A spurious detach never goes negative.
	hub.Detach("ABCD")
	assert.Zero(t, hub.ConnectionCount("ABCD"))
}

func TestRoomAndPlayerCounts(t *testing.T) {
	hub, channel := newTestHub(t, 0)

	assert.Zero(t, hub.RoomCount())
	assert.Zero(t, hub.PlayerCount())

	seedRoom(t, channel, "AAAA", 3)
	seedRoom(t, channel, "BBBB", 5)

	assert.Equal(t, 2, hub.RoomCount())
	assert.Equal(t, 8, hub.PlayerCount())
	assert.True(t, hub.RoomExists("AAAA"))
	assert.False(t, hub.RoomExists("CCCC"))

	room, err := hub.PeekRoom("BBBB")
	require.NoError(t, err)
	assert.Len(t, room.Players, 5)
}

func TestCleanupStaleRooms(t *testing.T) {
	hub, channel := newTestHub(t, 50*time.Millisecond)

	seedRoom(t, channel, "OLDR", 3)
	seedRoom(t, channel, "LIVE", 3)
	hub.Attach("LIVE")

	time.Sleep(100 * time.Millisecond)
	seedRoom(t, channel, "FRSH", 3)

	hub.cleanupStaleRooms()

	// Only the abandoned record past the timeout goes.
	assert.False(t, channel.Exists("OLDR"))
	assert.True(t, channel.Exists("LIVE"))
	assert.True(t, channel.Exists("FRSH"))
}
