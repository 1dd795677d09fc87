package replication

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularwolf/impostergame.io/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func testState(code string) *domain.Room {
	room := domain.NewRoom(code, domain.ModeNetworked)
	room.Players = append(room.Players, domain.NewPlayer("p1", "Ana"))
	room.HostID = "p1"
	return room
}

// waitFor receives one snapshot from ch or fails the test
func waitFor(t *testing.T, ch <-chan *domain.Room) *domain.Room {
	t.Helper()
	select {
	case state := <-ch:
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestGetNotFound(t *testing.T) {
	m := NewMemory(testLogger())
	_, err := m.Get("NOPE")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestPutThenGet(t *testing.T) {
	m := NewMemory(testLogger())
	state := testState("ABCD")

	require.NoError(t, m.Put("ABCD", state))

	got, err := m.Get("ABCD")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(state, got))
}

func TestGetReturnsACopy(t *testing.T) {
	m := NewMemory(testLogger())
	require.NoError(t, m.Put("ABCD", testState("ABCD")))

	first, err := m.Get("ABCD")
	require.NoError(t, err)
	first.Players[0].Name = "mutated"

	second, err := m.Get("ABCD")
	require.NoError(t, err)
	assert.Equal(t, "Ana", second.Players[0].Name)
}

func TestPutOverwritesWholeRecord(t *testing.T) {
	m := NewMemory(testLogger())
	require.NoError(t, m.Put("ABCD", testState("ABCD")))

	next := testState("ABCD")
	next.Stage = domain.StageActive
	next.Players = append(next.Players, domain.NewPlayer("p2", "Ben"))
	require.NoError(t, m.Put("ABCD", next))

	got, err := m.Get("ABCD")
	require.NoError(t, err)
	assert.Equal(t, domain.StageActive, got.Stage)
	assert.Len(t, got.Players, 2)
}

func TestSubscribeReceivesPuts(t *testing.T) {
	m := NewMemory(testLogger())
	received := make(chan *domain.Room, 4)

	sub, err := m.Subscribe("ABCD", func(state *domain.Room) {
		received <- state
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	state := testState("ABCD")
	require.NoError(t, m.Put("ABCD", state))

	got := waitFor(t, received)
	assert.Equal(t, "ABCD", got.Code)
	assert.Len(t, got.Players, 1)
}

func TestSubscribersGetIndependentCopies(t *testing.T) {
	m := NewMemory(testLogger())
	a := make(chan *domain.Room, 1)
	b := make(chan *domain.Room, 1)

	subA, err := m.Subscribe("ABCD", func(s *domain.Room) { a <- s })
	require.NoError(t, err)
	defer subA.Unsubscribe()
	subB, err := m.Subscribe("ABCD", func(s *domain.Room) { b <- s })
	require.NoError(t, err)
	defer subB.Unsubscribe()

	require.NoError(t, m.Put("ABCD", testState("ABCD")))

	gotA := waitFor(t, a)
	gotB := waitFor(t, b)
	gotA.Players[0].Name = "mutated"
	assert.Equal(t, "Ana", gotB.Players[0].Name)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := NewMemory(testLogger())
	received := make(chan *domain.Room, 4)

	sub, err := m.Subscribe("ABCD", func(state *domain.Room) {
		received <- state
	})
	require.NoError(t, err)

	require.NoError(t, m.Put("ABCD", testState("ABCD")))
	waitFor(t, received)

	sub.Unsubscribe()
	require.NoError(t, m.Put("ABCD", testState("ABCD")))

	select {
	case <-received:
		t.Fatal("received snapshot after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	m := NewMemory(testLogger())
	sub, err := m.Subscribe("ABCD", func(*domain.Room) {})
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()
}

func TestDeleteRemovesRecord(t *testing.T) {
	m := NewMemory(testLogger())
	require.NoError(t, m.Put("ABCD", testState("ABCD")))
	require.True(t, m.Exists("ABCD"))

	m.Delete("ABCD")

	assert.False(t, m.Exists("ABCD"))
	_, err := m.Get("ABCD")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestCodesAndLen(t *testing.T) {
	m := NewMemory(testLogger())
	assert.Zero(t, m.Len())

	require.NoError(t, m.Put("AAAA", testState("AAAA")))
	require.NoError(t, m.Put("BBBB", testState("BBBB")))

	// A subscription without state does not count as a room.
	_, err := m.Subscribe("CCCC", func(*domain.Room) {})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.ElementsMatch(t, []string{"AAAA", "BBBB"}, m.Codes())
}

func TestSlowSubscriberDoesNotBlockWriters(t *testing.T) {
	m := NewMemory(testLogger())

	// A callback that never returns promptly; the pump stalls while
	// buffered snapshots pile up and get replaced.
	block := make(chan struct{})
	_, err := m.Subscribe("ABCD", func(*domain.Room) {
		<-block
	})
	require.NoError(t, err)
	defer close(block)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			m.Put("ABCD", testState("ABCD"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Put blocked on a slow subscriber")
	}
}
