package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/replication"
)

const (
	// DefaultStaleRoomTimeout is how long an abandoned room record is
	// kept before cleanup
	DefaultStaleRoomTimeout = 2 * time.Hour

	cleanupInterval = 10 * time.Minute
)

// Hub does the server-side bookkeeping around the replication channel:
// which rooms have live connections, how many, and which abandoned
// records can be dropped. Controllers never talk to the hub; it only
// observes.
type Hub struct {
	channel      *replication.Memory
	logger       *slog.Logger
	staleTimeout time.Duration

	mu       sync.RWMutex
	attached map[string]int // room code -> connected controller count

	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub over the given channel and starts its cleanup loop
func NewHub(channel *replication.Memory, logger *slog.Logger, staleTimeout time.Duration) *Hub {
	if staleTimeout <= 0 {
		staleTimeout = DefaultStaleRoomTimeout
	}
	h := &Hub{
		channel:      channel,
		logger:       logger,
		staleTimeout: staleTimeout,
		attached:     make(map[string]int),
		done:         make(chan struct{}),
	}

	go h.cleanupLoop()

	return h
}

// Attach records one live connection for a room code
func (h *Hub) Attach(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached[code]++
}

// Detach records that a connection for a room code went away
func (h *Hub) Detach(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := h.attached[code]; n > 1 {
		h.attached[code] = n - 1
	} else {
		delete(h.attached, code)
	}
}

// ConnectionCount returns the number of live connections for a room
func (h *Hub) ConnectionCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.attached[code]
}

// RoomCount returns the number of rooms with stored state
func (h *Hub) RoomCount() int {
	return h.channel.Len()
}

// PlayerCount returns the total number of seated players across rooms
func (h *Hub) PlayerCount() int {
	total := 0
	for _, code := range h.channel.Codes() {
		if room, err := h.channel.Get(code); err == nil {
			total += len(room.Players)
		}
	}
	return total
}

// RoomExists reports whether a room code has stored state
func (h *Hub) RoomExists(code string) bool {
	return h.channel.Exists(code)
}

// PeekRoom returns a copy of a room's stored state
func (h *Hub) PeekRoom(code string) (*domain.Room, error) {
	return h.channel.Get(code)
}

// Close stops the cleanup loop
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// cleanupLoop periodically drops stale room records
func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleRooms()
		}
	}
}

// cleanupStaleRooms removes room records with no live connections that
// have outlived the stale timeout
func (h *Hub) cleanupStaleRooms() {
	now := time.Now()

	for _, code := range h.channel.Codes() {
		if h.ConnectionCount(code) > 0 {
			continue
		}
		room, err := h.channel.Get(code)
		if err != nil {
			continue
		}
		if now.Sub(room.CreatedAt) > h.staleTimeout {
			h.channel.Delete(code)
			h.logger.Info("stale room cleaned up", "code", code)
		}
	}
}
