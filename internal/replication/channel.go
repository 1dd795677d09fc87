// Package replication defines the contract through which session
// controllers share room state: a keyed record store that delivers
// whole-state snapshots to subscribers on every successful put. The
// store is the serialization point; the last full write wins.
package replication

import "github.com/modularwolf/impostergame.io/internal/domain"

// Channel persists room state keyed by room code and notifies
// subscribers of changes. Any key-value store with change notification
// can implement it.
type Channel interface {
	// Put upserts the full state for a room code. Idempotent.
	Put(code string, state *domain.Room) error

	// Get point-reads the state for a room code, used at join time.
	// Returns domain.ErrRoomNotFound for unknown codes.
	Get(code string) (*domain.Room, error)

	// Subscribe registers onChange to be invoked with the full new
	// state whenever a writer puts for the code. Delivery is
	// asynchronous; a slow subscriber never blocks writers.
	Subscribe(code string, onChange func(*domain.Room)) (Subscription, error)
}

// Subscription is a live change feed for one room code. It must be
// cancelled when leaving the room so stale updates stop arriving.
type Subscription interface {
	Unsubscribe()
}
