package replication

import (
	"log/slog"
	"sync"

	"github.com/modularwolf/impostergame.io/internal/domain"
)

// subscriberBuffer is the per-subscriber snapshot queue size. When a
// subscriber falls this far behind, newer snapshots replace queued
// ones; only the latest state matters.
const subscriberBuffer = 16

// Memory is an in-process Channel: one record per room code, full
// overwrite on every put, fanout to subscribers through buffered
// per-subscriber queues so a slow consumer never blocks a writer.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*record
	nextID  int
	logger  *slog.Logger
}

type record struct {
	state *domain.Room
	subs  map[int]*memorySub
}

type memorySub struct {
	id     int
	ch     chan *domain.Room
	done   chan struct{}
	cancel func()
	once   sync.Once
}

// NewMemory creates an empty in-memory channel
func NewMemory(logger *slog.Logger) *Memory {
	return &Memory{
		records: make(map[string]*record),
		logger:  logger,
	}
}

// Put stores the full state for a room code and fans it out to every
// subscriber of that code.
func (m *Memory) Put(code string, state *domain.Room) error {
	snapshot := state.Clone()

	m.mu.Lock()
	rec := m.ensureRecord(code)
	rec.state = snapshot
	subs := make([]*memorySub, 0, len(rec.subs))
	for _, sub := range rec.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		// Each subscriber gets its own copy; the stored record and the
		// delivered snapshots must never alias.
		sub.offer(snapshot.Clone(), m.logger, code)
	}
	return nil
}

// Get returns a copy of the stored state for a room code
func (m *Memory) Get(code string) (*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[code]
	if !ok || rec.state == nil {
		return nil, domain.ErrRoomNotFound
	}
	return rec.state.Clone(), nil
}

// Subscribe registers a change callback for a room code. Subscribing
// before the first put is allowed: the creator of a room subscribes
// and then writes its initial state.
func (m *Memory) Subscribe(code string, onChange func(*domain.Room)) (Subscription, error) {
	m.mu.Lock()
	rec := m.ensureRecord(code)
	m.nextID++
	sub := &memorySub{
		id:   m.nextID,
		ch:   make(chan *domain.Room, subscriberBuffer),
		done: make(chan struct{}),
	}
	sub.cancel = func() {
		m.mu.Lock()
		if r, ok := m.records[code]; ok {
			delete(r.subs, sub.id)
		}
		m.mu.Unlock()
	}
	rec.subs[sub.id] = sub
	m.mu.Unlock()

	go sub.pump(onChange)

	return sub, nil
}

// Delete drops a room record and cancels its subscriptions
func (m *Memory) Delete(code string) {
	m.mu.Lock()
	rec, ok := m.records[code]
	if ok {
		delete(m.records, code)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	for _, sub := range rec.subs {
		sub.Unsubscribe()
	}
}

// Exists reports whether a room code has stored state
func (m *Memory) Exists(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[code]
	return ok && rec.state != nil
}

// Codes returns all room codes with stored state
func (m *Memory) Codes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	codes := make([]string, 0, len(m.records))
	for code, rec := range m.records {
		if rec.state != nil {
			codes = append(codes, code)
		}
	}
	return codes
}

// Len returns the number of rooms with stored state
func (m *Memory) Len() int {
	return len(m.Codes())
}

// ensureRecord returns the record for a code, creating it if needed.
// Caller must hold m.mu.
func (m *Memory) ensureRecord(code string) *record {
	rec, ok := m.records[code]
	if !ok {
		rec = &record{subs: make(map[int]*memorySub)}
		m.records[code] = rec
	}
	return rec
}

// offer queues a snapshot for delivery. If the subscriber's queue is
// full the oldest queued snapshot is discarded in its favor.
func (s *memorySub) offer(snapshot *domain.Room, logger *slog.Logger, code string) {
	for {
		select {
		case <-s.done:
			return
		case s.ch <- snapshot:
			return
		default:
		}

		select {
		case stale := <-s.ch:
			if logger != nil {
				logger.Warn("subscriber behind, dropping stale snapshot",
					"code", code, "stage", stale.Stage)
			}
		default:
		}
	}
}

// pump delivers queued snapshots to the callback until cancelled
func (s *memorySub) pump(onChange func(*domain.Room)) {
	for {
		select {
		case <-s.done:
			return
		case state := <-s.ch:
			onChange(state)
		}
	}
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *memorySub) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
	})
}
