package store

import (
	"sync"
	"time"
)

const (
	subscriberBuffer = 100

	// defaultErrorMessage is used when a failure carries no text.
	defaultErrorMessage = "Fetch failed"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps one [TileStatus] per registered tile, in registry order.
// Subscribers receive snapshots via buffered channels (buffer size 100).
// Snapshots are published while the write lock is held, so every subscriber
// observes them in the order the writes happened.
type MemoryStore struct {
	mu          sync.RWMutex
	order       []string
	statuses    map[string]TileStatus
	round       uint64
	lastUpdated *time.Time

	subMu       sync.RWMutex
	subscribers map[chan Snapshot]struct{}
}

// NewMemoryStore creates a [MemoryStore] with every id in the idle state.
//
// Duplicate ids are collapsed; the first occurrence fixes the position.
func NewMemoryStore(ids []string) *MemoryStore {
	m := &MemoryStore{
		order:       make([]string, 0, len(ids)),
		statuses:    make(map[string]TileStatus, len(ids)),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, id := range ids {
		if _, exists := m.statuses[id]; exists {
			continue
		}
		m.order = append(m.order, id)
		m.statuses[id] = TileStatus{ID: id, State: StateIdle}
	}
	return m
}

// Begin starts a new round and marks every tile as loading.
//
// Counts are kept so the total does not flash to zero while a round is in
// flight; error messages are cleared.
func (m *MemoryStore) Begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.round++
	for id, st := range m.statuses {
		st.State = StateLoading
		st.Error = ""
		m.statuses[id] = st
	}

	m.notifyLocked()
	return m.round
}

// Apply merges an outcome for the given round.
//
// A successful outcome sets the tile to ok with the new count. A failed
// outcome sets it to error and keeps the previous count.
func (m *MemoryStore) Apply(round uint64, outcome Outcome) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if round != m.round {
		return false
	}
	st, ok := m.statuses[outcome.ID]
	if !ok {
		return false
	}

	st.CheckedAt = outcome.CheckedAt
	st.LatencyMs = outcome.Latency.Milliseconds()
	if outcome.Err != nil {
		st.State = StateError
		st.Error = outcome.Err.Error()
		if st.Error == "" {
			st.Error = defaultErrorMessage
		}
	} else {
		st.State = StateOK
		st.Count = max(outcome.Count, 0)
		st.Error = ""
	}
	m.statuses[outcome.ID] = st

	m.notifyLocked()
	return true
}

// Complete records the completion time for the given round.
func (m *MemoryStore) Complete(round uint64, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if round != m.round {
		return false
	}
	m.lastUpdated = &at

	m.notifyLocked()
	return true
}

// Snapshot returns a copy of the current state with the derived total.
func (m *MemoryStore) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *MemoryStore) snapshotLocked() Snapshot {
	snap := Snapshot{
		Round: m.round,
		Tiles: make([]TileStatus, 0, len(m.order)),
	}
	for _, id := range m.order {
		st := m.statuses[id]
		snap.Tiles = append(snap.Tiles, st)
		snap.Total += st.Count
	}
	if m.lastUpdated != nil {
		at := *m.lastUpdated
		snap.LastUpdated = &at
	}
	return snap
}

// Subscribe creates a new subscription and returns a channel for receiving
// snapshots.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new snapshots are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifyLocked sends the current snapshot to all subscribers. Caller must
// hold m.mu.
func (m *MemoryStore) notifyLocked() {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	if len(m.subscribers) == 0 {
		return
	}

	snap := m.snapshotLocked()
	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// subscriber is slow, drop the snapshot
		}
	}
}
