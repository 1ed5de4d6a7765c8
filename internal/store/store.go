package store

import "time"

// State is the lifecycle position of a single tile.
type State string

const (
	// StateIdle is the initial state before the first round begins.
	StateIdle State = "idle"

	// StateLoading means a fetch for the current round is in flight.
	StateLoading State = "loading"

	// StateOK means the last fetch succeeded.
	StateOK State = "ok"

	// StateError means the last fetch failed. The previous count is retained.
	StateError State = "error"
)

// TileStatus is the stored status of one tile.
type TileStatus struct {
	// ID is the tile identifier from the registry.
	ID string `json:"id"`

	// State is one of idle, loading, ok or error.
	State State `json:"state"`

	// Count is the last known good pending count. It survives errors.
	Count int `json:"count"`

	// Error is the failure message. Only set in the error state.
	Error string `json:"error,omitempty"`

	// CheckedAt is when the last fetch for this tile settled.
	CheckedAt time.Time `json:"checked_at"`

	// LatencyMs is the duration of the last fetch in milliseconds.
	LatencyMs int64 `json:"latency_ms"`
}

// Outcome is the settled result of fetching one tile's count.
type Outcome struct {
	// ID is the tile identifier.
	ID string

	// Count is the fetched count. Ignored when Err is set.
	Count int

	// Err is the fetch failure, if any.
	Err error

	// Latency is the time taken by the fetch.
	Latency time.Duration

	// CheckedAt is when the fetch settled.
	CheckedAt time.Time
}

// Snapshot is an immutable view of the store at one point in time.
type Snapshot struct {
	// Round is the identifier of the most recently started round. Zero before
	// the first round.
	Round uint64 `json:"round"`

	// Tiles holds one status per tile, in registry order.
	Tiles []TileStatus `json:"tiles"`

	// Total is the sum of all tile counts.
	Total int `json:"total"`

	// LastUpdated is when the last round finished settling. nil until then.
	LastUpdated *time.Time `json:"last_updated"`
}

// Tile returns the status for the given id.
func (s Snapshot) Tile(id string) (TileStatus, bool) {
	for _, t := range s.Tiles {
		if t.ID == id {
			return t, true
		}
	}
	return TileStatus{}, false
}

// Store defines the state container for tile statuses.
//
// Store implementations must be safe for concurrent access. Writes are
// guarded by a monotonically increasing round identifier.
type Store interface {
	// Begin starts a new round, marks every tile as loading and returns the
	// new round identifier. Any previous round becomes stale.
	Begin() uint64

	// Apply merges a single outcome into the store. It returns false, without
	// modifying anything, if round is not the current round or the tile is
	// unknown.
	Apply(round uint64, outcome Outcome) bool

	// Complete records the time the round finished settling. It returns false
	// if round is not the current round.
	Complete(round uint64, at time.Time) bool

	// Snapshot returns the current read-only view.
	Snapshot() Snapshot

	// Subscribe returns a channel that receives a snapshot after every change.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Snapshot)
}
