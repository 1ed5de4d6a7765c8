package countboard

import (
	"time"

	"github.com/ntwoods/countboard/internal/poller"
)

// Failure kinds carried by [TileResult.Err]. Use errors.Is to classify.
var (
	// ErrNetwork means the count request could not complete, including timeouts.
	ErrNetwork = poller.ErrNetwork

	// ErrBadResponse means the count source answered with a non-2xx status or
	// a body that was not valid JSON.
	ErrBadResponse = poller.ErrBadResponse
)

// State is the lifecycle position of a tile.
//
// A tile starts [StateIdle], moves to [StateLoading] when a round begins and
// ends the round in [StateOK] or [StateError]. Idle never recurs.
type State string

const (
	// StateIdle means no round has started yet.
	StateIdle State = "idle"

	// StateLoading means the tile's count is being fetched.
	StateLoading State = "loading"

	// StateOK means the last fetch succeeded.
	StateOK State = "ok"

	// StateError means the last fetch failed. The previous count is kept.
	StateError State = "error"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// CountExtractor reads a pending count from a decoded JSON response body.
//
// doc is the result of decoding the body with encoding/json: maps, slices,
// float64, string, bool or nil. The second return value reports whether doc
// had a recognizable shape. When it is false the tile's count is 0; an
// unrecognized shape is not a failure.
//
// CountExtractor functions are called within a panic recovery boundary. A
// panicking extractor puts the tile in [StateError] with a message containing
// a correlation ID; the stack trace is logged server-side.
type CountExtractor func(doc any) (count int, ok bool)

// TileStatus is the current status of one tile.
type TileStatus struct {
	// TileID identifies the tile.
	TileID string

	// State is the tile's lifecycle position.
	State State

	// Count is the last known good pending count.
	Count int

	// Error is the failure message. Only set in [StateError].
	Error string

	// CheckedAt is when the tile's last fetch settled.
	CheckedAt time.Time

	// Latency is the duration of the last fetch.
	Latency time.Duration
}

// Snapshot is a read-only view of every tile.
type Snapshot struct {
	// Round is the id of the most recently started round. Zero before the first.
	Round uint64

	// Tiles holds one status per tile, in registration order.
	Tiles []TileStatus

	// Total is the sum of all tile counts.
	Total int

	// LastUpdated is when the last round finished settling. Zero until then.
	LastUpdated time.Time
}

// TileResult is delivered to status callbacks after a fetch outcome has been
// merged into the dashboard.
//
// Results from superseded rounds and cancelled fetches are never delivered.
type TileResult struct {
	// TileID identifies the tile.
	TileID string

	// Round is the refresh round the result belongs to.
	Round uint64

	// Count is the fetched count. Zero when Err is set.
	Count int

	// Err is the fetch failure, or nil. Classify it with errors.Is against
	// [ErrNetwork] and [ErrBadResponse].
	Err error

	// Latency is the time taken by the fetch.
	Latency time.Duration

	// CheckedAt is when the fetch settled.
	CheckedAt time.Time
}
