// Package store holds the live tile statuses for countboard.
//
// This package is internal to countboard. It is the single state container
// behind the dashboard: the refresh controller is its only writer, and the
// HTTP server reads it through immutable [Snapshot] values.
//
// The main components are:
//
//   - [Store]: Interface defining the round-guarded merge and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [TileStatus]: Per-tile state, count and error message
//   - [Snapshot]: Read-only view of every tile plus the derived total
//
// Every write carries a round identifier. Writes for any round other than
// the current one are discarded, so results from a superseded refresh can
// never overwrite fresher state.
//
// Subscribers receive snapshots via channels with non-blocking sends (slow
// subscribers will miss intermediate snapshots rather than block the system).
package store
