// Package poller fetches pending counts and drives refresh rounds for countboard.
//
// This package is internal to countboard. It fetches every tile's count
// concurrently, merges the outcomes into the status store and guarantees that
// a superseded round can never overwrite the results of a newer one.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [Fetcher]: Issues a count request and extracts the count from the JSON body
//   - [Controller]: Runs one refresh round across all tiles
//   - [Scheduler]: Triggers rounds on start, on a fixed interval and on demand
//   - [TileInfo]: Configuration for a tile whose count is fetched
//
// Users of the countboard library should not need to interact with this
// package directly. Configuration is done through the main countboard package.
package poller
