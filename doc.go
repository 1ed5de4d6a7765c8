// Package countboard provides an embeddable dashboard of clickable tiles,
// each annotated with a pending count fetched from a remote JSON endpoint.
//
// countboard is designed as an SDK-first library: tiles and the board are
// immutable values built with the functional options pattern, and the
// dashboard is served from a single binary with embedded assets. The same
// board can be driven from YAML through the config package and the
// countboard command.
//
// # Quick Start
//
// Create tiles and start the dashboard with graceful shutdown:
//
//	tile, _ := countboard.NewTile("approve", "Approve Orders",
//	    "https://orders.example.com/approve",
//	    "https://api.example.com/pending?action=approve",
//	)
//	board, _ := countboard.New(countboard.WithTile(tile))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until context is cancelled
//
// # Refresh Rounds
//
// A round fetches every tile's count in parallel. Rounds start when the board
// starts, every refresh interval (60s by default) and on [Board.Refresh] or
// the dashboard's refresh button. A new round cancels the one in flight, and
// results belonging to a superseded round are discarded, so a slow response
// can never overwrite a newer one.
//
// During a round each tile is loading and keeps its previous count. A
// successful fetch sets the new count; a failed fetch marks the tile as
// errored and still keeps the previous count. The total shown on the
// dashboard is always the sum of the current counts.
//
// # Count Extractors
//
// Count sources may answer in any of four shapes, tried in order by
// [DefaultExtractor]:
//
//	{"count": 3}        → 3
//	[{}, {}]            → 2
//	{"data": [{}]}      → 1
//	{"items": []}       → 0
//
// Anything else counts as 0. Custom shapes are handled with [CountField],
// [SequenceLength] and [FirstMatch]:
//
//	countboard.WithExtractor(countboard.FirstMatch(
//	    countboard.CountField("summary.pending"),
//	    countboard.SequenceLength("result.rows"),
//	))
//
// # Failures
//
// Failed fetches are reported to status callbacks with an error that matches
// [ErrNetwork] (including timeouts) or [ErrBadResponse] (non-2xx status or a
// body that is not JSON) under errors.Is.
//
// # Dashboard
//
// The HTTP server exposes:
//
//   - GET /            the dashboard page
//   - GET /api/status  the current view as JSON
//   - GET /api/sse     Server-Sent Events stream of the view
//   - POST /api/refresh  start a round now
//   - GET /open/{id}   redirect to a tile's URL
//   - GET /preview     redirect to the quick link, see [WithQuickLink]
package countboard
