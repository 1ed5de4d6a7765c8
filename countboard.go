package countboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ntwoods/countboard/dashboard"
	"github.com/ntwoods/countboard/internal/poller"
	"github.com/ntwoods/countboard/internal/server"
	"github.com/ntwoods/countboard/internal/store"
)

const (
	defaultRefreshInterval = 60 * time.Second
	defaultPort            = 8080
	defaultMaxConcurrency  = 10
)

// Board is the main orchestrator for count refreshing and dashboard serving.
//
// Board owns the tile statuses, refreshes every tile's pending count on
// start, on a fixed interval and on demand, and serves the dashboard via
// HTTP. It is created using [New] with functional options and started with
// [Board.Start]. A Board can be started once.
//
// The typical lifecycle is:
//
//	board, err := countboard.New(countboard.WithTiles(tiles...))
//	if err != nil {
//	    slog.Error("failed to create countboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until ctx cancelled
type Board struct {
	title           string
	user            string
	tiles           []Tile
	refreshInterval time.Duration
	port            int
	maxConcurrency  int
	quickLink       *QuickLink
	logger          *slog.Logger
	statusCallbacks []func(TileResult)

	store      *store.MemoryStore
	fetcher    *poller.Fetcher
	controller *poller.Controller
	scheduler  *poller.Scheduler
}

// New creates a new [Board] with the given options.
//
// At least one tile must be configured via [WithTile] or [WithTiles], and
// tile ids must be unique. Other options have sensible defaults:
//   - Refresh interval: 60 seconds
//   - Port: 8080
//   - Max concurrency: 10
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		refreshInterval: defaultRefreshInterval,
		port:            defaultPort,
		maxConcurrency:  defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.tiles) == 0 {
		return nil, errors.New("at least one tile is required")
	}

	// tile ids key the status store
	seen := make(map[string]bool, len(cfg.tiles))
	ids := make([]string, 0, len(cfg.tiles))
	for _, t := range cfg.tiles {
		if seen[t.id] {
			return nil, fmt.Errorf("duplicate tile id: %q", t.id)
		}
		seen[t.id] = true
		ids = append(ids, t.id)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Board{
		title:           cfg.title,
		user:            cfg.user,
		tiles:           cfg.tiles,
		refreshInterval: cfg.refreshInterval,
		port:            cfg.port,
		maxConcurrency:  cfg.maxConcurrency,
		quickLink:       cfg.quickLink,
		logger:          logger,
		statusCallbacks: cfg.statusCallbacks,
		store:           store.NewMemoryStore(ids),
	}

	b.fetcher = poller.NewFetcher(poller.NewClient(), logger)
	b.controller = poller.NewController(b.toPollerTiles(), b.store, b.fetcher, b.maxConcurrency, b.dispatchResult, logger)
	b.scheduler = poller.NewScheduler(b.controller, b.refreshInterval, logger)

	return b, nil
}

// Start begins refreshing counts and serving the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The HTTP server starts on the configured port
//   - All tiles are refreshed immediately, then at the configured interval
//   - The dashboard is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("countboard starting", "tile_count", len(b.tiles))
	b.logger.Info("refresh configured", "interval", b.refreshInterval.String())

	if ctx.Err() != nil {
		return nil
	}

	httpServer := server.NewServer(b.store, b.port, dashboard.Assets, b.page(), b.scheduler.Trigger, b.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	b.scheduler.Start(ctx)

	<-ctx.Done()
	b.scheduler.Stop()
	b.controller.Stop()
	b.fetcher.Close()
	b.logger.Info("countboard stopped")
	return nil
}

// Refresh requests an immediate round, superseding any round in flight.
//
// Refresh never blocks. A request made before [Board.Start] runs right after
// the initial round is started.
func (b *Board) Refresh() {
	b.scheduler.Trigger()
}

// Snapshot returns the current status of every tile and the pending total.
func (b *Board) Snapshot() Snapshot {
	snap := b.store.Snapshot()

	out := Snapshot{
		Round: snap.Round,
		Tiles: make([]TileStatus, len(snap.Tiles)),
		Total: snap.Total,
	}
	if snap.LastUpdated != nil {
		out.LastUpdated = *snap.LastUpdated
	}
	for i, st := range snap.Tiles {
		out.Tiles[i] = TileStatus{
			TileID:    st.ID,
			State:     State(st.State),
			Count:     st.Count,
			Error:     st.Error,
			CheckedAt: st.CheckedAt,
			Latency:   time.Duration(st.LatencyMs) * time.Millisecond,
		}
	}
	return out
}

// Tiles returns a copy of the configured tiles.
func (b *Board) Tiles() []Tile {
	cp := make([]Tile, len(b.tiles))
	copy(cp, b.tiles)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// RefreshInterval returns the configured interval between rounds.
func (b *Board) RefreshInterval() time.Duration {
	return b.refreshInterval
}

// toPollerTiles converts the tiles to the poller's representation.
func (b *Board) toPollerTiles() []poller.TileInfo {
	result := make([]poller.TileInfo, len(b.tiles))

	for i, t := range b.tiles {
		extractor := t.extractor
		if extractor == nil {
			extractor = DefaultExtractor
		}

		result[i] = poller.TileInfo{
			ID:        t.id,
			CountURL:  t.countURL,
			Headers:   copyMap(t.headers),
			Timeout:   t.timeout,
			Extractor: poller.CountExtractor(extractor),
		}
	}

	return result
}

// page converts the board's presentation settings for the server.
func (b *Board) page() server.Page {
	p := server.Page{
		Title:           b.title,
		User:            b.user,
		RefreshInterval: b.refreshInterval,
		Tiles:           make([]server.Tile, len(b.tiles)),
	}
	for i, t := range b.tiles {
		p.Tiles[i] = server.Tile{
			ID:          t.id,
			Title:       t.title,
			URL:         t.url,
			Description: t.description,
			Icon:        t.icon,
		}
	}
	if b.quickLink != nil {
		p.QuickLink = &server.Link{Title: b.quickLink.Title, URL: b.quickLink.URL}
	}
	return p
}

// dispatchResult forwards a merged outcome to the status callbacks.
func (b *Board) dispatchResult(r poller.Result) {
	if len(b.statusCallbacks) == 0 {
		return
	}

	result := TileResult{
		TileID:    r.TileID,
		Round:     r.Round,
		Count:     r.Count,
		Err:       r.Err,
		Latency:   r.Latency,
		CheckedAt: r.CheckedAt,
	}
	for _, cb := range b.statusCallbacks {
		invokeCallbackSafe(cb, result, b.logger)
	}
}

// invokeCallbackSafe calls a status callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(TileResult), result TileResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status callback panicked",
				"panic", r,
				"tile", result.TileID,
			)
		}
	}()
	cb(result)
}
