package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ntwoods/countboard/internal/store"
)

// CountFetcher fetches the pending count for a single tile.
//
// [Fetcher] is the production implementation.
type CountFetcher interface {
	FetchCount(ctx context.Context, tile TileInfo) (int, time.Duration, error)
}

// Result describes one outcome that was merged into the store.
type Result struct {
	TileID    string
	Round     uint64
	Count     int
	Err       error
	Latency   time.Duration
	CheckedAt time.Time
}

// Controller runs refresh rounds across all tiles.
//
// Only one round is active at a time. Starting a round cancels the previous
// one, and the store rejects every write tagged with a superseded round id.
// Refresh is safe for concurrent use.
type Controller struct {
	tiles          []TileInfo
	store          store.Store
	fetcher        CountFetcher
	maxConcurrency int
	onResult       func(Result)
	logger         *slog.Logger

	mu     sync.Mutex
	round  uint64
	cancel context.CancelFunc
}

// NewController creates a [Controller].
//
// Parameters:
//   - tiles: Tiles to refresh, in registry order
//   - st: Store receiving the merged statuses
//   - fetcher: Count fetcher used for every tile
//   - maxConcurrency: Maximum number of concurrent fetches (<= 0 means no limit)
//   - onResult: Called after every accepted merge (may be nil)
//   - logger: Logger for round events
func NewController(tiles []TileInfo, st store.Store, fetcher CountFetcher, maxConcurrency int, onResult func(Result), logger *slog.Logger) *Controller {
	if maxConcurrency <= 0 {
		maxConcurrency = -1 // errgroup: no limit
	}
	return &Controller{
		tiles:          tiles,
		store:          st,
		fetcher:        fetcher,
		maxConcurrency: maxConcurrency,
		onResult:       onResult,
		logger:         logger,
	}
}

// Refresh runs one round and blocks until every fetch of that round settles
// or the round is superseded. It returns the round id.
//
// The round's completion time is recorded only if the round is still current
// once all of its fetches have settled.
func (c *Controller) Refresh(ctx context.Context) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	roundCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	round := c.store.Begin()
	c.round = round
	c.mu.Unlock()

	defer c.release(round, cancel)

	logger := c.logger.With("round", round, "trace_id", uuid.NewString())
	logger.Debug("refresh started", "tile_count", len(c.tiles))

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(c.maxConcurrency)
	for _, tile := range c.tiles {
		g.Go(func() error {
			if !c.fetchAndMerge(roundCtx, round, tile, logger) {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if roundCtx.Err() != nil {
		logger.Debug("refresh superseded")
		return round
	}
	if !c.store.Complete(round, time.Now()) {
		logger.Debug("refresh finished after being superseded")
		return round
	}

	logger.Info("refresh completed",
		"tile_count", len(c.tiles),
		"failed", failed.Load(),
		"total", c.store.Snapshot().Total,
	)
	return round
}

// Stop cancels the active round, if any.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// release frees the round's context and forgets it if it is still current.
func (c *Controller) release(round uint64, cancel context.CancelFunc) {
	c.mu.Lock()
	if c.round == round {
		c.cancel = nil
	}
	c.mu.Unlock()
	cancel()
}

// fetchAndMerge fetches one tile and merges the outcome. It reports false
// when the outcome was a failure that reached the store.
func (c *Controller) fetchAndMerge(ctx context.Context, round uint64, tile TileInfo, logger *slog.Logger) bool {
	count, latency, err := c.fetcher.FetchCount(ctx, tile)
	if errors.Is(err, ErrCancelled) {
		logger.Debug("fetch cancelled", "tile", tile.ID)
		return true
	}

	outcome := store.Outcome{
		ID:        tile.ID,
		Count:     count,
		Err:       err,
		Latency:   latency,
		CheckedAt: time.Now(),
	}
	if !c.store.Apply(round, outcome) {
		logger.Debug("stale result discarded", "tile", tile.ID)
		return true
	}

	logAttrs := []any{
		"tile", tile.ID,
		"url", tile.CountURL,
		"latency_ms", latency.Milliseconds(),
	}
	if err != nil {
		logger.Warn("count fetch failed", append(logAttrs, "error", err.Error())...)
	} else {
		logger.Debug("count fetched", append(logAttrs, "count", count)...)
	}

	if c.onResult != nil {
		c.onResult(Result{
			TileID:    tile.ID,
			Round:     round,
			Count:     count,
			Err:       err,
			Latency:   latency,
			CheckedAt: outcome.CheckedAt,
		})
	}
	return err == nil
}
