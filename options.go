package countboard

import (
	"errors"
	"log/slog"
	"time"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	user            string
	tiles           []Tile
	refreshInterval time.Duration
	port            int
	maxConcurrency  int
	quickLink       *QuickLink
	logger          *slog.Logger
	statusCallbacks []func(TileResult)
}

// QuickLink is the fixed secondary navigation shown beside the tiles.
type QuickLink struct {
	Title string
	URL   string
}

// Option is a function that configures a [Board] during construction.
//
// Options return an error if validation fails.
//
// Built-in options: [WithTile], [WithTiles], [WithRefreshInterval],
// [WithPort], [WithMaxConcurrency], [WithLogger], [WithStatusCallback],
// [WithTitle], [WithUser], [WithQuickLink].
type Option func(*boardConfig) error

// WithTile adds a single [Tile] to the dashboard.
//
// Can be called multiple times. Tiles are displayed in the order added. At
// least one tile must be configured for [New] to succeed.
func WithTile(t Tile) Option {
	return func(cfg *boardConfig) error {
		cfg.tiles = append(cfg.tiles, t)
		return nil
	}
}

// WithTiles adds multiple [Tile] values to the dashboard.
//
// Equivalent to calling [WithTile] for each tile in order.
func WithTiles(tiles ...Tile) Option {
	return func(cfg *boardConfig) error {
		cfg.tiles = append(cfg.tiles, tiles...)
		return nil
	}
}

// WithRefreshInterval sets how often every tile's count is refreshed.
//
// Defaults to 60 seconds. Each round fetches all tiles concurrently and
// supersedes any round still in flight.
//
// Returns an error if the duration is zero or negative.
func WithRefreshInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("refresh interval must be positive")
		}
		cfg.refreshInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets the maximum number of count requests in flight
// during one round. Defaults to 10.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *boardConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStatusCallback registers a function called every time a fetch outcome
// is merged into the dashboard.
//
// Callbacks may run concurrently for different tiles of the same round and
// must be safe for concurrent use. They should not block: a blocking callback
// delays the end of the round. Panics are recovered and logged.
//
// Example:
//
//	board, err := countboard.New(
//	    countboard.WithTile(tile),
//	    countboard.WithStatusCallback(func(r countboard.TileResult) {
//	        if r.Err != nil {
//	            log.Printf("count for %s unavailable: %v", r.TileID, r.Err)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithStatusCallback(cb func(TileResult)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.statusCallbacks = append(cfg.statusCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "Countboard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithUser sets the user name shown in the dashboard greeting.
func WithUser(user string) Option {
	return func(cfg *boardConfig) error {
		cfg.user = user
		return nil
	}
}

// WithQuickLink adds the fixed secondary navigation button.
//
// Returns an error if the title is empty or the URL is not an absolute
// http or https URL.
func WithQuickLink(title, rawURL string) Option {
	return func(cfg *boardConfig) error {
		if title == "" {
			return errors.New("quick link title cannot be empty")
		}
		if err := validateURL(rawURL); err != nil {
			return errors.New("quick link: " + err.Error())
		}
		cfg.quickLink = &QuickLink{Title: title, URL: rawURL}
		return nil
	}
}
