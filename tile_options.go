package countboard

import (
	"errors"
	"time"
)

// tileConfig holds mutable state during tile construction.
type tileConfig struct {
	description string
	icon        string
	headers     map[string]string
	timeout     time.Duration
	extractor   CountExtractor
}

// TileOption is a function that configures a [Tile] during construction.
//
// Options return an error if validation fails.
type TileOption func(*tileConfig) error

// WithDescription sets the text shown under the tile title.
func WithDescription(desc string) TileOption {
	return func(cfg *tileConfig) error {
		cfg.description = desc
		return nil
	}
}

// WithIcon sets the tile's icon key.
//
// Known keys are "check", "truck", "bulb" and "refresh". Unknown or empty
// keys render a generic plus sign.
func WithIcon(key string) TileOption {
	return func(cfg *tileConfig) error {
		cfg.icon = key
		return nil
	}
}

// WithHeaders adds custom HTTP headers to count requests for this tile.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	tile, err := countboard.NewTile("approve", "Approve", navURL, countURL,
//	    countboard.WithHeaders("X-Dash-Key", key),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) TileOption {
	return func(cfg *tileConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the count request timeout for this tile.
//
// A request exceeding the timeout is reported as a network failure and the
// tile shows an error until the next round. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) TileOption {
	return func(cfg *tileConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithExtractor sets a custom [CountExtractor] for this tile.
//
// If not specified, the tile uses [DefaultExtractor].
//
// Example:
//
//	tile, err := countboard.NewTile("approve", "Approve", navURL, countURL,
//	    countboard.WithExtractor(countboard.CountField("summary.pending")),
//	)
func WithExtractor(e CountExtractor) TileOption {
	return func(cfg *tileConfig) error {
		cfg.extractor = e
		return nil
	}
}
