package countboard

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const defaultTileTimeout = 10 * time.Second

// Tile describes one dashboard tile: where it navigates and where its
// pending count comes from.
//
// Tile is immutable after creation via [NewTile]. All fields are private with
// getter methods that return copies of mutable data (maps).
//
// Tiles are configured using the functional options pattern with
// [TileOption] functions such as [WithDescription], [WithIcon],
// [WithHeaders], [WithTimeout] and [WithExtractor].
type Tile struct {
	id          string
	title       string
	url         string
	countURL    string
	description string
	icon        string
	headers     map[string]string
	timeout     time.Duration
	extractor   CountExtractor
}

// ID returns the tile's unique identifier.
func (t Tile) ID() string {
	return t.id
}

// Title returns the tile's display title.
func (t Tile) Title() string {
	return t.title
}

// URL returns the navigation target opened when the tile is clicked.
func (t Tile) URL() string {
	return t.url
}

// CountURL returns the URL fetched to obtain the pending count.
func (t Tile) CountURL() string {
	return t.countURL
}

// Description returns the tile's description text.
func (t Tile) Description() string {
	return t.description
}

// Icon returns the tile's icon key.
func (t Tile) Icon() string {
	return t.icon
}

// Headers returns a copy of the custom HTTP headers sent with count requests.
// Returns nil if no custom headers are set.
func (t Tile) Headers() map[string]string {
	return copyMap(t.headers)
}

// Timeout returns the count request timeout.
// Defaults to 10 seconds if not explicitly set via [WithTimeout].
func (t Tile) Timeout() time.Duration {
	return t.timeout
}

// Extractor returns the tile's [CountExtractor].
// Returns nil if none was set, in which case [DefaultExtractor] applies.
func (t Tile) Extractor() CountExtractor {
	return t.extractor
}

// NewTile creates a [Tile].
//
// The id must be unique within a [Board]. Both rawURL (navigation target)
// and countURL (count source) must be absolute http or https URLs. Shared
// keys for the count source are usually embedded in countURL's query string.
//
// Example:
//
//	tile, err := countboard.NewTile("lr-rm", "Marking on LR",
//	    "https://ntwoods.github.io/rmOnLR/",
//	    "https://script.google.com/macros/s/XYZ/exec?action=COUNT_ELIGIBLE&key=secret",
//	    countboard.WithDescription("See LR/RM pending list and complete marking workflow."),
//	    countboard.WithIcon("truck"),
//	)
func NewTile(id, title, rawURL, countURL string, opts ...TileOption) (Tile, error) {
	if id == "" {
		return Tile{}, errors.New("tile id cannot be empty")
	}
	if title == "" {
		return Tile{}, errors.New("tile title cannot be empty")
	}
	if err := validateURL(rawURL); err != nil {
		return Tile{}, fmt.Errorf("tile %q: url: %w", id, err)
	}
	if err := validateURL(countURL); err != nil {
		return Tile{}, fmt.Errorf("tile %q: count url: %w", id, err)
	}

	cfg := &tileConfig{
		headers: make(map[string]string),
		timeout: defaultTileTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Tile{}, fmt.Errorf("tile %q: %w", id, err)
		}
	}

	if len(cfg.headers) == 0 {
		cfg.headers = nil
	}

	return Tile{
		id:          id,
		title:       title,
		url:         rawURL,
		countURL:    countURL,
		description: cfg.description,
		icon:        cfg.icon,
		headers:     cfg.headers,
		timeout:     cfg.timeout,
		extractor:   cfg.extractor,
	}, nil
}

// validateURL requires an absolute http or https URL.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL: " + err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("URL must have a scheme (http:// or https://)")
	}
	if parsed.Host == "" {
		return errors.New("URL must have a host")
	}
	return nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
