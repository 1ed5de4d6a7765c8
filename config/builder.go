package config

import (
	"sort"

	"github.com/ntwoods/countboard"
)

// BuildTiles converts parsed configuration into SDK Tile objects, in the
// order they appear in the file.
func BuildTiles(cfg *Config) ([]countboard.Tile, error) {
	tiles := make([]countboard.Tile, 0, len(cfg.Tiles))
	for _, tc := range cfg.Tiles {
		t, err := buildTile(tc)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// BuildOptions converts parsed configuration into [countboard.Option] values
// ready to pass to [countboard.New]. The tiles are included.
func BuildOptions(cfg *Config) ([]countboard.Option, error) {
	tiles, err := BuildTiles(cfg)
	if err != nil {
		return nil, err
	}

	opts := []countboard.Option{
		countboard.WithTiles(tiles...),
		countboard.WithPort(cfg.Port),
		countboard.WithRefreshInterval(cfg.RefreshInterval.Duration()),
	}
	if cfg.Title != "" {
		opts = append(opts, countboard.WithTitle(cfg.Title))
	}
	if cfg.User != "" {
		opts = append(opts, countboard.WithUser(cfg.User))
	}
	if cfg.MaxConcurrency > 0 {
		opts = append(opts, countboard.WithMaxConcurrency(cfg.MaxConcurrency))
	}
	if cfg.QuickLink != nil {
		opts = append(opts, countboard.WithQuickLink(cfg.QuickLink.Title, cfg.QuickLink.URL))
	}
	return opts, nil
}

// buildTile converts a single TileConfig to an SDK Tile.
func buildTile(tc TileConfig) (countboard.Tile, error) {
	var opts []countboard.TileOption

	if tc.Description != "" {
		opts = append(opts, countboard.WithDescription(tc.Description))
	}

	if tc.Icon != "" {
		opts = append(opts, countboard.WithIcon(tc.Icon))
	}

	if tc.Timeout != 0 {
		opts = append(opts, countboard.WithTimeout(tc.Timeout.Duration()))
	}

	if len(tc.Headers) > 0 {
		opts = append(opts, countboard.WithHeaders(mapToKeyValuePairs(tc.Headers)...))
	}

	if extractor := buildExtractor(tc.Extractor); extractor != nil {
		opts = append(opts, countboard.WithExtractor(extractor))
	}

	return countboard.NewTile(tc.ID, tc.Title, tc.URL, tc.CountURL, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildExtractor converts ExtractorConfig to a CountExtractor function.
// Returns nil for default/empty extractors (SDK uses DefaultExtractor).
func buildExtractor(ec ExtractorConfig) countboard.CountExtractor {
	switch ec.Type {
	case "field":
		return countboard.CountField(ec.Path)
	case "length":
		return countboard.SequenceLength(ec.Path)
	default:
		// nil signals SDK to use DefaultExtractor
		return nil
	}
}
