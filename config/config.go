// Package config provides YAML configuration parsing for countboard.
//
// This package enables running countboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Operations
//	user: Dana
//	refresh_interval: 60s
//
//	quick_link:
//	  title: Preview
//	  url: https://preview.example.com
//
//	tiles:
//	  - id: approve
//	    title: Approve Orders
//	    url: https://orders.example.com/approve
//	    count_url: https://api.example.com/pending/approve
//	    icon: check
//	    headers:
//	      X-Dash-Key: ${DASH_KEY}
//	    extractor: field:summary.pending
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = 8080
	defaultRefreshInterval = 60 * time.Second

	// minRefreshInterval keeps an accidental "1ms" from hammering count endpoints.
	minRefreshInterval = 1 * time.Second
)

// Config is the root configuration structure for countboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Countboard" if not set.
	Title string `yaml:"title"`

	// User is the name shown in the dashboard header.
	User string `yaml:"user"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// RefreshInterval is the time between refresh rounds.
	// Accepts duration strings like "60s", "5m". Defaults to 60s.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// MaxConcurrency bounds the count requests in flight per round.
	// Zero uses the SDK default.
	MaxConcurrency int `yaml:"max_concurrency"`

	// QuickLink is the optional fixed navigation shown below the tiles.
	QuickLink *QuickLinkConfig `yaml:"quick_link"`

	// Tiles defines the dashboard tiles in display order.
	Tiles []TileConfig `yaml:"tiles"`
}

// QuickLinkConfig defines the fixed secondary navigation.
type QuickLinkConfig struct {
	Title string `yaml:"title"`

	// URL supports environment variable substitution.
	URL string `yaml:"url"`
}

// TileConfig defines a single dashboard tile.
type TileConfig struct {
	// ID uniquely identifies the tile. It appears in /open/{id}.
	ID string `yaml:"id"`

	// Title is the display name shown on the tile.
	Title string `yaml:"title"`

	// URL is where the tile navigates when clicked.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// CountURL is the endpoint returning the pending count as JSON.
	// Supports environment variable substitution.
	CountURL string `yaml:"count_url"`

	Description string `yaml:"description"`

	// Icon is one of check, truck, bulb or refresh.
	Icon string `yaml:"icon"`

	// Timeout is the count request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are custom HTTP headers sent with each count request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Extractor determines how the count is read from the response.
	// Can be shorthand ("field:summary.pending", "length:rows") or structured.
	Extractor ExtractorConfig `yaml:"extractor"`
}

// ExtractorConfig specifies how to read a count from a JSON response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	extractor: default
//	extractor: field:summary.pending
//	extractor: length
//	extractor: length:data.rows
//
// Structured object:
//
//	extractor:
//	  type: field
//	  path: summary.pending
type ExtractorConfig struct {
	// Type is the extractor type: "default", "field" or "length".
	Type string

	// Path is the dot-separated JSON path. For "length" an empty path
	// means the response body itself.
	Path string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ExtractorConfig.
func (e *ExtractorConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return e.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type string `yaml:"type"`
			Path string `yaml:"path"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Type = raw.Type
		e.Path = raw.Path
		return nil
	}

	return fmt.Errorf("extractor must be a string or object, got %v", node.Kind)
}

// parseShorthand parses extractor shorthand syntax.
//
// Supported formats:
//   - "default" → try count, root array, data, items
//   - "field:path" → numeric field at path
//   - "length" → length of the root array
//   - "length:path" → length of the array at path
func (e *ExtractorConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if kind, value, ok := strings.Cut(s, ":"); ok {
		switch kind {
		case "field", "length":
			e.Type = kind
			e.Path = value
		default:
			return fmt.Errorf("unknown extractor type %q", kind)
		}
		return nil
	}

	switch s {
	case "default", "length":
		e.Type = s
	default:
		return fmt.Errorf("unknown extractor %q (expected 'default', 'field:path', 'length', or 'length:path')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in tile URLs, count URLs, header values
// and the quick link URL. Defaults are applied for Port (8080) and
// RefreshInterval (60s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = Duration(defaultRefreshInterval)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.RefreshInterval.Duration() < minRefreshInterval {
		return fmt.Errorf("refresh_interval must be at least %s, got %s", minRefreshInterval, c.RefreshInterval.Duration())
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}

	if c.QuickLink != nil {
		if c.QuickLink.Title == "" {
			return errors.New("quick_link: title is required")
		}
		if c.QuickLink.URL == "" {
			return errors.New("quick_link: url is required")
		}
		expanded, err := expandURL(c.QuickLink.URL)
		if err != nil {
			return fmt.Errorf("quick_link: url: %w", err)
		}
		c.QuickLink.URL = expanded
	}

	if len(c.Tiles) == 0 {
		return errors.New("at least one tile must be defined")
	}

	seen := make(map[string]int, len(c.Tiles))
	for i := range c.Tiles {
		tc := &c.Tiles[i]

		if tc.ID == "" {
			return fmt.Errorf("tiles[%d]: id is required", i)
		}
		if prev, exists := seen[tc.ID]; exists {
			return fmt.Errorf("tiles[%d] (%s): duplicate id, first defined at tiles[%d]", i, tc.ID, prev)
		}
		seen[tc.ID] = i

		if tc.Title == "" {
			return fmt.Errorf("tiles[%d] (%s): title is required", i, tc.ID)
		}

		if tc.URL == "" {
			return fmt.Errorf("tiles[%d] (%s): url is required", i, tc.ID)
		}
		if tc.CountURL == "" {
			return fmt.Errorf("tiles[%d] (%s): count_url is required", i, tc.ID)
		}

		expanded, err := expandURL(tc.URL)
		if err != nil {
			return fmt.Errorf("tiles[%d] (%s): url: %w", i, tc.ID, err)
		}
		tc.URL = expanded

		expanded, err = expandURL(tc.CountURL)
		if err != nil {
			return fmt.Errorf("tiles[%d] (%s): count_url: %w", i, tc.ID, err)
		}
		tc.CountURL = expanded

		for k, v := range tc.Headers {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("tiles[%d] (%s): headers[%s]: %w", i, tc.ID, k, err)
			}
			tc.Headers[k] = expanded
		}

		if tc.Timeout != 0 {
			if tc.Timeout.Duration() < 0 {
				return fmt.Errorf("tiles[%d] (%s): timeout cannot be negative, got %s",
					i, tc.ID, tc.Timeout.Duration())
			}
			if tc.Timeout.Duration() < 100*time.Millisecond {
				return fmt.Errorf("tiles[%d] (%s): timeout must be at least 100ms if specified, got %s",
					i, tc.ID, tc.Timeout.Duration())
			}
		}

		if err := validateExtractor(&tc.Extractor, fmt.Sprintf("tiles[%d] (%s)", i, tc.ID)); err != nil {
			return err
		}
	}

	return nil
}

// expandURL expands environment variables in an http(s) URL and validates it.
func expandURL(raw string) (string, error) {
	expanded, err := expandEnvVars(raw)
	if err != nil {
		return "", err
	}

	parsed, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", errors.New("must have a scheme (http:// or https://)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("must have a host")
	}
	return expanded, nil
}

// validateExtractor validates an extractor configuration.
func validateExtractor(e *ExtractorConfig, context string) error {
	switch e.Type {
	case "", "default", "length":
		// length with no path counts the root array
	case "field":
		if e.Path == "" {
			return fmt.Errorf("%s: extractor type 'field' requires a path", context)
		}
	default:
		return fmt.Errorf("%s: unknown extractor type %q", context, e.Type)
	}
	return nil
}
