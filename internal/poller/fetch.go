package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// Failure kinds reported by [Fetcher.FetchCount]. Use errors.Is to classify
// an error returned by the fetcher.
var (
	// ErrNetwork means the request could not complete, including timeouts.
	ErrNetwork = errors.New("network failure")

	// ErrBadResponse means the endpoint answered with a non-2xx status or a
	// body that could not be interpreted.
	ErrBadResponse = errors.New("bad response")

	// ErrCancelled means the enclosing round was cancelled before the fetch
	// settled. Results of this kind are discarded, never displayed.
	ErrCancelled = errors.New("cancelled")
)

// FetchError is the failure returned by [Fetcher.FetchCount].
type FetchError struct {
	// Kind is one of ErrNetwork, ErrBadResponse or ErrCancelled.
	Kind error

	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// CountExtractor reads a pending count out of a decoded JSON document.
//
// The second return value reports whether the document had a recognizable
// shape. This is the poller-internal version, independent of the
// countboard.CountExtractor type to avoid circular dependencies.
type CountExtractor func(doc any) (int, bool)

// TileInfo contains the configuration needed to fetch one tile's count.
type TileInfo struct {
	// ID is the unique tile identifier.
	ID string

	// CountURL is the GET target returning the count.
	CountURL string

	// Headers contains custom HTTP headers to send with requests.
	Headers map[string]string

	// Timeout is the per-request timeout. Zero uses 10 seconds.
	Timeout time.Duration

	// Extractor reads the count from the decoded body. nil uses [DefaultCount].
	Extractor CountExtractor
}

// Fetcher issues count requests and interprets their responses.
type Fetcher struct {
	client *Client
	logger *slog.Logger
}

// NewFetcher creates a [Fetcher] using the given client.
func NewFetcher(client *Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// FetchCount requests tile.CountURL and extracts the pending count.
//
// A body that decodes but matches no known shape yields a count of 0 and no
// error. On failure the returned error is a *[FetchError].
func (f *Fetcher) FetchCount(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
	timeout := tile.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	resp := f.client.Fetch(ctx, tile.CountURL, tile.Headers, timeout)

	// check the round context, not the per-request one: a request timeout
	// is a network failure, a cancelled round is not
	if err := ctx.Err(); err != nil {
		return 0, resp.Latency, &FetchError{Kind: ErrCancelled, Err: err}
	}
	if resp.Error != nil {
		return 0, resp.Latency, &FetchError{Kind: ErrNetwork, Err: resp.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, resp.Latency, &FetchError{
			Kind: ErrBadResponse,
			Err:  fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	var doc any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return 0, resp.Latency, &FetchError{Kind: ErrBadResponse, Err: fmt.Errorf("invalid JSON body: %w", err)}
	}

	extractor := tile.Extractor
	if extractor == nil {
		extractor = DefaultCount
	}

	count, err := f.safeExtract(extractor, doc)
	if err != nil {
		return 0, resp.Latency, &FetchError{Kind: ErrBadResponse, Err: err}
	}
	return count, resp.Latency, nil
}

// Close releases idle connections held by the underlying client.
func (f *Fetcher) Close() {
	if f == nil {
		return
	}
	f.client.Close()
}

// safeExtract calls the extractor with panic recovery.
// If the extractor panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (f *Fetcher) safeExtract(extractor CountExtractor, doc any) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			f.logger.Error("extractor panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)

			count = 0
			err = fmt.Errorf("extractor panic (correlation_id: %s)", correlationID)
		}
	}()

	n, ok := extractor(doc)
	if !ok {
		return 0, nil
	}
	return max(n, 0), nil
}

// DefaultCount recognizes, in order: a numeric "count" field, a top-level
// array, a "data" array and an "items" array. Array shapes yield their length.
func DefaultCount(doc any) (int, bool) {
	if obj, ok := doc.(map[string]any); ok {
		if n, ok := NumberCount(obj["count"]); ok {
			return n, true
		}
	}
	if arr, ok := doc.([]any); ok {
		return len(arr), true
	}
	if obj, ok := doc.(map[string]any); ok {
		for _, key := range []string{"data", "items"} {
			if arr, ok := obj[key].([]any); ok {
				return len(arr), true
			}
		}
	}
	return 0, false
}

// NumberCount converts a decoded JSON value into a count. Only non-negative
// finite numbers qualify; fractions are truncated.
func NumberCount(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(f), true
}
