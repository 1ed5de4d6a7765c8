package countboard

import (
	"strings"
	"testing"
	"time"
)

func TestNewTile_Valid(t *testing.T) {
	tile, err := NewTile("approve", "Approve", "https://orders.example.com/approve", "https://api.example.com/pending")
	if err != nil {
		t.Fatalf("NewTile() error = %v", err)
	}

	if tile.ID() != "approve" {
		t.Errorf("ID() = %q, want approve", tile.ID())
	}
	if tile.Title() != "Approve" {
		t.Errorf("Title() = %q, want Approve", tile.Title())
	}
	if tile.URL() != "https://orders.example.com/approve" {
		t.Errorf("URL() = %q", tile.URL())
	}
	if tile.CountURL() != "https://api.example.com/pending" {
		t.Errorf("CountURL() = %q", tile.CountURL())
	}
	if tile.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want 10s", tile.Timeout())
	}
	if tile.Headers() != nil {
		t.Errorf("Headers() = %v, want nil", tile.Headers())
	}
	if tile.Extractor() != nil {
		t.Error("Extractor() should be nil by default")
	}
	if tile.Description() != "" || tile.Icon() != "" {
		t.Errorf("Description/Icon = %q/%q, want empty", tile.Description(), tile.Icon())
	}
}

func TestNewTile_Validation(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		title       string
		url         string
		countURL    string
		wantErrLike string
	}{
		{"empty id", "", "T", "https://a.example.com", "https://b.example.com", "id cannot be empty"},
		{"empty title", "x", "", "https://a.example.com", "https://b.example.com", "title cannot be empty"},
		{"url without scheme", "x", "T", "a.example.com", "https://b.example.com", "url"},
		{"ftp url", "x", "T", "ftp://a.example.com", "https://b.example.com", "scheme"},
		{"count url without host", "x", "T", "https://a.example.com", "https:///count", "count url"},
		{"empty count url", "x", "T", "https://a.example.com", "", "count url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTile(tt.id, tt.title, tt.url, tt.countURL)
			if err == nil {
				t.Fatal("NewTile() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErrLike)
			}
		})
	}
}

func TestNewTile_WithOptions(t *testing.T) {
	extractor := CountField("summary.pending")

	tile, err := NewTile("lr", "Marking on LR", "https://ntwoods.example.com/rm", "https://api.example.com/exec",
		WithDescription("See LR/RM pending list."),
		WithIcon("truck"),
		WithHeaders("X-Dash-Key", "secret", "Accept-Language", "en"),
		WithTimeout(3*time.Second),
		WithExtractor(extractor),
	)
	if err != nil {
		t.Fatalf("NewTile() error = %v", err)
	}

	if tile.Description() != "See LR/RM pending list." {
		t.Errorf("Description() = %q", tile.Description())
	}
	if tile.Icon() != "truck" {
		t.Errorf("Icon() = %q, want truck", tile.Icon())
	}
	if tile.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", tile.Timeout())
	}
	headers := tile.Headers()
	if headers["X-Dash-Key"] != "secret" || headers["Accept-Language"] != "en" {
		t.Errorf("Headers() = %v", headers)
	}
	if tile.Extractor() == nil {
		t.Error("Extractor() = nil, want custom extractor")
	}
}

func TestNewTile_OptionErrors(t *testing.T) {
	tests := []struct {
		name        string
		opt         TileOption
		wantErrLike string
	}{
		{"odd headers", WithHeaders("X-Only-Key"), "even number"},
		{"zero timeout", WithTimeout(0), "timeout must be positive"},
		{"negative timeout", WithTimeout(-time.Second), "timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTile("x", "X", "https://a.example.com", "https://b.example.com", tt.opt)
			if err == nil {
				t.Fatal("NewTile() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErrLike)
			}
			if !strings.Contains(err.Error(), `tile "x"`) {
				t.Errorf("error should name the tile: %v", err)
			}
		})
	}
}

func TestTile_HeadersImmutable(t *testing.T) {
	tile, err := NewTile("x", "X", "https://a.example.com", "https://b.example.com",
		WithHeaders("X-Dash-Key", "secret"),
	)
	if err != nil {
		t.Fatalf("NewTile() error = %v", err)
	}

	headers := tile.Headers()
	headers["X-Dash-Key"] = "modified"
	headers["X-New"] = "value"

	again := tile.Headers()
	if again["X-Dash-Key"] != "secret" {
		t.Errorf("mutation affected tile: Headers[X-Dash-Key] = %q", again["X-Dash-Key"])
	}
	if _, exists := again["X-New"]; exists {
		t.Error("mutation added a header to the tile")
	}
}
