package countboard

import (
	"encoding/json"
	"testing"
)

// decode parses a JSON literal the way the fetcher does.
func decode(t *testing.T, body string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("invalid test JSON %q: %v", body, err)
	}
	return doc
}

func TestCountField(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		want   int
		wantOK bool
	}{
		{"top level", "count", `{"count": 3}`, 3, true},
		{"nested", "summary.pending", `{"summary": {"pending": 7}}`, 7, true},
		{"zero", "count", `{"count": 0}`, 0, true},
		{"fraction truncated", "count", `{"count": 2.9}`, 2, true},
		{"negative", "count", `{"count": -1}`, 0, false},
		{"string", "count", `{"count": "3"}`, 0, false},
		{"null", "count", `{"count": null}`, 0, false},
		{"missing", "count", `{"total": 3}`, 0, false},
		{"through array", "summary.pending", `{"summary": [1, 2]}`, 0, false},
		{"root array", "count", `[1, 2]`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CountField(tt.path)(decode(t, tt.body))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CountField(%q) = %d, %v, want %d, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSequenceLength(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		want   int
		wantOK bool
	}{
		{"root array", "", `[{}, {}, {}]`, 3, true},
		{"empty root array", "", `[]`, 0, true},
		{"root object", "", `{"data": []}`, 0, false},
		{"data", "data", `{"data": [1, 2]}`, 2, true},
		{"nested", "result.rows", `{"result": {"rows": [1]}}`, 1, true},
		{"not an array", "data", `{"data": {"a": 1}}`, 0, false},
		{"missing", "items", `{"data": [1]}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SequenceLength(tt.path)(decode(t, tt.body))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("SequenceLength(%q) = %d, %v, want %d, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFirstMatch(t *testing.T) {
	never := func(any) (int, bool) { return 99, false }
	always := func(any) (int, bool) { return 5, true }

	if n, ok := FirstMatch(never, always)(nil); !ok || n != 5 {
		t.Errorf("FirstMatch(never, always) = %d, %v, want 5, true", n, ok)
	}
	if n, ok := FirstMatch(never)(nil); ok || n != 0 {
		t.Errorf("FirstMatch(never) = %d, %v, want 0, false", n, ok)
	}
	if n, ok := FirstMatch()(nil); ok || n != 0 {
		t.Errorf("FirstMatch() = %d, %v, want 0, false", n, ok)
	}
}

func TestDefaultExtractor(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   int
		wantOK bool
	}{
		{"count field", `{"count": 3}`, 3, true},
		{"root array", `[1, 2, 3, 4]`, 4, true},
		{"data array", `{"data": [1, 2]}`, 2, true},
		{"items array", `{"items": [1]}`, 1, true},
		{"count wins over data", `{"count": 9, "data": [1]}`, 9, true},
		{"data wins over items", `{"data": [1, 2], "items": [1]}`, 2, true},
		{"negative count falls through", `{"count": -4, "items": [1, 2]}`, 2, true},
		{"string count falls through", `{"count": "7", "data": [1]}`, 1, true},
		{"unrecognized", `{"pending": 12}`, 0, false},
		{"scalar", `42`, 0, false},
		{"null", `null`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DefaultExtractor(decode(t, tt.body))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DefaultExtractor(%s) = %d, %v, want %d, %v", tt.body, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
