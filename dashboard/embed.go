// Package dashboard provides the embedded web UI assets for countboard.
//
// The page is an html/template rendered server-side on every request to "/"
// and then kept current in the browser by the /api/sse event stream. Inline
// CSS and JavaScript keep the binary self-contained.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard page template.
//
//	assets/
//	  index.html    - page template with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
