package server

import (
	"html/template"
	"strings"
)

// iconPaths holds the SVG path data for each icon key.
var iconPaths = map[string][]string{
	"check": {
		"M9 6h11", "M9 12h11", "M9 18h11",
		"M4 6l1 1 2-2", "M4 12l1 1 2-2", "M4 18l1 1 2-2",
	},
	"truck": {
		"M3 7h11v10H3z", "M14 10h4l3 3v4h-7z",
		"M7 19a1.5 1.5 0 1 0 0 .01", "M18 19a1.5 1.5 0 1 0 0 .01",
	},
	"bulb": {
		"M9 18h6", "M10 22h4",
		"M8 14a6 6 0 1 1 8 0c-1.2 1-2 2.2-2 3H10c0-.8-.8-2-2-3z",
	},
	"refresh": {
		"M20 12a8 8 0 1 1-2.34-5.66", "M20 4v6h-6",
	},
}

var fallbackIcon = []string{"M12 2v20", "M2 12h20"}

// iconSVG renders the inline SVG for an icon key. Unknown keys get a plus sign.
func iconSVG(key string) template.HTML {
	paths, ok := iconPaths[key]
	if !ok {
		paths = fallbackIcon
	}

	var b strings.Builder
	b.WriteString(`<svg width="22" height="22" viewBox="0 0 24 24" fill="none" aria-hidden="true">`)
	for _, d := range paths {
		// path data is a compile-time constant, never user input
		b.WriteString(`<path stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" d="`)
		b.WriteString(d)
		b.WriteString(`"/>`)
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}
