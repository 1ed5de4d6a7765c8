package server

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ntwoods/countboard/internal/store"
)

// lastUpdatedLayout mirrors a short locale date: "Jan 02, 2006, 03:04 PM".
const lastUpdatedLayout = "Jan 02, 2006, 03:04 PM"

// Tile is the static, presentation-only description of a tile.
type Tile struct {
	ID          string
	Title       string
	URL         string
	Description string
	Icon        string
}

// Link is a fixed navigation destination.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Page holds everything the dashboard renders besides live statuses.
type Page struct {
	Title           string
	User            string
	RefreshInterval time.Duration
	Tiles           []Tile
	QuickLink       *Link
}

// Pill is the status indicator shown on a tile.
type Pill struct {
	// Kind selects the visual style: info, danger, warn or ok.
	Kind string `json:"kind"`

	// Label is the indicator text.
	Label string `json:"label"`

	// Detail is auxiliary text, e.g. the error message.
	Detail string `json:"detail,omitempty"`
}

// TileView is one tile as rendered.
type TileView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Host        string `json:"host"`
	OpenPath    string `json:"open_path"`
	State       string `json:"state"`
	Count       int    `json:"count"`
	Pill        Pill   `json:"pill"`
}

// View is the complete rendered state of the dashboard. It is sent as JSON
// by the API and SSE stream, and fed to the page template.
type View struct {
	Title           string     `json:"title"`
	User            string     `json:"user"`
	RefreshEvery    string     `json:"refresh_every"`
	Round           uint64     `json:"round"`
	Total           int        `json:"total"`
	LastUpdated     *time.Time `json:"last_updated"`
	LastUpdatedText string     `json:"last_updated_text"`
	Tiles           []TileView `json:"tiles"`
	QuickLink       *Link      `json:"quick_link,omitempty"`
}

// pillFor maps a tile status to its indicator.
func pillFor(st store.TileStatus) Pill {
	switch st.State {
	case store.StateError:
		return Pill{Kind: "danger", Label: "API Error", Detail: st.Error}
	case store.StateOK:
		if st.Count > 0 {
			return Pill{Kind: "warn", Label: fmt.Sprintf("Pending: %d", st.Count)}
		}
		return Pill{Kind: "ok", Label: "All Clear"}
	default:
		return Pill{Kind: "info", Label: "Checking…"}
	}
}

// buildView renders the page for a snapshot. Tiles missing from the snapshot
// render as idle.
func buildView(page Page, snap store.Snapshot) View {
	title := page.Title
	if title == "" {
		title = defaultTitle
	}

	v := View{
		Title:           title,
		User:            page.User,
		RefreshEvery:    formatInterval(page.RefreshInterval),
		Round:           snap.Round,
		Total:           snap.Total,
		LastUpdated:     snap.LastUpdated,
		LastUpdatedText: formatLastUpdated(snap.LastUpdated),
		Tiles:           make([]TileView, 0, len(page.Tiles)),
		QuickLink:       page.QuickLink,
	}

	for _, t := range page.Tiles {
		st, ok := snap.Tile(t.ID)
		if !ok {
			st = store.TileStatus{ID: t.ID, State: store.StateIdle}
		}
		v.Tiles = append(v.Tiles, TileView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Icon:        t.Icon,
			Host:        displayHost(t.URL),
			OpenPath:    "/open/" + url.PathEscape(t.ID),
			State:       string(st.State),
			Count:       st.Count,
			Pill:        pillFor(st),
		})
	}

	return v
}

func formatLastUpdated(t *time.Time) string {
	if t == nil {
		return "Loading..."
	}
	return t.Local().Format(lastUpdatedLayout)
}

// formatInterval prints whole-second intervals as "60s" rather than "1m0s".
func formatInterval(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}

// displayHost strips the scheme from a URL for display.
func displayHost(rawURL string) string {
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(rawURL, prefix) {
			return strings.TrimPrefix(rawURL, prefix)
		}
	}
	return rawURL
}
