package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ntwoods/countboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Countboard"

	indexTemplate = "assets/index.html"
)

// Server handles HTTP requests for the countboard dashboard and API.
//
// Routes:
//   - GET /: Renders the embedded dashboard page
//   - GET /api/status: Returns the current view as JSON
//   - GET /api/sse: Server-Sent Events stream of the view
//   - POST /api/refresh: Requests an immediate refresh round
//   - GET /open/{id}: Redirects to a tile's navigation URL
//   - GET /preview: Redirects to the quick link destination
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	assets     fs.FS
	page       Page
	trigger    func()
	logger     *slog.Logger
	tmpl       *template.Template
	httpServer *http.Server
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding tile statuses
//   - port: TCP port to listen on (0 picks a free port)
//   - assets: Embedded filesystem containing the page template (may be nil)
//   - page: Static presentation settings and tile metadata
//   - trigger: Requests a manual refresh round (may be nil)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, assets fs.FS, page Page, trigger func(), logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		port:    port,
		assets:  assets,
		page:    page,
		trigger: trigger,
		logger:  logger,
	}
}

// Handler builds the request router. It parses the page template on first
// use and returns an error if the template is invalid.
func (s *Server) Handler() (http.Handler, error) {
	if s.assets != nil && s.tmpl == nil {
		tmpl, err := template.New("index.html").
			Funcs(template.FuncMap{"icon": iconSVG}).
			ParseFS(s.assets, indexTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
		}
		s.tmpl = tmpl
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/sse", s.handleSSE)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /open/{id}", s.handleOpen)
	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("GET /{$}", s.handleDashboard)

	return mux, nil
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the template is invalid or the port cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// currentView renders the view for the store's current snapshot.
func (s *Server) currentView() View {
	return buildView(s.page, s.store.Snapshot())
}

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.tmpl == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// render to a buffer so a template error never produces a half page
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, s.currentView()); err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "Dashboard unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleStatus returns the current view as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.currentView()); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
	}
}

// handleRefresh requests a manual refresh round.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		http.Error(w, "Refresh unavailable", http.StatusServiceUnavailable)
		return
	}

	s.trigger()
	s.logger.Debug("manual refresh requested", "remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"accepted"}` + "\n"))
}

// handleOpen performs full navigation to a tile's URL.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, t := range s.page.Tiles {
		if t.ID == id {
			s.logger.Debug("tile opened", "tile", id)
			http.Redirect(w, r, t.URL, http.StatusSeeOther)
			return
		}
	}
	http.NotFound(w, r)
}

// handlePreview navigates to the quick link destination.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.page.QuickLink == nil {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, s.page.QuickLink.URL, http.StatusSeeOther)
}

// handleSSE streams the view via Server-Sent Events after every store change.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// may not be supported by some ResponseWriter impls
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before the initial write so no change is missed in between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	data, err := json.Marshal(s.currentView())
	if err == nil {
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(buildView(s.page, snap))
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}
