package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/capture"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/mcp"
	"github.com/bryanchriswhite/godotshot/internal/tools"
	"github.com/bryanchriswhite/godotshot/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// maxBodySize bounds a JSON-RPC POST body.
const maxBodySize = 10 << 20

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	rpc      *mcp.Server
	checker  tools.Checker
	windows  tools.Windows
	capturer tools.Capturer
	version  string
	upgrader websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(rpc *mcp.Server, checker tools.Checker, windows tools.Windows, capturer tools.Capturer, version string) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		rpc:      rpc,
		checker:  checker,
		windows:  windows,
		capturer: capturer,
		version:  version,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// MCP transports
	s.router.HandleFunc("/mcp", s.handleMCP).Methods("POST")
	s.router.HandleFunc("/mcp/ws", s.handleMCPSocket)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/windows", s.handleWindows).Methods("GET")
	api.HandleFunc("/godot/windows", s.handleGodotWindows).Methods("GET")
	api.HandleFunc("/screenshot", s.handleScreenshot).Methods("GET")
}

// Handler returns the router wrapped with CORS headers.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	log := logger.WithComponent("api")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := s.rpc.HandleMessage(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMCPSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("WebSocket read ended")
			}
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.rpc.HandleMessage(ctx, data)
			if resp == nil {
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(resp); err != nil {
				log.Warn().Err(err).Msg("WebSocket write error")
			}
		}()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	available := s.checker.Available(r.Context())
	if !available {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"version":   s.version,
		"available": available,
	})
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.windows.List(r.Context(), r.URL.Query().Get("pattern"))
	if err != nil {
		writeError(w, err)
		return
	}
	if windows == nil {
		windows = []window.Record{}
	}
	writeJSON(w, http.StatusOK, windows)
}

func (s *Server) handleGodotWindows(w http.ResponseWriter, r *http.Request) {
	all, err := s.windows.List(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	debug := window.DebugWindows(all)
	editor := window.EditorWindows(all)
	if debug == nil {
		debug = []window.Record{}
	}
	if editor == nil {
		editor = []window.Record{}
	}
	writeJSON(w, http.StatusOK, map[string][]window.Record{
		"debug":  debug,
		"editor": editor,
	})
}

// handleScreenshot returns raw image bytes. Without a title it captures the
// full screen.
func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var opts capture.Options
	if f := q.Get("format"); f != "" {
		format, err := capture.ParseFormat(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts.Format = format
	}

	if !s.checker.Available(r.Context()) {
		writeError(w, bridge.ErrUnavailable)
		return
	}

	var res *capture.Result
	var err error
	if title := q.Get("title"); title != "" {
		exact, _ := strconv.ParseBool(q.Get("exact"))
		var target window.Record
		all, listErr := s.windows.List(r.Context(), "")
		if listErr != nil {
			writeError(w, listErr)
			return
		}
		if target, err = window.FindByTitle(all, title, exact); err != nil {
			writeError(w, err)
			return
		}
		res, err = s.capturer.CaptureWindow(r.Context(), target.Title, opts)
	} else {
		res, err = s.capturer.CaptureScreen(r.Context(), opts)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := res.Decode()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", res.MimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, window.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, bridge.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.WithComponent("api").Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
