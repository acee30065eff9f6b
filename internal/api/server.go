// Package api provides the HTTP API for watching a run.
// GET endpoints are public and read the latest published snapshot.
// POST endpoints require a bearer token and control the engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/engine"
	"github.com/talgya/catsim/internal/persistence"
)

// Server serves the run over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.SQLStore // optional, enables /api/v1/history
	RunID    string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Active stream connection count (atomic).
	streamConns int32
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	stateLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", RateLimitMiddleware(stateLimiter, s.handleState))
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/cats", s.handleCats)
	mux.HandleFunc("/api/v1/cat/", s.handleCatDetail)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/report", s.handleReport)
	mux.HandleFunc("/api/v1/history", s.handleHistory)

	mux.HandleFunc("/api/v1/stream", s.handleStream)

	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/resume", s.adminOnly(s.handleResume))

	return corsMiddleware(mux)
}

// Start serves the API in a goroutine until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require POST with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Snapshot()
	status := map[string]any{
		"name":        "catsim",
		"run_id":      s.RunID,
		"step":        snap.Step,
		"n_steps":     snap.Steps,
		"sim_time":    snap.Time,
		"hour_of_day": snap.Hour,
		"temperature": snap.Temperature,
		"weather":     snap.Weather,
		"population":  snap.Population,
		"seed":        snap.Seed,
		"running":     s.Eng.Running(),
		"paused":      s.Eng.Paused(),
		"finished":    snap.Finished,
		"stats":       snap.Stats,
	}
	writeJSON(w, status)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.Snapshot())
}

// handleMap returns one layer of the grid as a matrix of numbers.
// Layers: type (default), food, elevation, cats, xtrace, ytrace.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	layer := r.URL.Query().Get("layer")
	if layer == "" {
		layer = "type"
	}
	var pick func(engine.CellView) float64
	switch layer {
	case "type":
		pick = func(c engine.CellView) float64 { return float64(c.Type) }
	case "food":
		pick = func(c engine.CellView) float64 { return c.Food }
	case "elevation":
		pick = func(c engine.CellView) float64 { return float64(c.Elevation) }
	case "cats":
		pick = func(c engine.CellView) float64 { return float64(c.Cats) }
	case "xtrace":
		pick = func(c engine.CellView) float64 { return c.XTrace }
	case "ytrace":
		pick = func(c engine.CellView) float64 { return c.YTrace }
	default:
		http.Error(w, fmt.Sprintf("unknown layer %q", layer), http.StatusBadRequest)
		return
	}

	snap := s.Eng.Snapshot()
	grid := make([][]float64, len(snap.Cells))
	for y, row := range snap.Cells {
		grid[y] = make([]float64, len(row))
		for x, cell := range row {
			grid[y][x] = pick(cell)
		}
	}
	writeJSON(w, map[string]any{
		"step":   snap.Step,
		"width":  snap.Width,
		"height": snap.Height,
		"layer":  layer,
		"grid":   grid,
	})
}

// handleCats lists live cats, optionally filtered by state, gender or
// personality name.
func (s *Server) handleCats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, gender, personality := q.Get("state"), q.Get("gender"), q.Get("personality")

	cats := []engine.CatView{}
	for _, c := range s.Eng.Snapshot().Cats {
		if state != "" && c.State.String() != state {
			continue
		}
		if gender != "" && c.Gender.String() != gender {
			continue
		}
		if personality != "" && c.Personality.String() != personality {
			continue
		}
		cats = append(cats, c)
	}
	writeJSON(w, cats)
}

func (s *Server) handleCatDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/cat/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid cat ID", http.StatusBadRequest)
		return
	}
	cat, ok := s.Eng.Snapshot().Cat(agents.CatID(id))
	if !ok {
		http.Error(w, "cat not found", http.StatusNotFound)
		return
	}
	writeJSON(w, struct {
		engine.CatView
		StateHours map[string]int `json:"state_hours"`
	}{cat, cat.Stats.StateHoursByName()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Eng.Snapshot().Events
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := []engine.Event{}
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.Snapshot().Report)
}

// handleHistory returns the saved tick summaries of the current run.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history requires a sql store", http.StatusNotFound)
		return
	}
	rows, err := s.DB.Ticks(s.RunID)
	if err != nil {
		slog.Error("history query failed", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []persistence.TickRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.Eng.Pause()
	slog.Info("engine paused via API")
	writeJSON(w, map[string]any{"paused": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.Eng.Resume()
	slog.Info("engine resumed via API")
	writeJSON(w, map[string]any{"paused": false})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
