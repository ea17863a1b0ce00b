package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"MarketBell/internal/calculator"
	"MarketBell/internal/model"
	"MarketBell/internal/recorder"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource is the read side of the market monitor.
type StatusSource interface {
	Snapshot() model.Snapshot
	Refresh()
	Now() time.Time
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Status       *model.MarketStatus    `json:"status"`
	Schedule     *model.TradingSchedule `json:"schedule"`
	NextChangeAt *time.Time             `json:"next_change_at,omitempty"`
}

// Server exposes the monitor over HTTP.
type Server struct {
	source   StatusSource
	recorder recorder.Recorder
	hub      *Hub
}

// NewServer creates a Server. hub may be nil to disable /ws.
func NewServer(source StatusSource, rec recorder.Recorder, hub *Hub) *Server {
	return &Server{source: source, recorder: rec, hub: hub}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.ServeWS)
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// BuildStatus assembles the status payload from a snapshot.
func BuildStatus(snap model.Snapshot, now time.Time) StatusResponse {
	resp := StatusResponse{Status: snap.Status, Schedule: snap.Schedule}
	if next, ok := calculator.NextTransition(snap.Schedule, now); ok {
		resp.NextChangeAt = &next
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	code := http.StatusOK
	if snap.Status == nil {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, BuildStatus(snap, s.source.Now()))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if snap.Schedule == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"schedule": nil})
		return
	}
	writeJSON(w, http.StatusOK, snap.Schedule)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.source.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"result": "refreshing"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-1000"})
			return
		}
		limit = n
	}
	events, err := s.recorder.RecentStatus(limit)
	if err != nil {
		log.Printf("[ERROR] query history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	if events == nil {
		events = []recorder.StatusEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}
