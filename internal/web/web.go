// Package web exposes the analysis reports over a small HTTP API:
// /health, /api/agenda, /api/conflicts and /api/freetime.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"calscope/internal/config"
	"calscope/internal/ics"
	appLog "calscope/internal/log"
	"calscope/internal/model"
	"calscope/internal/schedule"
)

// cacheTTL bounds how stale the in-memory event cache may get between
// cron refreshes.
const cacheTTL = 30 * time.Minute

// Server provides HTTP APIs for schedule analysis over the configured
// ICS sources.
type Server struct {
	cfg    *config.Config
	loc    *time.Location
	hours  schedule.WorkingHours
	loader *ics.Loader
	mux    *http.ServeMux

	// In-memory cache for loaded events to avoid redundant
	// fetch/parse/expand work on every HTTP request.
	eventsMu    sync.RWMutex
	eventsCache *eventsCache
}

type eventsCache struct {
	from      time.Time
	to        time.Time
	events    []model.CalendarEvent
	fetchedAt time.Time
}

// NewServer constructs a new Server. The working-hours window and timezone
// must already be resolved by the caller (config owns that validation).
func NewServer(cfg *config.Config, loc *time.Location, hours schedule.WorkingHours, loader *ics.Loader) *Server {
	s := &Server{
		cfg:    cfg,
		loc:    loc,
		hours:  hours,
		loader: loader,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with basic auth
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calscope", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/agenda", s.handleAgenda)
	s.mux.HandleFunc("/api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("/api/freetime", s.handleFreeTime)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.queryRange(w, r)
	if !ok {
		return
	}
	events, err := s.loadEvents(r.Context(), from, to)
	if err != nil {
		http.Error(w, "failed to load events", http.StatusBadGateway)
		return
	}
	groups := schedule.GroupByDay(events, &from, &to, s.cfg.ShowEmptyDates, s.loc)
	s.writeJSON(w, map[string]any{
		"from":   from,
		"to":     to,
		"groups": groups,
	})
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.queryRange(w, r)
	if !ok {
		return
	}
	events, err := s.loadEvents(r.Context(), from, to)
	if err != nil {
		http.Error(w, "failed to load events", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, schedule.FindConflicts(events, from, to))
}

func (s *Server) handleFreeTime(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.queryRange(w, r)
	if !ok {
		return
	}
	events, err := s.loadEvents(r.Context(), from, to)
	if err != nil {
		http.Error(w, "failed to load events", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, schedule.FindFreeTime(events, from, to, s.hours, s.cfg.MinFreeMinutes))
}

// queryRange parses from/to query params (RFC3339 or YYYY-MM-DD). Missing
// params default to now .. now+horizon.
func (s *Server) queryRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	now := time.Now().In(s.loc)
	from = now
	to = now.AddDate(0, 0, s.cfg.HorizonDays)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseTimeParam(v, s.loc)
		if err != nil {
			http.Error(w, "invalid 'from' parameter", http.StatusBadRequest)
			return from, to, false
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseTimeParam(v, s.loc)
		if err != nil {
			http.Error(w, "invalid 'to' parameter", http.StatusBadRequest)
			return from, to, false
		}
		to = t
	}
	if to.Before(from) {
		http.Error(w, "'to' precedes 'from'", http.StatusBadRequest)
		return from, to, false
	}
	return from, to, true
}

func parseTimeParam(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", v, loc)
}

// loadEvents returns cached events when the cache covers [from, to] and is
// fresh; otherwise it loads through the ICS pipeline and refills the cache.
func (s *Server) loadEvents(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error) {
	s.eventsMu.RLock()
	c := s.eventsCache
	s.eventsMu.RUnlock()

	if c != nil && !from.Before(c.from) && !to.After(c.to) && time.Since(c.fetchedAt) < cacheTTL {
		return c.events, nil
	}

	events, err := s.loader.Load(ctx, from, to, s.loc)
	if err != nil {
		return nil, err
	}

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{from: from, to: to, events: events, fetchedAt: time.Now()}
	s.eventsMu.Unlock()

	return events, nil
}

// Refresh pre-warms the event cache for the default horizon. The cron
// scheduler in serve mode calls this on the configured cadence.
func (s *Server) Refresh(ctx context.Context) {
	now := time.Now().In(s.loc)
	from := now.AddDate(0, 0, -1)
	to := now.AddDate(0, 0, s.cfg.HorizonDays)

	events, err := s.loader.Load(ctx, from, to, s.loc)
	if err != nil {
		appLog.Error("event refresh failed", err)
		return
	}

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{from: from, to: to, events: events, fetchedAt: time.Now()}
	s.eventsMu.Unlock()

	appLog.Info("event cache refreshed", "event_count", len(events))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		appLog.Error("response encode failed", err)
	}
}
