package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/dining-data-service/internal/adapter/ical"
	"github.com/couchcryptid/dining-data-service/internal/domain"
)

// Catalog is the read side of the location catalog.
type Catalog interface {
	Locations() []*domain.Eatery
	Location(slug string) (*domain.Eatery, error)
	RefreshedAt() time.Time
}

// Refresher triggers a catalog refresh.
type Refresher interface {
	RunOnce(ctx context.Context, force bool) error
}

// Server exposes the location query API alongside health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	catalog    Catalog
	refresher  Refresher
	logger     *slog.Logger
}

type locationsResponse struct {
	RefreshedAt *time.Time        `json:"refreshed_at,omitempty"`
	At          time.Time         `json:"at"`
	Locations   []domain.Snapshot `json:"locations"`
}

type menuResponse struct {
	Slug      string                 `json:"slug"`
	At        time.Time              `json:"at"`
	DateKey   string                 `json:"date_key"`
	Event     string                 `json:"event,omitempty"`
	Menu      []domain.CategoryItems `json:"menu"`
	Day       []domain.CategoryItems `json:"day"`
	Alternate []domain.CategoryItems `json:"alternate,omitempty"`
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(addr string, cat Catalog, refresher Refresher, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		catalog:   cat,
		refresher: refresher,
		logger:    logger.With("component", "http"),
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/locations", s.handleLocations)
	mux.HandleFunc("GET /api/v1/locations/{slug}", s.handleLocation)
	mux.HandleFunc("GET /api/v1/locations/{slug}/menu", s.handleMenu)
	mux.HandleFunc("GET /api/v1/locations/{slug}/calendar.ics", s.handleCalendar)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	at, err := parseAt(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	eateries := s.catalog.Locations()
	resp := locationsResponse{At: at, Locations: make([]domain.Snapshot, 0, len(eateries))}
	if refreshed := s.catalog.RefreshedAt(); !refreshed.IsZero() {
		resp.RefreshedAt = &refreshed
	}
	for _, e := range eateries {
		resp.Locations = append(resp.Locations, e.Snapshot(at))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	at, err := parseAt(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.Snapshot(at))
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	at, err := parseAt(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	resp := menuResponse{
		Slug:      e.Slug,
		At:        at,
		DateKey:   e.DateKey(at),
		Day:       domain.MenuIterable(e.ItemsForDate(at)),
		Alternate: e.AlternateMenuIterable(),
	}
	// The active event's menu, or the alternate menu when it carries none.
	menu := e.AlternateMenu()
	if ev, ok := e.ActiveEventForDate(at); ok {
		resp.Event = ev.Description
		if len(ev.Menu) > 0 {
			menu = ev.Menu
		}
	}
	resp.Menu = domain.MenuIterable(domain.SortedMenu(menu))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid days %q", v))
			return
		}
		days = n
	}
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ical.Export(e, domain.Now(), days)))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid force %q", v))
			return
		}
		force = b
	}

	if err := s.refresher.RunOnce(r.Context(), force); err != nil {
		s.logger.Error("refresh request failed", "force", force, "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "refreshed",
		"locations":    len(s.catalog.Locations()),
		"refreshed_at": s.catalog.RefreshedAt(),
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Eatery, bool) {
	slug := r.PathValue("slug")
	e, err := s.catalog.Location(slug)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("location %q not found", slug))
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return e, true
}

// parseAt reads the optional RFC 3339 "at" query parameter.
func parseAt(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("at")
	if v == "" {
		return domain.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid at %q: want RFC 3339", v)
	}
	return t, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
