// Package server exposes the report catalogue over HTTP. Reports are built
// on request from the order store and rendered in any output format.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/internal/orders"
	"github.com/ginjaninja78/order-reports/internal/pipeline"
	"github.com/ginjaninja78/order-reports/internal/render"
	"github.com/ginjaninja78/order-reports/internal/reports"
)

// EntrySource supplies the entries a report is built from.
type EntrySource interface {
	QueryEntries(ctx context.Context, filter orders.Filter) ([]orders.Entry, error)
}

// Server serves reports.
type Server struct {
	source   EntrySource
	registry *reports.Registry
	settings reports.Settings
	cfg      config.ServerConfig
	logger   *slog.Logger
	metrics  *Metrics
	handler  http.Handler
}

// New creates a server. A nil registry means reports.Default().
func New(src EntrySource, registry *reports.Registry, settings reports.Settings, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if registry == nil {
		registry = reports.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	promRegistry := prometheus.NewRegistry()
	s := &Server{
		source:   src,
		registry: registry,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
		metrics:  NewMetrics(promRegistry),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /reports", s.handleIndex)
	mux.HandleFunc("GET /reports/{name}", s.handleReport)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	s.handler = loggingMiddleware(logger, mux)
	return s
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Report server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Report server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

type indexEntry struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Columns  []string `json:"columns"`
	URL      string   `json:"url"`
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Reports</title></head>
<body>
<h1>Reports</h1>
<ul>
{{- range .}}
<li><a href="{{.URL}}">{{.Title}}</a> <small>{{.Category}}</small></li>
{{- end}}
</ul>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.Definitions()
	entries := make([]indexEntry, len(defs))
	for i, def := range defs {
		entries[i] = indexEntry{
			Name:     def.Name,
			Title:    def.Title,
			Category: def.Category,
			Columns:  def.Header,
			URL:      "/reports/" + def.Name,
		}
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			s.logger.Warn("failed to write index", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, entries); err != nil {
		s.logger.Warn("failed to write index", "error", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := r.PathValue("name")
	query := r.URL.Query()

	if _, err := s.registry.Lookup(name); err != nil {
		http.Error(w, fmt.Sprintf("unknown report %q", name), http.StatusNotFound)
		return
	}

	formatName := query.Get("format")
	if formatName == "" {
		formatName = string(render.FormatHTML)
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		s.metrics.observe(name, formatName, "bad_request", 0, 0)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := ParseFilter(query)
	if err != nil {
		s.metrics.observe(name, string(format), "bad_request", 0, 0)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fail := func(msg string, err error) {
		s.metrics.observe(name, string(format), "error", 0, 0)
		s.logger.Error(msg, "report", name, "format", format, "error", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
	}

	entries, err := s.source.QueryEntries(r.Context(), filter)
	if err != nil {
		fail("failed to query entries", err)
		return
	}

	settings := s.settings
	settings.RawAmounts = render.MachineReadable(format)

	report, err := pipeline.Build(s.registry, name, settings, entries)
	if err != nil {
		fail("failed to build report", err)
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, format, report); err != nil {
		fail("failed to render report", err)
		return
	}

	s.metrics.observe(name, string(format), "ok", time.Since(start).Seconds(), report.Table.Len())

	w.Header().Set("Content-Type", render.ContentType(format))
	if format == render.FormatXLSX || format == render.FormatCSV {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", name+render.Extension(format)))
	}
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to write report", "report", name, "error", err)
	}
}

func wantsJSON(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return strings.EqualFold(f, "json")
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
