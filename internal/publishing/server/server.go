package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/vietddude/postfeed/internal/publishing/health"
	"github.com/vietddude/postfeed/internal/publishing/site"
)

// Site is the page source served by the server.
type Site interface {
	Current() (*site.Build, error)
	Refresh(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Port int
	// RefreshToken enables POST /refresh for requests carrying it as a
	// bearer token. Empty leaves the endpoint unregistered.
	RefreshToken string
	// RefreshPerMinute bounds accepted refreshes; <= 0 means 6.
	RefreshPerMinute int
}

// Server serves the rendered feed plus health and metrics endpoints.
type Server struct {
	site           Site
	monitor        *health.Monitor
	server         *http.Server
	refreshToken   []byte
	refreshLimiter *rate.Limiter
	log            *slog.Logger
}

// NewServer creates a new server.
func NewServer(s Site, monitor *health.Monitor, opts Options) *Server {
	if opts.RefreshPerMinute <= 0 {
		opts.RefreshPerMinute = 6
	}

	mux := http.NewServeMux()
	srv := &Server{
		site:    s,
		monitor: monitor,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			ReadHeaderTimeout: 10 * time.Second,
		},
		refreshToken:   []byte(opts.RefreshToken),
		refreshLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RefreshPerMinute)), 1),
		log:            slog.Default(),
	}

	mux.HandleFunc("GET /{$}", srv.handlePage)
	mux.HandleFunc("GET /index.html", srv.handlePage)
	mux.HandleFunc("GET /data.json", srv.handleData)
	if len(srv.refreshToken) > 0 {
		mux.HandleFunc("POST /refresh", srv.handleRefresh)
	}
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /health/detailed", srv.handleDetailed)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv.server.Handler = srv.withRequestID(mux)
	return srv
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("Request served", "id", id, "method", r.Method, "path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	b, err := s.site.Current()
	if err != nil {
		http.Error(w, "feed not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(b.HTML)))
	w.Header().Set("Last-Modified", b.BuiltAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.HTML)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	b, err := s.site.Current()
	if err != nil {
		http.Error(w, "feed not available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, b.Posts)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), s.refreshToken) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	if !s.refreshLimiter.Allow() {
		w.Header().Set("Retry-After", "10")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "refresh rate exceeded"})
		return
	}

	if err := s.site.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	b, _ := s.site.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":    len(b.Posts),
		"fallback": b.Fallback,
		"built_at": b.BuiltAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	code := http.StatusOK
	if report.SystemStatus == health.StatusCritical {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": string(report.SystemStatus)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.CheckHealth(r.Context()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
