package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fechamento/internal/cache"
	"fechamento/internal/core"
	applog "fechamento/internal/log"
	"fechamento/internal/services"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Options configures optional collaborators of the server.
type Options struct {
	Logger *applog.Logger

	// Summaries caches computed months. Nil disables caching.
	Summaries *cache.LRUCache[core.MonthlySummary]

	// ClosingRequestsPerMinute limits POST /api/closings per client IP.
	// Zero uses the default of 10.
	ClosingRequestsPerMinute int

	// Checks run on /readyz, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

// Server exposes the closing service as a JSON API.
type Server struct {
	http.Server
	closings  *services.ClosingService
	summaries *cache.LRUCache[core.MonthlySummary]
	limiter   *rateLimiter
	checks    map[string]ReadinessCheck
	logger    *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, closings *services.ClosingService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	perMinute := opts.ClosingRequestsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}

	s := &Server{
		closings:  closings,
		summaries: opts.Summaries,
		limiter:   newRateLimiter(perMinute),
		checks:    opts.Checks,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/invoices", s.handleInvoices)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/export.xlsx", s.handleExport)
	mux.HandleFunc("POST /api/closings", s.withRateLimit(s.handleRequestClosing))
	mux.HandleFunc("GET /api/closings/latest", s.handleLatestClosing)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.RequestMiddleware(logger, requestID)(withAPIHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withAPIHeaders sets the security headers of a JSON API.
func withAPIHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed the per-minute budget.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.limiter.allow(clientIP) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// requestID reuses a well-formed incoming X-Request-ID or generates one.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Request-ID")); id != "" && len(id) <= 64 && isToken(id) {
		return id
	}
	return uuid.NewString()
}

func isToken(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
