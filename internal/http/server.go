// Package http exposes the budget tracker's REST API.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"outlay/internal/config"
	"outlay/internal/export"
	"outlay/internal/middleware/ratelimit"
	"outlay/internal/middleware/security"
	"outlay/internal/middleware/trace"
	"outlay/internal/services"
	"outlay/internal/storage"
)

// Server wires the HTTP stack: routing, middleware, and handlers over
// the domain services.
type Server struct {
	httpServer *http.Server

	repo     *storage.Repository
	projects *services.ProjectService
	expenses *services.ExpenseService
	exporter export.ReportWriter

	sessionTTL    time.Duration
	secureCookies bool

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
}

// NewServer assembles the API server. exporter may be nil, in which case
// report export responds 503.
func NewServer(cfg *config.Config, repo *storage.Repository, projects *services.ProjectService, expenses *services.ExpenseService, exporter export.ReportWriter) *Server {
	s := &Server{
		repo:          repo,
		projects:      projects,
		expenses:      expenses,
		exporter:      exporter,
		sessionTTL:    cfg.SessionTTL,
		secureCookies: cfg.SecureCookies,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		tracer: trace.NewMiddleware(clientIP),
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the full routing table with the middleware chain
// applied. Exposed separately so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("POST /login", s.handleLogin)

	authed := http.NewServeMux()
	authed.HandleFunc("POST /logout", s.handleLogout)

	authed.HandleFunc("GET /projects", s.handleListProjects)
	authed.HandleFunc("POST /projects", s.handleCreateProject)
	authed.HandleFunc("GET /projects/{id}", s.handleGetProject)
	authed.HandleFunc("PUT /projects/{id}", s.handleUpdateProject)
	authed.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)
	authed.HandleFunc("POST /projects/{id}/members", s.handleAddProjectMember)
	authed.HandleFunc("POST /projects/{id}/export", s.handleExportProject)

	authed.HandleFunc("GET /expenses/project/{projectId}", s.handleListExpenses)
	authed.HandleFunc("GET /expenses/summary/project/{projectId}", s.handleProjectSummary)
	authed.HandleFunc("POST /expenses", s.handleCreateExpense)
	authed.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	authed.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.Handle("/", s.requireAuth(authed))

	var h http.Handler = mux
	h = s.rateLimit(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Handler(h)
	h = s.tracer.Handler(h)
	return h
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops background middleware.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondErrorMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"})
}

// rateLimit throttles mutating requests per client IP. Reads stay
// unthrottled.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.limiter.Allow(clientIP(r)) {
				respondErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
