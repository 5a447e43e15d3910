// Package http exposes the JSON API: auth, expense CRUD, the analytics
// endpoints and the admin rollups.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"spendsight/internal/analytics"
	"spendsight/internal/auth"
	"spendsight/internal/cache"
	"spendsight/internal/core"
	"spendsight/internal/middleware/ratelimit"
	"spendsight/internal/middleware/trace"
	"spendsight/internal/services"
)

type Server struct {
	http.Server

	expenses  *services.ExpenseService
	analytics *analytics.Service
	auth      *auth.Service

	clientURL  string
	adminEmail string

	rateLimiter *ratelimit.Limiter

	// Analytics results cached per user; mutations invalidate by user
	// prefix.
	monthlyCache *cache.LRUCache[core.MonthlyAnalytics]
	trendCache   *cache.LRUCache[[]core.TrendPoint]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// Deps carries everything the server needs at construction time.
type Deps struct {
	Expenses   *services.ExpenseService
	Analytics  *analytics.Service
	Auth       *auth.Service
	ClientURL  string
	AdminEmail string
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		expenses:     deps.Expenses,
		analytics:    deps.Analytics,
		auth:         deps.Auth,
		clientURL:    deps.ClientURL,
		adminEmail:   deps.AdminEmail,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		monthlyCache: cache.NewLRUCache[core.MonthlyAnalytics](200, 5*time.Minute),
		trendCache:   cache.NewLRUCache[[]core.TrendPoint](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.monthlyCache)
	s.cacheManager.Register(s.trendCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.Handle("POST /api/expenses", s.withAuth(s.handleCreateExpense))
	mux.Handle("GET /api/expenses", s.withAuth(s.handleListExpenses))
	mux.Handle("GET /api/expenses/{id}", s.withAuth(s.handleGetExpense))
	mux.Handle("PUT /api/expenses/{id}", s.withAuth(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.withAuth(s.handleDeleteExpense))

	mux.Handle("GET /api/analytics/monthly", s.withAuth(s.handleMonthlyAnalytics))
	mux.Handle("GET /api/analytics/trend", s.withAuth(s.handleTrend))

	mux.Handle("GET /api/admin/overview", s.withAuth(s.requireAdmin(s.handleAdminOverview)))
	mux.Handle("GET /api/admin/users", s.withAuth(s.requireAdmin(s.handleUserRollups)))

	traceMW := trace.NewMiddleware(clientIP)

	s.Handler = traceMW.Middleware(s.withSecurityHeaders(s.withRateLimit(mux)))

	return s
}

// withRateLimit throttles mutating requests per client IP. Reads and
// health probes are never counted against the budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// withSecurityHeaders adds security headers and CORS for the configured
// client origin.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if s.clientURL != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.clientURL)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// invalidateAnalytics drops every cached analytics result for a user.
func (s *Server) invalidateAnalytics(userID int64) {
	prefix := "u" + strconv.FormatInt(userID, 10) + ":"
	s.monthlyCache.DeletePrefix(prefix)
	s.trendCache.DeletePrefix(prefix)
}

func analyticsCacheKey(userID int64, year, month int) string {
	return "u" + strconv.FormatInt(userID, 10) + ":" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
