// Package http serves the Home dashboard: an HTML shell, a WebSocket per
// open dashboard driving a home.Controller, and a JSON API over the data
// provider.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"pfm/internal/cache"
	"pfm/internal/core"
	"pfm/internal/home"
	"pfm/internal/log"
	"pfm/internal/middleware/ratelimit"
	"pfm/internal/middleware/security"
	"pfm/internal/middleware/trace"
	"pfm/internal/provider"
	appweb "pfm/web"
)

const (
	lookupCacheSize      = 256
	cacheCleanupInterval = 5 * time.Minute
	readyTimeout         = 5 * time.Second
)

// Config tunes the server and the controllers it creates.
type Config struct {
	Addr           string
	RateLimitRPM   int
	LookupCacheTTL time.Duration
	FetchTimeout   time.Duration
	EffectBuffer   int
	DefaultPeriod  core.ChartPeriod
}

type appMetrics struct {
	cacheHits   int64
	cacheMisses int64
	uptime      time.Time
}

type Server struct {
	http.Server
	provider      provider.Provider
	hub           *Hub
	templates     *template.Template
	logger        *log.Logger
	now           func() time.Time
	fetchTimeout  time.Duration
	defaultPeriod core.ChartPeriod
	homeOpts      []home.Option

	lookupCache  *cache.LRUCache[string, core.Transaction]
	cacheManager *cache.Manager

	detector        *security.Detector
	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	metrics         appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config, p provider.Provider, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = home.DefaultFetchTimeout
	}
	if !cfg.DefaultPeriod.Valid() {
		cfg.DefaultPeriod = core.DefaultPeriod
	}
	if cfg.LookupCacheTTL <= 0 {
		cfg.LookupCacheTTL = 30 * time.Second
	}

	mux := http.NewServeMux()
	detector := security.NewDetector(logger)

	s := &Server{
		provider:      p,
		hub:           NewHub(logger),
		logger:        logger,
		now:           time.Now,
		fetchTimeout:  cfg.FetchTimeout,
		defaultPeriod: cfg.DefaultPeriod,
		homeOpts: []home.Option{
			home.WithFetchTimeout(cfg.FetchTimeout),
			home.WithEffectBuffer(cfg.EffectBuffer),
			home.WithDefaultPeriod(cfg.DefaultPeriod),
		},
		lookupCache:     cache.NewLRUCache[string, core.Transaction](lookupCacheSize, cfg.LookupCacheTTL),
		cacheManager:    cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentCache)),
		detector:        detector,
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM}, logger),
		traceMiddleware: trace.NewMiddleware(detector.ExtractClientIP, logger),
		metrics:         appMetrics{uptime: time.Now()},
	}

	s.cacheManager.Register(s.lookupCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /ws/home", s.handleHomeSocket)

	mux.HandleFunc("GET /api/user", s.handleUser)
	mux.HandleFunc("GET /api/recipients", s.handleRecipients)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/transactions/recent", s.handleRecentTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleTransaction)
	mux.HandleFunc("GET /api/balance", s.handleBalance)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	// trace -> security -> rate limit -> mux
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Hub exposes the live sessions to background refreshers.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Shutdown closes live sessions, stops background loops and shuts down the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.hub.CloseAll()
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	type periodOption struct {
		Label    string
		Selected bool
	}
	data := struct {
		Periods []periodOption
	}{}
	for _, p := range core.AllPeriods() {
		data.Periods = append(data.Periods, periodOption{Label: p.Label(), Selected: p == s.defaultPeriod})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err,
			"template", "home.html",
		)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).Round(time.Second).String(),
	})
}

// handleReady checks templates and that the provider answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if _, err := s.provider.GetCurrentUser(ctx); err != nil {
		checks["provider"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["provider"] = "ok"
	}

	checks["sessions"] = s.hub.Len()
	checks["lookup_cache_entries"] = s.lookupCache.Size()
	checks["rate_limit_clients"] = s.rateLimiter.ActiveClients()

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	metric := func(name, help, typ string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, typ, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("home_sessions", "Live Home sessions", "gauge", s.hub.Len())
	metric("lookup_cache_hits_total", "Transaction lookup cache hits", "counter", atomic.LoadInt64(&s.metrics.cacheHits))
	metric("lookup_cache_misses_total", "Transaction lookup cache misses", "counter", atomic.LoadInt64(&s.metrics.cacheMisses))
	metric("lookup_cache_entries", "Current transaction lookup cache entries", "gauge", s.lookupCache.Size())
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", time.Since(s.metrics.uptime).Seconds()))
}
