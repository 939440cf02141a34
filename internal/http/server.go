// Package http serves the sales analytics JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	"salesdash/internal/log"
	"salesdash/internal/metrics"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/services"
	"salesdash/internal/store"
)

const (
	defaultStoreTimeout = 7 * time.Second
	cacheSweepInterval  = 10 * time.Minute
)

// Options configure NewServer. Store is required.
type Options struct {
	Addr               string
	Store              store.Reader
	Logger             *log.Logger
	Metrics            *metrics.Metrics
	StoreTimeout       time.Duration
	CacheTTL           time.Duration
	CacheSize          int
	RateLimitRPM       int
	CORSAllowedOrigins []string
	TrustedProxies     []string
}

type Server struct {
	http.Server

	store      store.Reader
	listing    *services.ListingService
	aggregates *services.AggregationService

	events       *log.StructuredLogger
	metrics      *metrics.Metrics
	rateLimiter  *ratelimit.Limiter
	storeTimeout time.Duration
	started      time.Time

	// Aggregates keyed by month; nil when caching is off.
	caches         *cache.Manager
	statsCache     *cache.LRUCache[core.Statistics]
	histogramCache *cache.LRUCache[[]core.PriceBucket]
	categoryCache  *cache.LRUCache[[]core.CategoryCount]
	dashboardCache *cache.LRUCache[services.Dashboard]

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}

	reader := store.Observe(opts.Store, opts.Metrics.ObserveStore)
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		store:        reader,
		listing:      services.NewListingService(reader),
		aggregates:   services.NewAggregationService(reader),
		events:       log.NewStructuredLogger(logger),
		metrics:      opts.Metrics,
		storeTimeout: opts.StoreTimeout,
		started:      time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitRPM,
		}),
	}

	if opts.CacheTTL > 0 {
		size := opts.CacheSize
		if size < 1 {
			size = 64
		}
		s.statsCache = newObservedCache[core.Statistics](size, opts.CacheTTL, "statistics", opts.Metrics)
		s.histogramCache = newObservedCache[[]core.PriceBucket](size, opts.CacheTTL, "barchart", opts.Metrics)
		s.categoryCache = newObservedCache[[]core.CategoryCount](size, opts.CacheTTL, "piechart", opts.Metrics)
		s.dashboardCache = newObservedCache[services.Dashboard](size, opts.CacheTTL, "dashboard", opts.Metrics)

		s.caches = cache.NewManager()
		s.caches.Register(s.statsCache, s.histogramCache, s.categoryCache, s.dashboardCache)
		s.caches.OnCleaned(func(removed int) {
			opts.Metrics.CacheExpired(removed)
			logger.Debug("Cache cleanup completed", "entries_removed", removed)
		})
		s.caches.StartCleanup(cacheSweepInterval)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /transactions", s.handleTransactions)
	mux.HandleFunc("GET /statistics", s.handleStatistics)
	mux.HandleFunc("GET /barchart", s.handleBarChart)
	mux.HandleFunc("GET /piechart", s.handlePieChart)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", opts.Metrics.Handler())

	resolver := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := resolver.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	cors := security.DefaultCORSConfig()
	if len(opts.CORSAllowedOrigins) > 0 {
		cors.AllowedOrigins = opts.CORSAllowedOrigins
	}

	tracer := trace.NewMiddleware(resolver.ClientIP, func(r *http.Request, status int, elapsed time.Duration) {
		opts.Metrics.ObserveHTTP(routeLabel(r.URL.Path), status, elapsed)
	})

	handler := chain(mux,
		log.Middleware(opts.Logger),
		tracer.Middleware,
		log.RequestIDMiddleware(trace.FromRequest),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		security.CORS(cors),
		s.rateLimiter.Middleware(resolver.ClientIP, s.rejectRateLimited),
	)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// chain applies middleware so that the first one listed runs first.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func newObservedCache[T any](size int, ttl time.Duration, name string, m *metrics.Metrics) *cache.LRUCache[T] {
	c := cache.NewLRUCache[T](size, ttl)
	c.OnLookup(func(hit bool) { m.CacheLookup(name, hit) })
	return c
}

// routeLabel bounds the metrics label set to the known routes.
func routeLabel(path string) string {
	switch path {
	case "/transactions", "/statistics", "/barchart", "/piechart", "/dashboard",
		"/healthz", "/readyz", "/metrics":
		return path
	}
	return "other"
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.caches != nil {
			s.caches.Stop()
		}
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
