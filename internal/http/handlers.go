package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"salesdash/internal/cache"
	"salesdash/internal/log"
	"salesdash/internal/query"
)

const (
	errTransactions = "Error retrieving transactions"
	errStatistics   = "Error retrieving statistics"
	errBarChart     = "Error retrieving bar chart data"
	errPieChart     = "Error retrieving pie chart data"
	errDashboard    = "Error retrieving dashboard data"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	params := ParseListParams(r.URL.Query())
	fields := log.NewFields().
		WithOperation(log.OpList).
		WithSelection(params.Month, params.SearchText)

	p, err := params.Predicate()
	if err != nil {
		s.rejectSelection(w, r, log.OpList, err, fields)
		return
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	page, err := s.listing.List(ctx, p, params.Page, params.PerPage)
	if err != nil {
		s.events.LogQueryFailure(r.Context(), log.OpList, err, fields)
		writeMessage(w, r, http.StatusInternalServerError, errTransactions)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentListing).DebugContext(r.Context(), "Listed transactions",
		fields.WithPaging(page.Page, page.PerPage, page.Total).ToSlice()...)
	writeJSON(w, r, http.StatusOK, newTransactionsResponse(page))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	serveAggregate(s, w, r, log.OpStatistics, errStatistics, s.statsCache, s.aggregates.Statistics)
}

func (s *Server) handleBarChart(w http.ResponseWriter, r *http.Request) {
	serveAggregate(s, w, r, log.OpHistogram, errBarChart, s.histogramCache, s.aggregates.Histogram)
}

func (s *Server) handlePieChart(w http.ResponseWriter, r *http.Request) {
	serveAggregate(s, w, r, log.OpCategories, errPieChart, s.categoryCache, s.aggregates.Categories)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	serveAggregate(s, w, r, log.OpDashboard, errDashboard, s.dashboardCache, s.aggregates.Dashboard)
}

// serveAggregate answers a month-scoped aggregate, through c when caching is on.
func serveAggregate[T any](s *Server, w http.ResponseWriter, r *http.Request, op, failure string,
	c *cache.LRUCache[T], compute func(context.Context, query.Predicate) (T, error)) {
	month := r.URL.Query().Get("month")
	fields := log.NewFields().WithOperation(op).WithSelection(month, "")

	sel, err := ParseSelection(r.URL.Query())
	if err != nil {
		s.rejectSelection(w, r, op, err, fields)
		return
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	load := func(ctx context.Context) (T, error) { return compute(ctx, sel.Predicate) }
	var v T
	if c != nil {
		v, err = c.GetOrLoad(ctx, sel.Key, load)
	} else {
		v, err = load(ctx)
	}
	if err != nil {
		s.events.LogQueryFailure(r.Context(), op, err, fields)
		writeMessage(w, r, http.StatusInternalServerError, failure)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) rejectSelection(w http.ResponseWriter, r *http.Request, op string, err error, fields log.LogFields) {
	s.events.LogRejected(r.Context(), op, err, fields)
	if errors.Is(err, query.ErrUnknownMonth) {
		writeMessage(w, r, http.StatusBadRequest, "Invalid month: use a full English month name such as March")
		return
	}
	writeMessage(w, r, http.StatusBadRequest, "Invalid request")
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded", log.FieldPath, r.URL.Path)
	writeMessage(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// storeContext bounds every store round trip of one request.
func (s *Server) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady pings the record store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}
	if err := s.store.Ping(ctx); err != nil {
		status, code = "not_ready", http.StatusServiceUnavailable
		checks["store"] = "failed: " + err.Error()
	} else {
		checks["store"] = "ok"
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}
	if s.statsCache != nil {
		checks["cache"] = map[string]any{
			"statistics_entries": s.statsCache.Size(),
			"barchart_entries":   s.histogramCache.Size(),
			"piechart_entries":   s.categoryCache.Size(),
			"dashboard_entries":  s.dashboardCache.Size(),
		}
	}

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
