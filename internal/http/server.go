// Package http exposes the tracker as a JSON API: transaction entry, rule
// management, budgets and the combined channel overview.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/rulebook"
	"tally/internal/services"
)

const handlerTimeout = 10 * time.Second

type Server struct {
	http.Server

	entries   *services.EntryService
	reports   *services.ReportService
	rules     *rulebook.Rulebook
	recurring services.RecurringStore
	channels  []core.Channel

	limiter    *ratelimit.Limiter
	ipResolver *security.ClientIPResolver
	tracer     *trace.Middleware

	// Combined overviews are expensive to assemble against the sheets
	// backend, so they are cached briefly and invalidated on every write.
	// Keys carry a per-channel generation; bumping the generation orphans
	// every cached date for that channel at once.
	overviewCache *cache.LRUCache[services.Overview]
	overviewGens  map[core.Channel]*atomic.Int64
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// recurring may be nil when the backend cannot persist recurring templates;
// the recurring endpoints then answer 501.
func NewServer(addr string, entries *services.EntryService, reports *services.ReportService, rules *rulebook.Rulebook, recurring services.RecurringStore, channels []core.Channel) *Server {
	s := &Server{
		entries:       entries,
		reports:       reports,
		rules:         rules,
		recurring:     recurring,
		channels:      channels,
		limiter:       ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		ipResolver:    security.NewClientIPResolver(),
		overviewCache: cache.NewLRUCache[services.Overview](100, 5*time.Minute),
		overviewGens:  make(map[core.Channel]*atomic.Int64, len(channels)),
		cacheManager:  cache.NewManager(),
	}
	for _, ch := range channels {
		s.overviewGens[ch] = new(atomic.Int64)
	}
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/channels/{channel}/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/channels/{channel}/expenses", s.handleListExpenses)
	mux.HandleFunc("PUT /api/channels/{channel}/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/channels/{channel}/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /api/channels/{channel}/income", s.handleCreateIncome)
	mux.HandleFunc("GET /api/channels/{channel}/income", s.handleListIncome)
	mux.HandleFunc("PUT /api/channels/{channel}/income/{id}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE /api/channels/{channel}/income/{id}", s.handleDeleteIncome)

	mux.HandleFunc("POST /api/channels/{channel}/recurrings", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/channels/{channel}/recurrings", s.handleListRecurrings)
	mux.HandleFunc("PUT /api/channels/{channel}/recurrings/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /api/channels/{channel}/recurrings/{id}", s.handleDeleteRecurring)

	mux.HandleFunc("GET /api/channels/{channel}/overview", s.handleOverview)
	mux.HandleFunc("GET /api/channels/{channel}/budgets/{category}", s.handleCategoryStatus)

	mux.HandleFunc("GET /api/classify", s.handleClassify)

	mux.HandleFunc("GET /api/rulebook", s.handleGetRulebook)
	mux.HandleFunc("PUT /api/rulebook/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /api/rulebook/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /api/rulebook/categories/{category}", s.handleRemoveCategory)
	mux.HandleFunc("PUT /api/rulebook/categories/{category}", s.handleRenameCategory)
	mux.HandleFunc("POST /api/rulebook/categories/{category}/stores", s.handleAddStore)
	mux.HandleFunc("DELETE /api/rulebook/categories/{category}/stores/{store}", s.handleRemoveStore)
	mux.HandleFunc("POST /api/rulebook/categories/{category}/keywords", s.handleAddKeyword)
	mux.HandleFunc("DELETE /api/rulebook/categories/{category}/keywords/{keyword}", s.handleRemoveKeyword)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets/{category}", s.handleSetBudget)
	mux.HandleFunc("DELETE /api/budgets/{category}", s.handleDeleteBudget)
	mux.HandleFunc("GET /api/thresholds", s.handleGetThresholds)
	mux.HandleFunc("PUT /api/thresholds", s.handleSetThresholds)

	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.tracer = trace.NewMiddleware(s.ipResolver.ExtractClientIP)
	limitMW := s.limiter.Middleware(s.ipResolver.ExtractClientIP, nil)
	logMW := applog.Middleware(applog.Default(applog.ComponentHTTP))
	reqIDMW := applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})

	handler := headersMW.Middleware(limitMW(s.tracer.Middleware(logMW(reqIDMW(mux)))))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
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

type metricsJSON struct {
	TotalRequests     int64 `json:"total_requests"`
	AvgResponseMicros int64 `json:"avg_response_micros"`
	ActiveClients     int   `json:"active_clients"`
	CachedOverviews   int   `json:"cached_overviews"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	writeJSON(w, http.StatusOK, metricsJSON{
		TotalRequests:     m.TotalRequests,
		AvgResponseMicros: m.AverageResponseTime,
		ActiveClients:     s.limiter.ActiveClients(),
		CachedOverviews:   s.overviewCache.Size(),
	})
}

// channelParam reads and validates the channel path segment.
func (s *Server) channelParam(r *http.Request) (core.Channel, error) {
	ch := core.Channel(r.PathValue("channel"))
	if err := ch.Validate(s.channels); err != nil {
		return "", err
	}
	return ch, nil
}

func (s *Server) overviewCacheKey(ch core.Channel, ref core.Date) string {
	var gen int64
	if g, ok := s.overviewGens[ch]; ok {
		gen = g.Load()
	}
	return fmt.Sprintf("%s:%d:%s", ch, gen, ref.String())
}

// invalidateOverviews drops every cached overview touching the written
// channel, whatever reference date it was queried with. A shared write
// changes every channel's combined view, so every generation moves.
func (s *Server) invalidateOverviews(ch core.Channel) {
	if ch.IsShared() {
		s.invalidateAllOverviews()
		return
	}
	s.bumpOverviewGen(ch)
}

// invalidateAllOverviews is for rulebook, budget and threshold writes: those
// change the evaluation of every channel's overview.
func (s *Server) invalidateAllOverviews() {
	for _, known := range s.channels {
		s.bumpOverviewGen(known)
	}
}

// bumpOverviewGen orphans the channel's cached entries; they age out of the
// LRU on their own.
func (s *Server) bumpOverviewGen(ch core.Channel) {
	if g, ok := s.overviewGens[ch]; ok {
		g.Add(1)
	}
}
