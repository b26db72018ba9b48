package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"transithours/internal/cache"
	"transithours/internal/jobs"
	"transithours/internal/metrics"
	"transithours/internal/servicehours"
	"transithours/internal/store"
)

// HoursHandler serves synchronous service-hours computations and feed stats.
type HoursHandler struct {
	feeds         jobs.FeedSource
	feedStore     *store.FeedStore
	cache         *cache.RedisCache
	cacheTTL      time.Duration
	metrics       *metrics.Collector
	defaultPolicy servicehours.UnblockedTripPolicy
	logger        *slog.Logger
}

func NewHoursHandler(feeds jobs.FeedSource, feedStore *store.FeedStore, redisCache *cache.RedisCache, cacheTTL time.Duration, collector *metrics.Collector, defaultPolicy servicehours.UnblockedTripPolicy, logger *slog.Logger) *HoursHandler {
	return &HoursHandler{
		feeds:         feeds,
		feedStore:     feedStore,
		cache:         redisCache,
		cacheTTL:      cacheTTL,
		metrics:       collector,
		defaultPolicy: defaultPolicy,
		logger:        logger.With("handler", "hours"),
	}
}

type HoursRequest struct {
	AgencyKey       string `json:"agencyKey"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	UnblockedPolicy string `json:"unblockedPolicy,omitempty"`
}

type HoursResponse struct {
	RevenueHours    float64   `json:"revenueHours"`
	AgencyKey       string    `json:"agencyKey"`
	StartDate       string    `json:"startDate"`
	EndDate         string    `json:"endDate"`
	UnblockedPolicy string    `json:"unblockedPolicy"`
	FeedFingerprint string    `json:"feedFingerprint"`
	Cached          bool      `json:"cached"`
	ComputedAt      time.Time `json:"computedAt"`
}

func (h *HoursHandler) ComputeHours(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req HoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.AgencyKey == "" {
		h.badRequest(w, "agencyKey is required")
		return
	}

	startDate, err := parseDateParam(req.StartDate)
	if err != nil {
		h.badRequest(w, "startDate: "+err.Error())
		return
	}
	endDate, err := parseDateParam(req.EndDate)
	if err != nil {
		h.badRequest(w, "endDate: "+err.Error())
		return
	}

	policy, err := servicehours.ParseUnblockedTripPolicy(req.UnblockedPolicy)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.UnblockedPolicy == "" {
		policy = h.defaultPolicy
	}

	ctx := r.Context()

	feed, err := h.feeds.FeedFor(ctx, req.AgencyKey)
	if err != nil {
		h.metrics.ComputationErrors.WithLabelValues("feed_fetch").Inc()
		h.logger.Error("feed retrieval failed", "agency_key", req.AgencyKey, "error", err)
		respondError(w, http.StatusBadGateway, "feed retrieval failed")
		return
	}

	resp := HoursResponse{
		AgencyKey:       req.AgencyKey,
		StartDate:       startDate.Format("2006-01-02"),
		EndDate:         endDate.Format("2006-01-02"),
		UnblockedPolicy: string(policy),
		FeedFingerprint: feed.Fingerprint,
	}

	cacheKey := cache.KeyHours(req.AgencyKey, feed.Fingerprint, resp.StartDate, resp.EndDate, string(policy))
	if h.cache != nil {
		var cached HoursResponse
		if found, err := h.cache.GetJSON(ctx, cacheKey, &cached); err == nil && found {
			h.metrics.ResultCacheHits.Inc()
			cached.Cached = true
			h.logger.Debug("ComputeHours cache hit",
				"agency_key", req.AgencyKey,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			respondJSON(w, http.StatusOK, cached)
			return
		}
		h.metrics.ResultCacheMisses.Inc()
	}

	h.metrics.ComputationsTotal.Inc()

	calc := servicehours.NewCalculator(servicehours.Options{UnblockedTrips: policy}, h.logger)
	total, err := calc.Compute(feed, startDate, endDate)
	if err != nil {
		var mte *servicehours.MissingTableError
		if errors.As(err, &mte) {
			h.metrics.ComputationErrors.WithLabelValues("missing_table").Inc()
			h.logger.Warn("computation rejected", "agency_key", req.AgencyKey, "table", mte.Table)
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "computation failed")
		return
	}

	h.metrics.ComputationDuration.Observe(time.Since(start).Seconds())

	resp.RevenueHours = math.Round(total*100) / 100
	resp.ComputedAt = time.Now()

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, cacheKey, resp, h.cacheTTL); err != nil {
			h.logger.Warn("failed to cache result", "error", err)
		}
	}

	h.logger.Info("ComputeHours response",
		"agency_key", req.AgencyKey,
		"start_date", resp.StartDate,
		"end_date", resp.EndDate,
		"revenue_hours", resp.RevenueHours,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, resp)
}

type FeedsResponse struct {
	Feeds      []store.FeedStats `json:"feeds"`
	Count      int               `json:"count"`
	ServerTime time.Time         `json:"serverTime"`
}

func (h *HoursHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	stats := h.feedStore.Stats()
	respondJSON(w, http.StatusOK, FeedsResponse{
		Feeds:      stats,
		Count:      len(stats),
		ServerTime: time.Now(),
	})
}

func (h *HoursHandler) badRequest(w http.ResponseWriter, msg string) {
	h.metrics.ComputationErrors.WithLabelValues("invalid_input").Inc()
	h.logger.Warn("bad request", "error", msg)
	respondError(w, http.StatusBadRequest, msg)
}
