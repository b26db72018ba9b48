package ingestor

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"transithours/internal/domain"
	"transithours/internal/metrics"
	"transithours/internal/store"
	"transithours/pkg/gtfs"
)

// FeedFetcher retrieves the latest GTFS archive for an agency.
type FeedFetcher interface {
	Fetch(ctx context.Context, agencyKey string) (*zip.Reader, []byte, error)
}

// FeedIngestor materializes feed snapshots on demand: a snapshot younger
// than ttl is served from the store, anything else is re-downloaded,
// fingerprinted and parsed (or loaded from the on-disk parse cache).
type FeedIngestor struct {
	fetcher FeedFetcher
	parser  *gtfs.Parser
	store   *store.FeedStore
	ttl     time.Duration
	metrics *metrics.Collector
	logger  *slog.Logger

	// serializes downloads so concurrent requests for the same agency
	// don't fetch the archive twice
	fetchMu sync.Mutex
}

func New(fetcher FeedFetcher, feedStore *store.FeedStore, ttl time.Duration, collector *metrics.Collector, logger *slog.Logger) *FeedIngestor {
	return &FeedIngestor{
		fetcher: fetcher,
		parser:  gtfs.NewParser(logger),
		store:   feedStore,
		ttl:     ttl,
		metrics: collector,
		logger:  logger.With("component", "feed_ingestor"),
	}
}

// FeedFor returns a fresh-enough feed snapshot for the agency.
func (i *FeedIngestor) FeedFor(ctx context.Context, agencyKey string) (*domain.Feed, error) {
	if feed, ok := i.store.Get(agencyKey); ok && time.Since(feed.FetchedAt) < i.ttl {
		return feed, nil
	}

	i.fetchMu.Lock()
	defer i.fetchMu.Unlock()

	// another request may have refreshed the snapshot while we waited
	if feed, ok := i.store.Get(agencyKey); ok && time.Since(feed.FetchedAt) < i.ttl {
		return feed, nil
	}

	return i.refresh(ctx, agencyKey)
}

func (i *FeedIngestor) refresh(ctx context.Context, agencyKey string) (*domain.Feed, error) {
	i.logger.Info("refreshing feed", "agency_key", agencyKey)
	downloadStart := time.Now()

	reader, data, err := i.fetcher.Fetch(ctx, agencyKey)
	if err != nil {
		return nil, fmt.Errorf("refresh feed: %w", err)
	}
	i.metrics.FeedDownloadDuration.Observe(time.Since(downloadStart).Seconds())

	fingerprint := gtfs.DataFingerprint(data)

	// unchanged archive: reuse the stored tables, only bump freshness
	if cached, ok := i.store.Get(agencyKey); ok && cached.Fingerprint == fingerprint {
		refreshed := *cached
		refreshed.FetchedAt = time.Now()
		i.store.Put(&refreshed)
		i.logger.Info("feed unchanged", "agency_key", agencyKey, "fingerprint", fingerprint)
		return &refreshed, nil
	}

	cacheDir := gtfs.ParsedCacheDir()
	parseStart := time.Now()

	feed, cachePath, cacheErr := gtfs.LoadParsedFeed(cacheDir, fingerprint)
	if cacheErr == nil {
		i.metrics.ParseCacheHits.Inc()
		i.logger.Info("loaded parsed feed cache", "path", cachePath)
	} else {
		i.metrics.ParseCacheMisses.Inc()
		i.logger.Info("parsed feed cache miss, parsing archive", "path", cachePath, "error", cacheErr)

		feed, err = i.parser.Parse(reader)
		if err != nil {
			return nil, fmt.Errorf("parse feed: %w", err)
		}
		if savedPath, saveErr := gtfs.SaveParsedFeed(cacheDir, fingerprint, feed); saveErr != nil {
			i.logger.Warn("failed to persist parsed feed cache", "error", saveErr)
		} else {
			i.logger.Debug("persisted parsed feed cache", "path", savedPath)
		}
	}
	i.metrics.FeedParseDuration.Observe(time.Since(parseStart).Seconds())

	feed.AgencyKey = agencyKey
	feed.Fingerprint = fingerprint
	feed.FetchedAt = time.Now()
	i.store.Put(feed)

	i.logger.Info("feed refreshed",
		"agency_key", agencyKey,
		"fingerprint", fingerprint,
		"calendars", len(feed.Calendars),
		"calendar_dates", len(feed.CalendarDates),
		"trips", len(feed.Trips),
		"stop_times", len(feed.StopTimes),
	)
	return feed, nil
}
