package store

import (
	"sync"
	"time"

	"transithours/internal/domain"
)

// FeedStore keeps the last parsed feed snapshot per agency. Snapshots are
// treated as immutable once stored: the calculation layer never writes to
// them, so readers share the pointer instead of copying four tables.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*domain.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*domain.Feed),
	}
}

func (s *FeedStore) Put(feed *domain.Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[feed.AgencyKey] = feed
}

func (s *FeedStore) Get(agencyKey string) (*domain.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[agencyKey]
	return feed, ok
}

func (s *FeedStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feeds)
}

type FeedStats struct {
	AgencyKey     string    `json:"agency_key"`
	Fingerprint   string    `json:"fingerprint"`
	Calendars     int       `json:"calendars"`
	CalendarDates int       `json:"calendar_dates"`
	Trips         int       `json:"trips"`
	StopTimes     int       `json:"stop_times"`
	FetchedAt     time.Time `json:"fetched_at"`
}

func (s *FeedStore) Stats() []FeedStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]FeedStats, 0, len(s.feeds))
	for _, feed := range s.feeds {
		result = append(result, FeedStats{
			AgencyKey:     feed.AgencyKey,
			Fingerprint:   feed.Fingerprint,
			Calendars:     len(feed.Calendars),
			CalendarDates: len(feed.CalendarDates),
			Trips:         len(feed.Trips),
			StopTimes:     len(feed.StopTimes),
			FetchedAt:     feed.FetchedAt,
		})
	}
	return result
}
