// Package servicehours computes total scheduled service hours for an agency
// over a date range from GTFS calendar, calendar_dates, trips and stop_times
// tables. It is purely in-memory and holds no state between computations;
// malformed rows are excluded rather than failing the whole run.
package servicehours

import (
	"fmt"
	"log/slog"
	"time"

	"transithours/internal/domain"
)

type Calculator struct {
	opts   Options
	logger *slog.Logger
}

func NewCalculator(opts Options, logger *slog.Logger) *Calculator {
	if opts.UnblockedTrips == "" {
		opts.UnblockedTrips = UnblockedTripsExcluded
	}
	return &Calculator{
		opts:   opts,
		logger: logger.With("component", "servicehours"),
	}
}

// ComputeDataset sums service hours for every date from start to end
// inclusive. A start after end yields 0.0. progress, when non-nil, is called
// after each processed date with that date's contribution.
func (c *Calculator) ComputeDataset(ds *Dataset, start, end time.Time, progress func(date time.Time, dayHours float64)) float64 {
	began := time.Now()
	start, end = dateOnly(start), dateOnly(end)

	total := 0.0
	dates := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := ds.DayHours(d, c.opts)
		total += day
		dates++
		if progress != nil {
			progress(d, day)
		}
	}

	c.logger.Debug("computation finished",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"dates", dates,
		"total_hours", total,
		"duration_ms", time.Since(began).Milliseconds(),
	)
	return total
}

// Compute derives the indices from a raw feed snapshot and runs the
// date-range computation over it. It fails only with *MissingTableError.
func (c *Calculator) Compute(feed *domain.Feed, start, end time.Time) (float64, error) {
	ds, err := NewDataset(feed)
	if err != nil {
		return 0, err
	}
	return c.ComputeDataset(ds, start, end, nil), nil
}

// ParseUnblockedTripPolicy maps a configuration string onto a policy.
func ParseUnblockedTripPolicy(s string) (UnblockedTripPolicy, error) {
	switch UnblockedTripPolicy(s) {
	case "", UnblockedTripsExcluded:
		return UnblockedTripsExcluded, nil
	case UnblockedTripsPerTrip:
		return UnblockedTripsPerTrip, nil
	default:
		return "", fmt.Errorf("unknown unblocked trip policy %q", s)
	}
}
