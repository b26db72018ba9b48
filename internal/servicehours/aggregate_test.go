package servicehours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"transithours/internal/domain"
)

func TestDayHoursBlockSpan(t *testing.T) {
	ds := mustDataset(weekdayFeed())

	// T1 and T2 share block B1: one continuous 08:00-09:00 span
	got := ds.DayHours(date(2024, time.January, 2), Options{UnblockedTrips: UnblockedTripsExcluded})
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestDayHoursInactiveDate(t *testing.T) {
	ds := mustDataset(weekdayFeed())

	// Sunday: no active services, nothing contributes
	got := ds.DayHours(date(2024, time.January, 7), Options{})
	assert.Zero(t, got)
}

func TestDayHoursPerTripWithoutBlocks(t *testing.T) {
	feed := weekdayFeed()
	for i := range feed.Trips {
		feed.Trips[i].BlockID = ""
	}
	ds := mustDataset(feed)

	// no block ids anywhere: per-trip spans, 0.5h each
	got := ds.DayHours(date(2024, time.January, 2), Options{})
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestDayHoursUnblockedTripPolicy(t *testing.T) {
	feed := weekdayFeed()
	feed.Trips = append(feed.Trips, domain.Trip{TripID: "T3", ServiceID: "S1"})
	feed.StopTimes = append(feed.StopTimes,
		domain.StopTime{TripID: "T3", ArrivalTime: "10:00:00", DepartureTime: "10:00:00"},
		domain.StopTime{TripID: "T3", ArrivalTime: "10:30:00", DepartureTime: "10:30:00"},
	)
	ds := mustDataset(feed)
	day := date(2024, time.January, 2)

	// default: the unblocked trip contributes nothing next to block B1
	got := ds.DayHours(day, Options{UnblockedTrips: UnblockedTripsExcluded})
	assert.InDelta(t, 1.0, got, 1e-9)

	// per-trip fallback adds T3's own 0.5h span
	got = ds.DayHours(day, Options{UnblockedTrips: UnblockedTripsPerTrip})
	assert.InDelta(t, 1.5, got, 1e-9)
}

func TestDayHoursOvernightSpan(t *testing.T) {
	feed := weekdayFeed()
	feed.Trips = []domain.Trip{{TripID: "N1", ServiceID: "S1"}}
	feed.StopTimes = []domain.StopTime{
		{TripID: "N1", ArrivalTime: "23:55:00", DepartureTime: "23:50:00"},
		{TripID: "N1", ArrivalTime: "24:10:00", DepartureTime: "24:05:00"},
	}
	ds := mustDataset(feed)

	// 23:50 -> 24:10 is a positive 20 minute span, not a negative one
	got := ds.DayHours(date(2024, time.January, 2), Options{})
	assert.InDelta(t, 20.0/60.0, got, 1e-9)
}

func TestDayHoursNonPositiveSpanDiscarded(t *testing.T) {
	feed := weekdayFeed()
	feed.Trips = []domain.Trip{{TripID: "Z1", ServiceID: "S1"}}
	feed.StopTimes = []domain.StopTime{
		// latest arrival before earliest departure: malformed data
		{TripID: "Z1", ArrivalTime: "08:00:00", DepartureTime: "09:00:00"},
	}
	ds := mustDataset(feed)

	got := ds.DayHours(date(2024, time.January, 2), Options{})
	assert.Zero(t, got)
}

func TestDayHoursMalformedTimesExcluded(t *testing.T) {
	feed := weekdayFeed()
	feed.StopTimes = append(feed.StopTimes,
		// both parses fail: row dropped, span unchanged
		domain.StopTime{TripID: "T1", ArrivalTime: "bad", DepartureTime: "worse"},
	)
	ds := mustDataset(feed)

	got := ds.DayHours(date(2024, time.January, 2), Options{})
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestDayHoursMissingTimeSubstituted(t *testing.T) {
	feed := weekdayFeed()
	feed.Trips = []domain.Trip{{TripID: "M1", ServiceID: "S1"}}
	feed.StopTimes = []domain.StopTime{
		{TripID: "M1", ArrivalTime: "", DepartureTime: "07:00:00"},
		{TripID: "M1", ArrivalTime: "07:45:00", DepartureTime: ""},
	}
	ds := mustDataset(feed)

	// missing arrival borrows departure and vice versa
	got := ds.DayHours(date(2024, time.January, 2), Options{})
	assert.InDelta(t, 0.75, got, 1e-9)
}

func TestDayHoursTripWithoutRowsExcluded(t *testing.T) {
	feed := weekdayFeed()
	feed.Trips = append(feed.Trips, domain.Trip{TripID: "ghost", ServiceID: "S1", BlockID: "B1"})
	ds := mustDataset(feed)

	got := ds.DayHours(date(2024, time.January, 2), Options{})
	assert.InDelta(t, 1.0, got, 1e-9)
}
