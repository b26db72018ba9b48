package servicehours

import (
	"io"
	"log/slog"
	"time"

	"transithours/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekdayFeed has service S1 running Mon-Fri through January 2024, with
// trips T1 and T2 sharing block B1: T1 08:00-08:30, T2 08:30-09:00.
func weekdayFeed() *domain.Feed {
	return &domain.Feed{
		AgencyKey: "test-agency",
		Calendars: []domain.Calendar{{
			ServiceID: "S1",
			Monday:    true,
			Tuesday:   true,
			Wednesday: true,
			Thursday:  true,
			Friday:    true,
			StartDate: "20240101",
			EndDate:   "20240131",
		}},
		Trips: []domain.Trip{
			{TripID: "T1", ServiceID: "S1", BlockID: "B1"},
			{TripID: "T2", ServiceID: "S1", BlockID: "B1"},
		},
		StopTimes: []domain.StopTime{
			{TripID: "T1", ArrivalTime: "08:10:00", DepartureTime: "08:00:00"},
			{TripID: "T1", ArrivalTime: "08:30:00", DepartureTime: "08:25:00"},
			{TripID: "T2", ArrivalTime: "08:45:00", DepartureTime: "08:30:00"},
			{TripID: "T2", ArrivalTime: "09:00:00", DepartureTime: "08:55:00"},
		},
	}
}

func mustDataset(feed *domain.Feed) *Dataset {
	ds, err := NewDataset(feed)
	if err != nil {
		panic(err)
	}
	return ds
}
