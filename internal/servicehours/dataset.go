package servicehours

import (
	"time"

	"transithours/internal/domain"
)

// calendarPattern is a calendar row with its dates resolved once up front.
// Rows whose start or end date fails to parse never become patterns.
type calendarPattern struct {
	serviceID string
	weekdays  [7]bool // indexed by time.Weekday
	start     time.Time
	end       time.Time
}

// spanRow is a stop-time row with both clock values parsed successfully.
type spanRow struct {
	arrival   time.Duration
	departure time.Duration
}

type tripEntry struct {
	tripID  string
	blockID string
	rows    []spanRow
}

// Dataset holds the derived indices for one feed snapshot: patterns and
// exceptions for calendar resolution, plus service->trips and trip->rows
// joins built once so per-date aggregation never rescans the raw tables.
// The feed itself is never modified.
type Dataset struct {
	patterns []calendarPattern
	added    map[string]map[string]struct{} // YYYYMMDD -> service ids
	removed  map[string]map[string]struct{}

	trips          []tripEntry
	tripsByService map[string][]int // service id -> indices into trips
}

// NewDataset validates the required tables and derives the computation
// indices. It returns *MissingTableError when trips or stop_times is empty,
// or when calendar is empty and no calendar_dates exceptions exist to drive
// service resolution on their own.
func NewDataset(feed *domain.Feed) (*Dataset, error) {
	if len(feed.Trips) == 0 {
		return nil, &MissingTableError{Table: "trips"}
	}
	if len(feed.StopTimes) == 0 {
		return nil, &MissingTableError{Table: "stop_times"}
	}
	if len(feed.Calendars) == 0 && len(feed.CalendarDates) == 0 {
		return nil, &MissingTableError{Table: "calendar"}
	}

	ds := &Dataset{
		added:          make(map[string]map[string]struct{}),
		removed:        make(map[string]map[string]struct{}),
		tripsByService: make(map[string][]int),
	}

	for _, c := range feed.Calendars {
		start, ok := parseServiceDate(c.StartDate)
		if !ok {
			continue
		}
		end, ok := parseServiceDate(c.EndDate)
		if !ok {
			continue
		}

		ds.patterns = append(ds.patterns, calendarPattern{
			serviceID: c.ServiceID,
			weekdays: [7]bool{
				time.Sunday:    c.Sunday,
				time.Monday:    c.Monday,
				time.Tuesday:   c.Tuesday,
				time.Wednesday: c.Wednesday,
				time.Thursday:  c.Thursday,
				time.Friday:    c.Friday,
				time.Saturday:  c.Saturday,
			},
			start: start,
			end:   end,
		})
	}

	for _, cd := range feed.CalendarDates {
		var index map[string]map[string]struct{}
		switch cd.ExceptionType {
		case domain.ExceptionAdded:
			index = ds.added
		case domain.ExceptionRemoved:
			index = ds.removed
		default:
			continue
		}
		if index[cd.Date] == nil {
			index[cd.Date] = make(map[string]struct{})
		}
		index[cd.Date][cd.ServiceID] = struct{}{}
	}

	rowsByTrip := make(map[string][]spanRow, len(feed.Trips))
	for _, st := range feed.StopTimes {
		arrText, depText := st.ArrivalTime, st.DepartureTime
		if arrText == "" {
			arrText = depText
		}
		if depText == "" {
			depText = st.ArrivalTime
		}

		arrival, ok := ParseClockTime(arrText)
		if !ok {
			continue
		}
		departure, ok := ParseClockTime(depText)
		if !ok {
			continue
		}

		rowsByTrip[st.TripID] = append(rowsByTrip[st.TripID], spanRow{
			arrival:   arrival,
			departure: departure,
		})
	}

	for _, t := range feed.Trips {
		ds.trips = append(ds.trips, tripEntry{
			tripID:  t.TripID,
			blockID: t.BlockID,
			rows:    rowsByTrip[t.TripID],
		})
		ds.tripsByService[t.ServiceID] = append(ds.tripsByService[t.ServiceID], len(ds.trips)-1)
	}

	return ds, nil
}

// parseServiceDate parses a YYYYMMDD calendar date. Malformed values report
// ok=false so the row can be excluded instead of failing the computation.
func parseServiceDate(s string) (time.Time, bool) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// dateOnly truncates a timestamp to midnight UTC, the canonical form all
// calendar comparisons use.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
