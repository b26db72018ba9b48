package domain

import "time"

// Calendar represents service availability by day of week.
// Dates stay in their raw YYYYMMDD form; the calculation layer
// normalizes them once per computation.
type Calendar struct {
	ServiceID string
	Monday    bool
	Tuesday   bool
	Wednesday bool
	Thursday  bool
	Friday    bool
	Saturday  bool
	Sunday    bool
	StartDate string // YYYYMMDD
	EndDate   string // YYYYMMDD
}

// ExceptionType distinguishes calendar_dates exception kinds
type ExceptionType int

const (
	ExceptionAdded   ExceptionType = 1
	ExceptionRemoved ExceptionType = 2
)

func (t ExceptionType) String() string {
	switch t {
	case ExceptionAdded:
		return "added"
	case ExceptionRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// CalendarDate represents a per-date service exception
type CalendarDate struct {
	ServiceID     string
	Date          string // YYYYMMDD
	ExceptionType ExceptionType
}

// Trip links a scheduled trip to its service pattern. BlockID is empty
// when the trip is not part of a vehicle block.
type Trip struct {
	TripID    string
	ServiceID string
	BlockID   string
}

// StopTime is one stop_times.txt row. Times stay literal HH:MM:SS strings
// (hours may exceed 23 for post-midnight service); parsing happens in the
// calculation layer so malformed values can be excluded row by row.
type StopTime struct {
	TripID        string
	ArrivalTime   string
	DepartureTime string
}

// Feed is an immutable snapshot of the four schedule tables for one agency.
type Feed struct {
	AgencyKey     string
	Calendars     []Calendar
	CalendarDates []CalendarDate
	Trips         []Trip
	StopTimes     []StopTime

	Fingerprint string // sha256 of the source archive
	FetchedAt   time.Time
}
