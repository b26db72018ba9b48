package gtfs

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transithours/internal/domain"
)

func zipFromFiles(t *testing.T, files map[string][]string) *zip.Reader {
	t.Helper()

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for name, lines := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(lines, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return r
}

func testParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseAllTables(t *testing.T) {
	r := zipFromFiles(t, map[string][]string{
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"S1,1,1,1,1,1,0,0,20240101,20240131",
		},
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"S1,20240103,2",
			"S2,20240106,1",
		},
		"trips.txt": {
			"route_id,service_id,trip_id,block_id",
			"R1,S1,T1,B1",
			"R1,S1,T2,",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,08:10:00,08:00:00,STOP1,1",
			"T1,24:30:00,24:25:00,STOP2,2",
		},
	})

	feed, err := testParser().Parse(r)
	require.NoError(t, err)

	require.Len(t, feed.Calendars, 1)
	cal := feed.Calendars[0]
	assert.Equal(t, "S1", cal.ServiceID)
	assert.True(t, cal.Monday)
	assert.False(t, cal.Saturday)
	assert.Equal(t, "20240101", cal.StartDate)
	assert.Equal(t, "20240131", cal.EndDate)

	require.Len(t, feed.CalendarDates, 2)
	assert.Equal(t, domain.ExceptionRemoved, feed.CalendarDates[0].ExceptionType)
	assert.Equal(t, domain.ExceptionAdded, feed.CalendarDates[1].ExceptionType)

	require.Len(t, feed.Trips, 2)
	assert.Equal(t, domain.Trip{TripID: "T1", ServiceID: "S1", BlockID: "B1"}, feed.Trips[0])
	assert.Empty(t, feed.Trips[1].BlockID)

	require.Len(t, feed.StopTimes, 2)
	// literal time strings survive parsing untouched
	assert.Equal(t, "24:30:00", feed.StopTimes[1].ArrivalTime)
}

func TestParseMissingTables(t *testing.T) {
	r := zipFromFiles(t, map[string][]string{
		"trips.txt": {
			"trip_id,service_id",
			"T1,S1",
		},
	})

	feed, err := testParser().Parse(r)
	require.NoError(t, err)

	// absent tables stay empty; the calculation layer decides what is fatal
	assert.Empty(t, feed.Calendars)
	assert.Empty(t, feed.CalendarDates)
	assert.Empty(t, feed.StopTimes)
	assert.Len(t, feed.Trips, 1)
}

func TestParseRaggedAndUnknownColumns(t *testing.T) {
	r := zipFromFiles(t, map[string][]string{
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time",
			"T1,08:00:00", // short record: departure falls back to empty
			"T2,09:00:00,09:05:00",
			",10:00:00,10:00:00", // no trip id: dropped
		},
	})

	feed, err := testParser().Parse(r)
	require.NoError(t, err)

	require.Len(t, feed.StopTimes, 2)
	assert.Equal(t, "", feed.StopTimes[0].DepartureTime)
	assert.Equal(t, "09:05:00", feed.StopTimes[1].DepartureTime)
}

func TestParseCalendarDatesBadExceptionType(t *testing.T) {
	r := zipFromFiles(t, map[string][]string{
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"S1,20240101,abc",
			"S1,20240102,1",
		},
	})

	feed, err := testParser().Parse(r)
	require.NoError(t, err)
	require.Len(t, feed.CalendarDates, 1)
	assert.Equal(t, "20240102", feed.CalendarDates[0].Date)
}

func TestDataFingerprintStable(t *testing.T) {
	a := DataFingerprint([]byte("feed-bytes"))
	b := DataFingerprint([]byte("feed-bytes"))
	c := DataFingerprint([]byte("other-bytes"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
