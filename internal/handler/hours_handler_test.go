package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transithours/internal/domain"
	"transithours/internal/metrics"
	"transithours/internal/servicehours"
	"transithours/internal/store"
)

type stubFeedSource struct {
	feed *domain.Feed
	err  error
}

func (s *stubFeedSource) FeedFor(ctx context.Context, agencyKey string) (*domain.Feed, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.feed, nil
}

func testFeed() *domain.Feed {
	return &domain.Feed{
		AgencyKey: "metro",
		Calendars: []domain.Calendar{{
			ServiceID: "S1",
			Tuesday:   true,
			StartDate: "20240101",
			EndDate:   "20240131",
		}},
		Trips: []domain.Trip{
			{TripID: "T1", ServiceID: "S1", BlockID: "B1"},
			{TripID: "T2", ServiceID: "S1", BlockID: "B1"},
		},
		StopTimes: []domain.StopTime{
			{TripID: "T1", ArrivalTime: "08:30:00", DepartureTime: "08:00:00"},
			{TripID: "T2", ArrivalTime: "09:00:00", DepartureTime: "08:30:00"},
		},
		Fingerprint: "abc123",
		FetchedAt:   time.Now(),
	}
}

func newTestHoursHandler(src *stubFeedSource) *HoursHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHoursHandler(src, store.NewFeedStore(), nil, time.Hour, metrics.NewCollector(), servicehours.UnblockedTripsExcluded, logger)
}

func postHours(t *testing.T, h *HoursHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/service-hours", bytes.NewReader(data))
	w := httptest.NewRecorder()
	h.ComputeHours(w, req)
	return w
}

func TestComputeHoursOK(t *testing.T) {
	h := newTestHoursHandler(&stubFeedSource{feed: testFeed()})

	w := postHours(t, h, HoursRequest{
		AgencyKey: "metro",
		StartDate: "2024-01-02", // Tuesday
		EndDate:   "2024-01-02",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp HoursResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 1.0, resp.RevenueHours, 1e-9)
	assert.Equal(t, "metro", resp.AgencyKey)
	assert.Equal(t, "abc123", resp.FeedFingerprint)
	assert.Equal(t, "exclude", resp.UnblockedPolicy)
	assert.False(t, resp.Cached)
}

func TestComputeHoursRFC3339Dates(t *testing.T) {
	h := newTestHoursHandler(&stubFeedSource{feed: testFeed()})

	w := postHours(t, h, HoursRequest{
		AgencyKey: "metro",
		StartDate: "2024-01-02T09:30:00Z",
		EndDate:   "2024-01-02T18:00:00Z",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp HoursResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-01-02", resp.StartDate)
	assert.InDelta(t, 1.0, resp.RevenueHours, 1e-9)
}

func TestComputeHoursValidation(t *testing.T) {
	tests := []struct {
		name string
		body HoursRequest
	}{
		{name: "missing agency", body: HoursRequest{StartDate: "2024-01-02", EndDate: "2024-01-03"}},
		{name: "bad start date", body: HoursRequest{AgencyKey: "metro", StartDate: "02/01/2024", EndDate: "2024-01-03"}},
		{name: "bad end date", body: HoursRequest{AgencyKey: "metro", StartDate: "2024-01-02", EndDate: "soon"}},
		{name: "bad policy", body: HoursRequest{AgencyKey: "metro", StartDate: "2024-01-02", EndDate: "2024-01-03", UnblockedPolicy: "sideways"}},
	}

	h := newTestHoursHandler(&stubFeedSource{feed: testFeed()})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postHours(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestComputeHoursMissingTable(t *testing.T) {
	feed := testFeed()
	feed.StopTimes = nil
	h := newTestHoursHandler(&stubFeedSource{feed: feed})

	w := postHours(t, h, HoursRequest{
		AgencyKey: "metro",
		StartDate: "2024-01-02",
		EndDate:   "2024-01-02",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "stop_times")
}

func TestComputeHoursFeedFetchFailure(t *testing.T) {
	h := newTestHoursHandler(&stubFeedSource{err: errors.New("boom")})

	w := postHours(t, h, HoursRequest{
		AgencyKey: "metro",
		StartDate: "2024-01-02",
		EndDate:   "2024-01-02",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestParseDateParam(t *testing.T) {
	got, err := parseDateParam("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDateParam("2024-01-02T15:04:05+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDateParam("20240102")
	assert.Error(t, err)
}
