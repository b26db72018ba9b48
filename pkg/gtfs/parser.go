package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"transithours/internal/domain"
)

// Parser extracts the four schedule tables (calendar, calendar_dates, trips,
// stop_times) from a GTFS archive. Values are kept as text; nothing here
// decides whether a row is usable, that belongs to the calculation layer.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logger.With("component", "gtfs_parser"),
	}
}

func (p *Parser) Parse(reader *zip.Reader) (*domain.Feed, error) {
	totalStart := time.Now()
	p.logger.Info("starting GTFS parsing")

	feed := &domain.Feed{}

	fileMap := make(map[string]*zip.File)
	for _, file := range reader.File {
		fileMap[file.Name] = file
		p.logger.Debug("found file in archive",
			"name", file.Name,
			"compressed_size", file.CompressedSize64,
			"uncompressed_size", file.UncompressedSize64,
		)
	}

	if file, ok := fileMap["calendar.txt"]; ok {
		start := time.Now()
		if err := p.parseCalendar(file, feed); err != nil {
			return nil, fmt.Errorf("parse calendar: %w", err)
		}
		p.logger.Info("parsed calendar.txt",
			"count", len(feed.Calendars),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if file, ok := fileMap["calendar_dates.txt"]; ok {
		start := time.Now()
		if err := p.parseCalendarDates(file, feed); err != nil {
			return nil, fmt.Errorf("parse calendar_dates: %w", err)
		}
		p.logger.Info("parsed calendar_dates.txt",
			"count", len(feed.CalendarDates),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if file, ok := fileMap["trips.txt"]; ok {
		start := time.Now()
		if err := p.parseTrips(file, feed); err != nil {
			return nil, fmt.Errorf("parse trips: %w", err)
		}
		p.logger.Info("parsed trips.txt",
			"count", len(feed.Trips),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if file, ok := fileMap["stop_times.txt"]; ok {
		start := time.Now()
		p.logger.Debug("parsing stop_times.txt (this may take a while)")
		if err := p.parseStopTimes(file, feed); err != nil {
			return nil, fmt.Errorf("parse stop_times: %w", err)
		}
		p.logger.Info("parsed stop_times.txt",
			"count", len(feed.StopTimes),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	p.logger.Info("GTFS parsing completed",
		"total_duration_ms", time.Since(totalStart).Milliseconds(),
		"calendars", len(feed.Calendars),
		"calendar_dates", len(feed.CalendarDates),
		"trips", len(feed.Trips),
		"stop_times", len(feed.StopTimes),
	)

	return feed, nil
}

func (p *Parser) parseCalendar(file *zip.File, feed *domain.Feed) error {
	return p.eachRecord(file, func(record []string, idx map[string]int) {
		feed.Calendars = append(feed.Calendars, domain.Calendar{
			ServiceID: getField(record, idx, "service_id"),
			Monday:    getField(record, idx, "monday") == "1",
			Tuesday:   getField(record, idx, "tuesday") == "1",
			Wednesday: getField(record, idx, "wednesday") == "1",
			Thursday:  getField(record, idx, "thursday") == "1",
			Friday:    getField(record, idx, "friday") == "1",
			Saturday:  getField(record, idx, "saturday") == "1",
			Sunday:    getField(record, idx, "sunday") == "1",
			StartDate: getField(record, idx, "start_date"),
			EndDate:   getField(record, idx, "end_date"),
		})
	})
}

func (p *Parser) parseCalendarDates(file *zip.File, feed *domain.Feed) error {
	return p.eachRecord(file, func(record []string, idx map[string]int) {
		exceptionType, err := strconv.Atoi(getField(record, idx, "exception_type"))
		if err != nil {
			return
		}

		feed.CalendarDates = append(feed.CalendarDates, domain.CalendarDate{
			ServiceID:     getField(record, idx, "service_id"),
			Date:          getField(record, idx, "date"),
			ExceptionType: domain.ExceptionType(exceptionType),
		})
	})
}

func (p *Parser) parseTrips(file *zip.File, feed *domain.Feed) error {
	return p.eachRecord(file, func(record []string, idx map[string]int) {
		tripID := getField(record, idx, "trip_id")
		if tripID == "" {
			return
		}

		feed.Trips = append(feed.Trips, domain.Trip{
			TripID:    tripID,
			ServiceID: getField(record, idx, "service_id"),
			BlockID:   getField(record, idx, "block_id"),
		})
	})
}

func (p *Parser) parseStopTimes(file *zip.File, feed *domain.Feed) error {
	return p.eachRecord(file, func(record []string, idx map[string]int) {
		tripID := getField(record, idx, "trip_id")
		if tripID == "" {
			return
		}

		feed.StopTimes = append(feed.StopTimes, domain.StopTime{
			TripID:        tripID,
			ArrivalTime:   getField(record, idx, "arrival_time"),
			DepartureTime: getField(record, idx, "departure_time"),
		})
	})
}

func (p *Parser) eachRecord(file *zip.File, fn func(record []string, idx map[string]int)) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}

	idx := makeIndex(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		fn(record, idx)
	}

	return nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return record[i]
	}
	return ""
}
