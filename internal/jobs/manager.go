package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"transithours/internal/domain"
	"transithours/internal/hub"
	"transithours/internal/metrics"
	"transithours/internal/servicehours"
)

// FeedSource materializes a feed snapshot for an agency.
type FeedSource interface {
	FeedFor(ctx context.Context, agencyKey string) (*domain.Feed, error)
}

// Request describes one async computation.
type Request struct {
	AgencyKey string
	Start     time.Time
	End       time.Time
	Policy    servicehours.UnblockedTripPolicy
}

// Manager runs service-hours computations in the background and publishes
// per-date progress to the hub. Finished jobs stay queryable until restart.
type Manager struct {
	feeds   FeedSource
	hub     *hub.Hub
	metrics *metrics.Collector
	logger  *slog.Logger

	baseCtx context.Context
	sem     chan struct{}

	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewManager(ctx context.Context, feeds FeedSource, h *hub.Hub, collector *metrics.Collector, maxConcurrent int, logger *slog.Logger) *Manager {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		feeds:   feeds,
		hub:     h,
		metrics: collector,
		logger:  logger.With("component", "jobs"),
		baseCtx: ctx,
		sem:     make(chan struct{}, maxConcurrent),
		jobs:    make(map[string]*domain.Job),
	}
}

// Submit registers a job and starts it as soon as a worker slot frees up.
func (m *Manager) Submit(req Request) *domain.Job {
	job := &domain.Job{
		ID:        uuid.New().String(),
		AgencyKey: req.AgencyKey,
		StartDate: req.Start.Format("2006-01-02"),
		EndDate:   req.End.Format("2006-01-02"),
		Status:    domain.JobPending,
		CreatedAt: time.Now(),
	}
	if !req.Start.After(req.End) {
		job.DatesTotal = int(req.End.Sub(req.Start).Hours()/24) + 1
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(job.ID, req)

	snapshot := *job
	return &snapshot
}

func (m *Manager) Get(id string) (*domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

func (m *Manager) List() []*domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		snapshot := *job
		result = append(result, &snapshot)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, job := range m.jobs {
		if job.Status == domain.JobPending || job.Status == domain.JobRunning {
			count++
		}
	}
	return count
}

func (m *Manager) run(jobID string, req Request) {
	select {
	case m.sem <- struct{}{}:
	case <-m.baseCtx.Done():
		m.fail(jobID, context.Cause(m.baseCtx))
		return
	}
	defer func() { <-m.sem }()

	m.metrics.ActiveJobs.Inc()
	defer m.metrics.ActiveJobs.Dec()
	m.metrics.ComputationsTotal.Inc()

	began := time.Now()
	m.update(jobID, func(j *domain.Job) { j.Status = domain.JobRunning })

	feed, err := m.feeds.FeedFor(m.baseCtx, req.AgencyKey)
	if err != nil {
		m.metrics.ComputationErrors.WithLabelValues("feed_fetch").Inc()
		m.fail(jobID, err)
		return
	}

	ds, err := servicehours.NewDataset(feed)
	if err != nil {
		m.metrics.ComputationErrors.WithLabelValues("missing_table").Inc()
		m.fail(jobID, err)
		return
	}

	calc := servicehours.NewCalculator(servicehours.Options{UnblockedTrips: req.Policy}, m.logger)
	total := calc.ComputeDataset(ds, req.Start, req.End, func(date time.Time, dayHours float64) {
		m.metrics.DatesProcessed.Inc()
		var progress domain.JobProgress
		m.update(jobID, func(j *domain.Job) {
			j.DatesDone++
			j.Hours += dayHours
			progress = domain.JobProgress{
				JobID:      j.ID,
				Status:     j.Status,
				Date:       date.Format("2006-01-02"),
				DayHours:   dayHours,
				TotalHours: j.Hours,
				DatesDone:  j.DatesDone,
				DatesTotal: j.DatesTotal,
			}
		})
		m.hub.Broadcast(progress)
	})

	m.metrics.ComputationDuration.Observe(time.Since(began).Seconds())
	m.metrics.JobsTotal.WithLabelValues("done").Inc()

	now := time.Now()
	var final domain.JobProgress
	m.update(jobID, func(j *domain.Job) {
		j.Status = domain.JobDone
		j.Hours = total
		j.FinishedAt = &now
		final = domain.JobProgress{
			JobID:      j.ID,
			Status:     j.Status,
			TotalHours: j.Hours,
			DatesDone:  j.DatesDone,
			DatesTotal: j.DatesTotal,
		}
	})
	m.hub.Broadcast(final)

	m.logger.Info("job finished",
		"job_id", jobID,
		"agency_key", req.AgencyKey,
		"total_hours", total,
		"duration_ms", time.Since(began).Milliseconds(),
	)
}

func (m *Manager) fail(jobID string, err error) {
	if err == nil {
		err = errors.New("canceled")
	}
	m.metrics.JobsTotal.WithLabelValues("failed").Inc()

	now := time.Now()
	var progress domain.JobProgress
	m.update(jobID, func(j *domain.Job) {
		j.Status = domain.JobFailed
		j.Error = err.Error()
		j.FinishedAt = &now
		progress = domain.JobProgress{
			JobID:      j.ID,
			Status:     j.Status,
			DatesDone:  j.DatesDone,
			DatesTotal: j.DatesTotal,
			TotalHours: j.Hours,
			Error:      j.Error,
		}
	})
	m.hub.Broadcast(progress)

	m.logger.Error("job failed", "job_id", jobID, "error", err)
}

func (m *Manager) update(jobID string, fn func(*domain.Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		fn(job)
	}
}
