package domain

import "time"

// JobStatus tracks the lifecycle of an async computation
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job represents one service-hours computation request
type Job struct {
	ID        string    `json:"id"`
	AgencyKey string    `json:"agencyKey"`
	StartDate string    `json:"startDate"` // YYYY-MM-DD
	EndDate   string    `json:"endDate"`   // YYYY-MM-DD
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`

	DatesTotal int     `json:"datesTotal"`
	DatesDone  int     `json:"datesDone"`
	Hours      float64 `json:"hours"`

	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// JobProgress is one per-date increment of a running job, fanned out to
// websocket subscribers.
type JobProgress struct {
	JobID      string    `json:"jobId"`
	Status     JobStatus `json:"status"`
	Date       string    `json:"date,omitempty"` // YYYY-MM-DD of the processed day
	DayHours   float64   `json:"dayHours"`
	TotalHours float64   `json:"totalHours"`
	DatesDone  int       `json:"datesDone"`
	DatesTotal int       `json:"datesTotal"`
	Error      string    `json:"error,omitempty"`
}
