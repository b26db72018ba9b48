package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"transithours/internal/domain"
	"transithours/internal/jobs"
	"transithours/internal/servicehours"
)

// JobsHandler exposes async computations: submit a job, poll its state, or
// follow it live over the websocket endpoint.
type JobsHandler struct {
	manager       *jobs.Manager
	defaultPolicy servicehours.UnblockedTripPolicy
	logger        *slog.Logger
}

func NewJobsHandler(manager *jobs.Manager, defaultPolicy servicehours.UnblockedTripPolicy, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{
		manager:       manager,
		defaultPolicy: defaultPolicy,
		logger:        logger.With("handler", "jobs"),
	}
}

func (h *JobsHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req HoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.AgencyKey == "" {
		respondError(w, http.StatusBadRequest, "agencyKey is required")
		return
	}

	startDate, err := parseDateParam(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "startDate: "+err.Error())
		return
	}
	endDate, err := parseDateParam(req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "endDate: "+err.Error())
		return
	}

	policy, err := servicehours.ParseUnblockedTripPolicy(req.UnblockedPolicy)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UnblockedPolicy == "" {
		policy = h.defaultPolicy
	}

	job := h.manager.Submit(jobs.Request{
		AgencyKey: req.AgencyKey,
		Start:     startDate,
		End:       endDate,
		Policy:    policy,
	})

	h.logger.Info("job submitted",
		"job_id", job.ID,
		"agency_key", req.AgencyKey,
		"start_date", job.StartDate,
		"end_date", job.EndDate,
	)

	respondJSON(w, http.StatusAccepted, job)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing job id")
		return
	}

	job, ok := h.manager.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	respondJSON(w, http.StatusOK, job)
}

type JobsResponse struct {
	Jobs       []*domain.Job `json:"jobs"`
	Count      int           `json:"count"`
	ServerTime time.Time     `json:"serverTime"`
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	list := h.manager.List()
	respondJSON(w, http.StatusOK, JobsResponse{
		Jobs:       list,
		Count:      len(list),
		ServerTime: time.Now(),
	})
}
