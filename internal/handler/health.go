package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"transithours/internal/jobs"
	"transithours/internal/store"
)

type HealthHandler struct {
	feedStore *store.FeedStore
	manager   *jobs.Manager
}

func NewHealthHandler(feedStore *store.FeedStore, manager *jobs.Manager) *HealthHandler {
	return &HealthHandler{
		feedStore: feedStore,
		manager:   manager,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready      bool      `json:"ready"`
	Feeds      int       `json:"feeds"`
	ActiveJobs int       `json:"activeJobs"`
	ServerTime time.Time `json:"serverTime"`
}

// Readyz reports readiness. Feeds are fetched on demand, so the service is
// ready as soon as it can accept requests; counts are informational.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:      true,
		Feeds:      h.feedStore.Count(),
		ActiveJobs: h.manager.ActiveCount(),
		ServerTime: time.Now(),
	})
}
