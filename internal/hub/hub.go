package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"transithours/internal/domain"
)

// Client is one websocket consumer with a set of subscribed job ids.
type Client struct {
	ID   string
	Send chan []byte
	jobs map[string]struct{}
	mu   sync.RWMutex
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:   id,
		Send: make(chan []byte, bufferSize),
		jobs: make(map[string]struct{}),
	}
}

func (c *Client) HasJob(jobID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.jobs[jobID]
	return ok
}

func (c *Client) AddJobs(jobIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range jobIDs {
		c.jobs[id] = struct{}{}
	}
}

func (c *Client) RemoveJobs(jobIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range jobIDs {
		delete(c.jobs, id)
	}
}

// Hub fans computation progress out to clients subscribed to the job.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	jobClients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan domain.JobProgress

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		jobClients: make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan domain.JobProgress, 256),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", len(h.clients))

		case client := <-h.unregister:
			h.removeClient(client)

		case progress := <-h.broadcast:
			h.fanout(progress)
		}
	}
}

func (h *Hub) Subscribe(client *Client, jobIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.AddJobs(jobIDs)

	for _, jobID := range jobIDs {
		if h.jobClients[jobID] == nil {
			h.jobClients[jobID] = make(map[*Client]struct{})
		}
		h.jobClients[jobID][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, jobIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.RemoveJobs(jobIDs)

	for _, jobID := range jobIDs {
		if h.jobClients[jobID] != nil {
			delete(h.jobClients[jobID], client)
			if len(h.jobClients[jobID]) == 0 {
				delete(h.jobClients, jobID)
			}
		}
	}
}

func (h *Hub) Broadcast(progress domain.JobProgress) {
	select {
	case h.broadcast <- progress:
	default:
		h.logger.Warn("broadcast channel full, dropping progress", "job_id", progress.JobID)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ProgressMessage is the wire envelope for a progress event.
type ProgressMessage struct {
	Type    string             `json:"type"`
	Payload domain.JobProgress `json:"payload"`
}

func (h *Hub) fanout(progress domain.JobProgress) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.jobClients[progress.JobID]
	if !ok {
		return
	}

	data, err := json.Marshal(ProgressMessage{Type: "progress", Payload: progress})
	if err != nil {
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for jobID, clients := range h.jobClients {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.jobClients, jobID)
		}
	}

	close(client.Send)
	h.logger.Debug("client removed", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
		delete(h.clients, client)
	}
	h.jobClients = make(map[string]map[*Client]struct{})
}
