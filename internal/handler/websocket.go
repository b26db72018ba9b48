package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"transithours/internal/domain"
	"transithours/internal/hub"
	"transithours/internal/jobs"
	"transithours/internal/metrics"
)

// WSHandler streams computation progress. Clients subscribe to job ids and
// receive a progress message for every processed date plus a terminal one.
type WSHandler struct {
	hub     *hub.Hub
	manager *jobs.Manager
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewWSHandler(h *hub.Hub, manager *jobs.Manager, collector *metrics.Collector, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, manager: manager, metrics: collector, logger: logger}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SubscribePayload struct {
	JobIDs []string `json:"jobIds"`
}

type SnapshotMessage struct {
	Type    string        `json:"type"`
	Payload []*domain.Job `json:"payload"`
}

type PongMessage struct {
	Type string `json:"type"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	h.metrics.WSConnections.Inc()
	defer h.metrics.WSConnections.Dec()

	clientID := uuid.New().String()
	client := hub.NewClient(clientID, 256)

	h.hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.JobIDs) > 0 {
				h.hub.Subscribe(client, payload.JobIDs)
				h.sendSnapshot(client, payload.JobIDs)
			}

		case "unsubscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.JobIDs) > 0 {
				h.hub.Unsubscribe(client, payload.JobIDs)
			}

		case "ping":
			data, err := json.Marshal(PongMessage{Type: "pong"})
			if err == nil {
				select {
				case client.Send <- data:
				default:
				}
			}
		}
	}
}

// sendSnapshot delivers the current state of the subscribed jobs so clients
// joining mid-computation don't start from a blank slate.
func (h *WSHandler) sendSnapshot(client *hub.Client, jobIDs []string) {
	var snapshot []*domain.Job
	for _, id := range jobIDs {
		if job, ok := h.manager.Get(id); ok {
			snapshot = append(snapshot, job)
		}
	}
	if len(snapshot) == 0 {
		return
	}

	data, err := json.Marshal(SnapshotMessage{Type: "snapshot", Payload: snapshot})
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Debug("client send buffer full on snapshot", "client_id", client.ID)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.Debug("websocket write error", "client_id", client.ID, "error", err)
				return
			}
		}
	}
}
