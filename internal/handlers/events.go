package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/scene-engine/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Subscriber opens a per-session event subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID uuid.UUID) (*events.Subscription, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler streams session events over a websocket
type EventsHandler struct {
	subscriber Subscriber
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(subscriber Subscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		logger:     logger,
	}
}

// ServeHTTP handles GET /v1/sessions/{id}/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := h.subscriber.Subscribe(ctx, sessionID)
	if err != nil {
		h.logger.Error("Failed to subscribe to session events", "session_id", sessionID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to subscribe to events")
		return
	}
	defer func() {
		if err := sub.Close(); err != nil {
			h.logger.Error("Failed to close subscription", "error", err)
		}
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("Websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("Websocket connection established",
		"session_id", sessionID.String(),
		"remote_addr", r.RemoteAddr)

	// The read loop only exists to process pongs and notice the client leaving.
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("Websocket read error", "error", err)
				}
				return
			}
		}
	}()

	if err := h.write(conn, events.Event{
		Type:      "connected",
		SessionID: sessionID.String(),
		Data:      map[string]any{"message": "Connected to event stream"},
	}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Websocket client disconnected", "session_id", sessionID.String())
			return

		case event, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if err := h.write(conn, event); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.logger.Debug("Websocket ping failed", "error", err)
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", "error", err)
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("Websocket write failed", "error", err)
		return err
	}
	return nil
}
