package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/scene-engine/pkg/storage"
)

// RouterConfig collects the router's dependencies. Publisher and Subscriber
// may be nil, which disables the event stream.
type RouterConfig struct {
	Storage    storage.Storage
	Publisher  Publisher
	Subscriber Subscriber
	Strict     bool
	Logger     *slog.Logger
}

// NewRouter registers every API route.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /health", NewHealthHandler(cfg.Storage, cfg.Logger))

	projects := NewProjectHandler(cfg.Logger, cfg.Storage)
	mux.HandleFunc("GET /v1/projects", projects.List)
	mux.HandleFunc("GET /v1/projects/{file}", projects.Get)

	sessions := NewSessionHandler(cfg.Logger, cfg.Storage, cfg.Publisher, cfg.Strict)
	mux.HandleFunc("POST /v1/sessions", sessions.Create)
	mux.HandleFunc("GET /v1/sessions/{id}", sessions.Get)
	mux.HandleFunc("DELETE /v1/sessions/{id}", sessions.Delete)
	mux.HandleFunc("POST /v1/sessions/{id}/hotspots/{hotspotId}", sessions.ClickHotspot)
	mux.HandleFunc("POST /v1/sessions/{id}/placed-items/{placedId}", sessions.InteractItem)
	mux.HandleFunc("POST /v1/sessions/{id}/placed-npcs/{placedId}", sessions.InteractNPC)
	mux.HandleFunc("POST /v1/sessions/{id}/commands", sessions.Command)

	if cfg.Subscriber != nil {
		mux.Handle("GET /v1/sessions/{id}/events", NewEventsHandler(cfg.Subscriber, cfg.Logger))
	}

	return mux
}
