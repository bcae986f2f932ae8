// Package api holds the request and response bodies of the HTTP API, shared
// by the server and its clients.
package api

import (
	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/project"
)

// MessageKind tells a client how to render a Message.
type MessageKind string

const (
	MessageText    MessageKind = "text"
	MessageMessage MessageKind = "message"
)

// Message is one line of display output produced by an action.
type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// CreateSessionRequest defines the request body for starting a session
type CreateSessionRequest struct {
	Project string `json:"project"`          // Required: project filename
	Strict  *bool  `json:"strict,omitempty"` // Optional: override the server default
}

// ActionRequest defines the request body for placed item and NPC actions
type ActionRequest struct {
	Verb string `json:"verb"`
}

// CommandRequest defines the request body for typed player input
type CommandRequest struct {
	Input string `json:"input"`
}

// SessionResponse is the client view of a session after each action.
type SessionResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProjectFile   string          `json:"project_file"`
	CurrentNodeID string          `json:"current_node_id"`
	Scene         *project.Scene  `json:"scene"`
	Inventory     []string        `json:"inventory"`
	Flags         map[string]bool `json:"flags"`
	Ended         bool            `json:"ended"`
	Strict        bool            `json:"strict"`
	CanUndo       bool            `json:"can_undo"`
	Messages      []Message       `json:"messages"`
}

// CommandResponse adds whether typed input was understood.
type CommandResponse struct {
	SessionResponse
	Handled bool `json:"handled"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
