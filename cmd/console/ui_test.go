package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/api"
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Rusty Key", displayName("rusty_key"))
	assert.Equal(t, "Oil Lamp", displayName("oil-lamp"))
	assert.Equal(t, "", displayName(""))
}

func TestAppendResponse(t *testing.T) {
	resp := &api.CommandResponse{
		SessionResponse: api.SessionResponse{
			Messages: []api.Message{
				{Kind: api.MessageText, Text: "The door creaks."},
				{Kind: api.MessageMessage, Text: "Locked."},
			},
			Ended: true,
		},
		Handled: true,
	}

	entries := appendResponse(nil, resp)
	assert.Equal(t, []entry{
		{entryText, "The door creaks."},
		{entryMessage, "Locked."},
		{entrySystem, "THE END"},
	}, entries)

	entries = appendResponse(nil, &api.CommandResponse{Handled: false})
	assert.Equal(t, []entry{{entryMessage, notUnderstood}}, entries)
}

func TestPlainTranscript(t *testing.T) {
	entries := []entry{
		{entryPlayer, "take lamp"},
		{entryText, "Taken."},
		{entryError, "boom"},
	}
	assert.Equal(t, "> take lamp\n\nTaken.\n\nError: boom", plainTranscript(entries))
}

func TestRenderTranscriptWraps(t *testing.T) {
	long := strings.Repeat("word ", 40)
	empty := strings.Count(renderTranscript(nil, 30), "\n")
	out := renderTranscript([]entry{{entryText, long}}, 30)
	assert.Greater(t, strings.Count(out, "\n"), empty+4)
}

func TestWriteMetadata(t *testing.T) {
	out := writeMetadata(&api.SessionResponse{
		ProjectFile:   "lighthouse.json",
		CurrentNodeID: "shore",
		Scene:         &project.Scene{ID: "shore", Title: "The Shore"},
		Inventory:     []string{"oil_lamp"},
		Flags:         map[string]bool{"b": true, "a": false},
	})
	assert.Contains(t, out, "The Shore")
	assert.Contains(t, out, "Oil Lamp")
	assert.Less(t, strings.Index(out, "• a:"), strings.Index(out, "• b:"))
}

func TestAPIClient(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/health":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v1/projects":
			_ = json.NewEncoder(w).Encode(map[string]string{"Zeta": "zeta.json", "Alpha": "alpha.json"})
		case r.URL.Path == "/v1/sessions" && r.Method == http.MethodPost:
			var req api.CreateSessionRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Project != "alpha.json" {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "project not found", Kind: "project_not_found"})
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(api.SessionResponse{ID: id, ProjectFile: req.Project, Strict: *req.Strict})
		case r.URL.Path == "/v1/sessions/"+id.String()+"/commands":
			var req api.CommandRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(api.CommandResponse{
				SessionResponse: api.SessionResponse{ID: id, Messages: []api.Message{{Kind: api.MessageText, Text: req.Input}}},
				Handled:         true,
			})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	client := newAPIClient(&ConsoleConfig{APIBaseURL: srv.URL, Timeout: 5 * time.Second})
	assert.True(t, client.testConnection())

	names, projects, err := client.listProjects()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Zeta"}, names)
	assert.Equal(t, "zeta.json", projects["Zeta"])

	created, err := client.createSession("alpha.json", true)
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
	assert.True(t, created.Strict)

	_, err = client.createSession("nope.json", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project not found")

	resp, err := client.sendCommand(id, "look")
	require.NoError(t, err)
	assert.True(t, resp.Handled)
	assert.Equal(t, "look", resp.Messages[0].Text)

	_, err = client.getSession(uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "418")
}
