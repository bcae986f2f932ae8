package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/api"
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

type published struct {
	Kind string
	Text string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) add(kind, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{kind, text})
	return nil
}

func (p *recordingPublisher) PublishText(_ context.Context, _ uuid.UUID, text string) error {
	return p.add("text", text)
}

func (p *recordingPublisher) PublishMessage(_ context.Context, _ uuid.UUID, text string) error {
	return p.add("message", text)
}

func (p *recordingPublisher) PublishSessionUpdated(_ context.Context, _ uuid.UUID, nodeID string, _ []string) error {
	return p.add("updated", nodeID)
}

func (p *recordingPublisher) PublishSessionEnded(_ context.Context, _ uuid.UUID, nodeID string) error {
	return p.add("ended", nodeID)
}

func lighthouse() *project.Project {
	return &project.Project{
		ID:    "lh",
		Title: "The Lighthouse",
		Nodes: []project.Scene{
			{
				ID:      "shore",
				Title:   "Shore",
				IsStart: true,
				Hotspots: []project.Hotspot{
					{
						ID: "path",
						Interactions: []project.HotspotInteraction{{
							ID:         "climb",
							Conditions: []project.Condition{project.HasItem{ItemID: "lamp"}},
							Effects:    []project.HotspotEffect{project.ShowText{Text: "You climb."}, project.GoToNode{TargetNodeID: "tower"}},
						}},
					},
					{
						ID: "cliff",
						Interactions: []project.HotspotInteraction{{
							ID:      "jump",
							Effects: []project.HotspotEffect{project.SetFlag{Flag: "brave", Value: true}, project.GoToNode{TargetNodeID: "sea"}},
						}},
					},
				},
				PlacedItems: []project.PlacedItem{
					{ID: "lamp-1", ItemID: "lamp", State: project.DefaultPlacedState()},
					{ID: "bell-1", ItemID: "bell", State: project.PlacedState{Visible: true, NotReachableText: "Too high."}},
				},
				PlacedNPCs: []project.PlacedNPC{{
					ID:    "keeper-1",
					NPCID: "keeper",
					State: project.DefaultPlacedState(),
					Interactions: []project.EntityInteraction{{
						ID:      "talk",
						Verb:    project.VerbTalk,
						Effects: []project.Effect{project.StartDialogue{NPCID: "keeper"}},
					}},
				}},
			},
			{ID: "tower", Title: "Tower", IsFinal: true},
		},
	}
}

type testServer struct {
	mux       http.Handler
	storage   *storage.MockStorage
	publisher *recordingPublisher
}

func newTestServer(strict bool) *testServer {
	mock := storage.NewMockStorage()
	mock.AddProject("lighthouse.json", lighthouse())
	mock.AddProject("empty.json", &project.Project{Title: "Empty"})
	pub := &recordingPublisher{}
	return &testServer{
		mux: NewRouter(RouterConfig{
			Storage:   mock,
			Publisher: pub,
			Strict:    strict,
			Logger:    testLogger(),
		}),
		storage:   mock,
		publisher: pub,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	ts.mux.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) create(t *testing.T, body string) api.SessionResponse {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp api.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(false)

	rr := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[HealthResponse](t, rr)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["storage"])

	ts.storage.SetPingError(errors.New("connection refused"))
	rr = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	resp = decode[HealthResponse](t, rr)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["storage"])
}

func TestProjectHandler(t *testing.T) {
	ts := newTestServer(false)

	rr := ts.do(t, http.MethodGet, "/v1/projects", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"The Lighthouse": "lighthouse.json", "Empty": "empty.json"}, decode[map[string]string](t, rr))

	rr = ts.do(t, http.MethodGet, "/v1/projects/lighthouse.json", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"type":"goToNode"`)

	rr = ts.do(t, http.MethodGet, "/v1/projects/missing.json", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "project_not_found", decode[api.ErrorResponse](t, rr).Kind)

	rr = ts.do(t, http.MethodGet, "/v1/projects/bad..json", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_Lifecycle(t *testing.T) {
	ts := newTestServer(false)

	created := ts.create(t, `{"project":"lighthouse.json"}`)
	assert.Equal(t, "shore", created.CurrentNodeID)
	assert.Equal(t, "Shore", created.Scene.Title)
	assert.False(t, created.Strict)
	assert.Empty(t, created.Messages)

	path := "/v1/sessions/" + created.ID.String()

	// The path needs the lamp, so nothing happens yet.
	rr := ts.do(t, http.MethodPost, path+"/hotspots/path", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "shore", decode[api.SessionResponse](t, rr).CurrentNodeID)

	rr = ts.do(t, http.MethodPost, path+"/placed-items/lamp-1", `{"verb":"take"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"lamp"}, decode[api.SessionResponse](t, rr).Inventory)

	rr = ts.do(t, http.MethodPost, path+"/hotspots/path", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[api.SessionResponse](t, rr)
	assert.Equal(t, "tower", resp.CurrentNodeID)
	assert.True(t, resp.Ended)
	assert.Equal(t, []api.Message{{Kind: api.MessageText, Text: "You climb."}}, resp.Messages)

	assert.Contains(t, ts.publisher.events, published{"text", "You climb."})
	assert.Contains(t, ts.publisher.events, published{"ended", "tower"})

	rr = ts.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tower", decode[api.SessionResponse](t, rr).CurrentNodeID)

	rr = ts.do(t, http.MethodPost, path+"/hotspots/path", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "session_ended", decode[api.ErrorResponse](t, rr).Kind)

	rr = ts.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_CreateErrors(t *testing.T) {
	ts := newTestServer(false)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing project", `{}`, http.StatusBadRequest},
		{"unknown project", `{"project":"nope.json"}`, http.StatusNotFound},
		{"project without scenes", `{"project":"empty.json"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/v1/sessions", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestSessionHandler_BadIDs(t *testing.T) {
	ts := newTestServer(false)

	rr := ts.do(t, http.MethodGet, "/v1/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodGet, "/v1/sessions/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	created := ts.create(t, `{"project":"lighthouse.json"}`)
	rr = ts.do(t, http.MethodPost, "/v1/sessions/"+created.ID.String()+"/placed-items/lamp-1", `{"verb":"dance"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_StrictErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{"unknown hotspot", "/hotspots/window", "", http.StatusUnprocessableEntity, "unknown_hotspot"},
		{"unknown target", "/hotspots/cliff", "", http.StatusUnprocessableEntity, "unknown_target_node"},
		{"unknown placed item", "/placed-items/rope-1", `{"verb":"take"}`, http.StatusUnprocessableEntity, "unknown_placed_item"},
		{"unknown placed npc", "/placed-npcs/ghost-1", `{"verb":"talk"}`, http.StatusUnprocessableEntity, "unknown_placed_npc"},
		{"unsupported effect", "/placed-npcs/keeper-1", `{"verb":"talk"}`, http.StatusNotImplemented, "unsupported_effect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(true)
			created := ts.create(t, `{"project":"lighthouse.json"}`)
			assert.True(t, created.Strict)

			rr := ts.do(t, http.MethodPost, "/v1/sessions/"+created.ID.String()+tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.kind, decode[api.ErrorResponse](t, rr).Kind)
		})
	}
}

func TestSessionHandler_PartialStateSaved(t *testing.T) {
	ts := newTestServer(false)
	created := ts.create(t, `{"project":"lighthouse.json","strict":true}`)
	path := "/v1/sessions/" + created.ID.String()

	rr := ts.do(t, http.MethodPost, path+"/hotspots/cliff", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = ts.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[api.SessionResponse](t, rr)
	assert.True(t, resp.Flags["brave"], "effects before the failure should be saved")
	assert.Equal(t, "shore", resp.CurrentNodeID)
}

func TestSessionHandler_Lenient(t *testing.T) {
	ts := newTestServer(false)
	created := ts.create(t, `{"project":"lighthouse.json"}`)
	path := "/v1/sessions/" + created.ID.String()

	rr := ts.do(t, http.MethodPost, path+"/placed-npcs/keeper-1", `{"verb":"talk"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodPost, path+"/placed-items/bell-1", `{"verb":"use"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []api.Message{{Kind: api.MessageMessage, Text: "Too high."}}, decode[api.SessionResponse](t, rr).Messages)

	// No body means the default verb.
	rr = ts.do(t, http.MethodPost, path+"/placed-items/bell-1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSessionHandler_SaveFailure(t *testing.T) {
	ts := newTestServer(false)
	created := ts.create(t, `{"project":"lighthouse.json"}`)

	ts.storage.SetSaveError(errors.New("redis down"))
	rr := ts.do(t, http.MethodPost, "/v1/sessions/"+created.ID.String()+"/placed-items/lamp-1", `{"verb":"take"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, strings.Contains(rr.Body.String(), "redis down"), "internal errors should not leak")
}

func TestSessionHandler_Command(t *testing.T) {
	ts := newTestServer(false)
	created := ts.create(t, `{"project":"lighthouse.json"}`)
	path := "/v1/sessions/" + created.ID.String() + "/commands"

	rr := ts.do(t, http.MethodPost, path, `{"input":"look"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[api.CommandResponse](t, rr)
	assert.True(t, resp.Handled)
	require.Len(t, resp.Messages, 1)
	assert.Contains(t, resp.Messages[0].Text, "Shore")

	rr = ts.do(t, http.MethodPost, path, `{"input":"xyzzy"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[api.CommandResponse](t, rr).Handled)

	rr = ts.do(t, http.MethodPost, path, `{"input":"take lamp"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"lamp"}, decode[api.CommandResponse](t, rr).Inventory)

	rr = ts.do(t, http.MethodPost, path, `{"input":"click path"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decode[api.CommandResponse](t, rr)
	assert.Equal(t, "tower", resp.CurrentNodeID)
	assert.True(t, resp.Ended)
	assert.Contains(t, ts.publisher.events, published{"text", "You climb."})

	// The tower has no hotspots of its own.
	rr = ts.do(t, http.MethodPost, path, `{"input":"click path"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []api.Message{{Kind: api.MessageMessage, Text: "You see no path here."}}, decode[api.CommandResponse](t, rr).Messages)

	rr = ts.do(t, http.MethodPost, path, `{"input":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = ts.do(t, http.MethodPost, path, `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_SessionBusy(t *testing.T) {
	ts := newTestServer(false)
	created := ts.create(t, `{"project":"lighthouse.json"}`)
	path := "/v1/sessions/" + created.ID.String()
	ctx := context.Background()

	locked, err := ts.storage.LockSession(ctx, created.ID, "other-request", time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	rr := ts.do(t, http.MethodPost, path+"/placed-items/lamp-1", `{"verb":"take"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "session_busy", decode[api.ErrorResponse](t, rr).Kind)

	rr = ts.do(t, http.MethodPost, path+"/commands", `{"input":"take lamp"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Reads are not serialized.
	rr = ts.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[api.SessionResponse](t, rr).Inventory)

	require.NoError(t, ts.storage.UnlockSession(ctx, created.ID, "other-request"))
	rr = ts.do(t, http.MethodPost, path+"/placed-items/lamp-1", `{"verb":"take"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"lamp"}, decode[api.SessionResponse](t, rr).Inventory)

	// The handler releases its own lock.
	rr = ts.do(t, http.MethodPost, path+"/commands", `{"input":"look"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSessionHandler_UndoAcrossRequests(t *testing.T) {
	ts := newTestServer(false)
	created := ts.create(t, `{"project":"lighthouse.json"}`)
	assert.False(t, created.CanUndo)
	path := "/v1/sessions/" + created.ID.String()

	rr := ts.do(t, http.MethodPost, path+"/placed-items/lamp-1", `{"verb":"take"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[api.SessionResponse](t, rr)
	assert.Equal(t, []string{"lamp"}, resp.Inventory)
	assert.True(t, resp.CanUndo)

	rr = ts.do(t, http.MethodPost, path+"/commands", `{"input":"undo"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	cmd := decode[api.CommandResponse](t, rr)
	assert.True(t, cmd.Handled)
	assert.Empty(t, cmd.Inventory)
	assert.False(t, cmd.CanUndo)

	rr = ts.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[api.SessionResponse](t, rr).Inventory, "the undo should be saved")

	rr = ts.do(t, http.MethodPost, path+"/commands", `{"input":"undo"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []api.Message{{Kind: api.MessageMessage, Text: "Nothing to undo."}}, decode[api.CommandResponse](t, rr).Messages)
}
