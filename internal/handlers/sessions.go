package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/internal/logger"
	"github.com/jwebster45206/scene-engine/internal/play"
	"github.com/jwebster45206/scene-engine/pkg/api"
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/storage"
)

// sessionLockTTL bounds how long a crashed request can hold a session.
const sessionLockTTL = 30 * time.Second

// Publisher forwards session output to event stream subscribers.
type Publisher interface {
	PublishText(ctx context.Context, sessionID uuid.UUID, text string) error
	PublishMessage(ctx context.Context, sessionID uuid.UUID, text string) error
	PublishSessionUpdated(ctx context.Context, sessionID uuid.UUID, nodeID string, inventory []string) error
	PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, nodeID string) error
}

type SessionHandler struct {
	storage   storage.Storage
	publisher Publisher
	strict    bool
	logger    *slog.Logger
}

// NewSessionHandler creates a session handler. publisher may be nil.
func NewSessionHandler(logger *slog.Logger, storage storage.Storage, publisher Publisher, strict bool) *SessionHandler {
	return &SessionHandler{
		storage:   storage,
		publisher: publisher,
		strict:    strict,
		logger:    logger,
	}
}

func sessionResponse(s *play.Session, messages []play.Message) api.SessionResponse {
	gs := s.State()
	scene, _ := s.Scene()
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, api.Message{Kind: api.MessageKind(m.Kind), Text: m.Text})
	}
	return api.SessionResponse{
		ID:            s.ID,
		ProjectFile:   s.ProjectFile,
		CurrentNodeID: gs.CurrentNodeID,
		Scene:         scene,
		Inventory:     gs.Inventory,
		Flags:         gs.Flags,
		Ended:         s.Ended(),
		Strict:        s.Strict(),
		CanUndo:       s.CanUndo(),
		Messages:      out,
	}
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid create session request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Project = strings.TrimSpace(req.Project)
	if req.Project == "" {
		writeError(w, h.logger, http.StatusBadRequest, "project is required")
		return
	}

	ctx := r.Context()
	p, err := h.storage.GetProject(ctx, req.Project)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	strict := h.strict
	if req.Strict != nil {
		strict = *req.Strict
	}
	s, err := play.New(p,
		play.WithProjectFile(req.Project),
		play.WithStrict(strict),
		play.WithLogger(h.logger),
	)
	if err != nil {
		h.logger.Warn("Project cannot start a session", "project", req.Project, "error", err)
		writeDomainError(w, h.logger, err)
		return
	}

	if err := h.storage.SaveSession(ctx, s.ID, s.Save()); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Session created", "session_id", s.ID, "project", req.Project, "strict", strict)
	writeJSON(w, h.logger, http.StatusCreated, sessionResponse(s, nil))
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sessionResponse(s, nil))
}

// Delete handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClickHotspot handles POST /v1/sessions/{id}/hotspots/{hotspotId}
func (h *SessionHandler) ClickHotspot(w http.ResponseWriter, r *http.Request) {
	hotspotID := r.PathValue("hotspotId")
	h.act(w, r, func(s *play.Session) error {
		return s.ClickHotspot(hotspotID)
	})
}

// InteractItem handles POST /v1/sessions/{id}/placed-items/{placedId}
func (h *SessionHandler) InteractItem(w http.ResponseWriter, r *http.Request) {
	verb, ok := h.verb(w, r)
	if !ok {
		return
	}
	placedID := r.PathValue("placedId")
	h.act(w, r, func(s *play.Session) error {
		return s.Interact(placedID, verb)
	})
}

// InteractNPC handles POST /v1/sessions/{id}/placed-npcs/{placedId}
func (h *SessionHandler) InteractNPC(w http.ResponseWriter, r *http.Request) {
	verb, ok := h.verb(w, r)
	if !ok {
		return
	}
	placedID := r.PathValue("placedId")
	h.act(w, r, func(s *play.Session) error {
		return s.InteractNPC(placedID, verb)
	})
}

// Command handles POST /v1/sessions/{id}/commands
func (h *SessionHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req api.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "input is required")
		return
	}

	h.withLock(w, r, func() {
		h.command(w, r, req.Input)
	})
}

func (h *SessionHandler) command(w http.ResponseWriter, r *http.Request, input string) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	log := logger.WithSession(h.logger, s.ID.String())

	res, actErr := s.Execute(input)
	var messages []play.Message
	handled := false
	if res != nil {
		messages, handled = res.Messages, res.Handled
	}

	if !h.persist(w, r.Context(), log, s, messages) {
		return
	}
	if actErr != nil {
		log.Info("Command failed", "input", input, "error", actErr)
		writeDomainError(w, log, actErr)
		return
	}
	writeJSON(w, log, http.StatusOK, api.CommandResponse{
		SessionResponse: sessionResponse(s, messages),
		Handled:         handled,
	})
}

// act loads the session, runs one action, saves whatever state resulted and
// publishes the display output. The state is saved even when the action
// failed part way.
func (h *SessionHandler) act(w http.ResponseWriter, r *http.Request, do func(*play.Session) error) {
	h.withLock(w, r, func() {
		h.actLocked(w, r, do)
	})
}

func (h *SessionHandler) actLocked(w http.ResponseWriter, r *http.Request, do func(*play.Session) error) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	log := logger.WithSession(h.logger, s.ID.String())

	actErr := do(s)
	messages := s.Messages()

	if !h.persist(w, r.Context(), log, s, messages) {
		return
	}
	if actErr != nil {
		log.Info("Action failed", "error", actErr)
		writeDomainError(w, log, actErr)
		return
	}
	writeJSON(w, log, http.StatusOK, sessionResponse(s, messages))
}

// withLock runs fn while holding the session lock, so two actions on one
// session cannot both load the same state and overwrite each other's save.
// A request that finds the lock taken gets 409.
func (h *SessionHandler) withLock(w http.ResponseWriter, r *http.Request, fn func()) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	owner := uuid.NewString()
	locked, err := h.storage.LockSession(r.Context(), id, owner, sessionLockTTL)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if !locked {
		h.logger.Info("Session busy", "session_id", id)
		writeDomainError(w, h.logger, storage.ErrSessionBusy)
		return
	}
	defer func() {
		if err := h.storage.UnlockSession(context.WithoutCancel(r.Context()), id, owner); err != nil {
			h.logger.Warn("Failed to release session lock", "session_id", id, "error", err)
		}
	}()
	fn()
}

// persist saves the session and publishes its output. It writes the error
// response and reports false when the save fails.
func (h *SessionHandler) persist(w http.ResponseWriter, ctx context.Context, log *slog.Logger, s *play.Session, messages []play.Message) bool {
	if err := h.storage.SaveSession(ctx, s.ID, s.Save()); err != nil {
		writeDomainError(w, log, err)
		return false
	}
	h.publish(ctx, log, s, messages)
	return true
}

func (h *SessionHandler) publish(ctx context.Context, log *slog.Logger, s *play.Session, messages []play.Message) {
	if h.publisher == nil {
		return
	}
	var errs []error
	for _, m := range messages {
		switch m.Kind {
		case play.MessageText:
			errs = append(errs, h.publisher.PublishText(ctx, s.ID, m.Text))
		case play.MessageMessage:
			errs = append(errs, h.publisher.PublishMessage(ctx, s.ID, m.Text))
		}
	}
	gs := s.State()
	errs = append(errs, h.publisher.PublishSessionUpdated(ctx, s.ID, gs.CurrentNodeID, gs.Inventory))
	if s.Ended() {
		errs = append(errs, h.publisher.PublishSessionEnded(ctx, s.ID, gs.CurrentNodeID))
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn("Failed to publish session events", "error", err)
	}
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", r.PathValue("id"), "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request) (*play.Session, bool) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return nil, false
	}
	saved, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return nil, false
	}
	if saved == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return nil, false
	}
	s, err := play.Resume(saved, play.WithLogger(h.logger))
	if err != nil {
		h.logger.Error("Saved session cannot resume", "session_id", id, "error", err)
		writeDomainError(w, h.logger, err)
		return nil, false
	}
	return s, true
}

// verb reads the optional action body. A missing verb means use.
func (h *SessionHandler) verb(w http.ResponseWriter, r *http.Request) (project.Verb, bool) {
	var req api.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return 0, false
	}
	if strings.TrimSpace(req.Verb) == "" {
		return project.DefaultVerb, true
	}
	verb, ok := project.ParseVerb(req.Verb)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Unknown verb: "+req.Verb)
		return 0, false
	}
	return verb, true
}
