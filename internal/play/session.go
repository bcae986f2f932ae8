// Package play holds the single owner of a running story: it keeps the
// current game state, feeds player input to the interpreter, and replaces
// the state with whatever the interpreter returns.
package play

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/state"
	"github.com/jwebster45206/scene-engine/pkg/storage"
)

// DefaultHistoryLimit bounds the undo stack.
const DefaultHistoryLimit = 50

// ErrSessionEnded is returned for input received after a final scene.
var ErrSessionEnded = errors.New("session has reached a final scene")

// UnknownHotspotError is returned when the current scene has no such hotspot.
type UnknownHotspotError struct {
	NodeID    string
	HotspotID string
}

func (e *UnknownHotspotError) Error() string {
	return fmt.Sprintf("scene %q has no hotspot %q", e.NodeID, e.HotspotID)
}

// MessageKind tells the presentation layer how to render a Message.
type MessageKind string

const (
	MessageText    MessageKind = "text"
	MessageMessage MessageKind = "message"
)

// Message is one showText or showMessage output.
type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// Session orchestrates one playthrough. It is not safe for concurrent use;
// input is expected one action at a time.
type Session struct {
	ID          uuid.UUID
	ProjectFile string
	CreatedAt   time.Time

	state        *state.GameState
	history      []*state.GameState
	historyLimit int
	pending      []Message
	strict       bool
	interp       *engine.Interpreter
	logger       *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithStrict makes interpreter errors fail the action instead of being
// logged and ignored.
func WithStrict(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithID sets the session id. New sessions get a random one.
func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.ID = id }
}

// WithProjectFile records where the project was loaded from.
func WithProjectFile(name string) Option {
	return func(s *Session) { s.ProjectFile = name }
}

// WithHistoryLimit bounds the number of undo steps kept. Zero disables undo.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.historyLimit = max(n, 0) }
}

func newSession(opts []Option) *Session {
	s := &Session{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		historyLimit: DefaultHistoryLimit,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.interp = engine.NewInterpreter(s.logger).WithDisplay(engine.DisplayFuncs{
		Text:    func(text string) { s.pending = append(s.pending, Message{Kind: MessageText, Text: text}) },
		Message: func(text string) { s.pending = append(s.pending, Message{Kind: MessageMessage, Text: text}) },
	})
	return s
}

// New starts a session at the project's start scene. Errors are fatal
// project errors from the state package.
func New(p *project.Project, opts ...Option) (*Session, error) {
	gs, err := state.NewGameState(p)
	if err != nil {
		return nil, err
	}
	s := newSession(opts)
	s.state = gs
	s.logger.Info("Session started", "session_id", s.ID, "project_id", p.ID, "node_id", gs.CurrentNodeID)
	return s, nil
}

// Resume restores a saved session. The saved current node must still resolve.
func Resume(saved *storage.SavedSession, opts ...Option) (*Session, error) {
	if saved == nil || saved.Project == nil || len(saved.Project.Nodes) == 0 {
		return nil, state.ErrEmptyProject
	}
	gs := saved.GameState()
	if _, err := gs.CurrentScene(); err != nil {
		return nil, err
	}

	opts = append([]Option{WithID(saved.ID), WithProjectFile(saved.ProjectFile), WithStrict(saved.Strict)}, opts...)
	s := newSession(opts)
	s.state = gs
	if !saved.CreatedAt.IsZero() {
		s.CreatedAt = saved.CreatedAt
	}
	for _, snap := range saved.History {
		prev := snap.GameState(saved.Project)
		if _, err := prev.CurrentScene(); err != nil {
			s.logger.Warn("Dropping undo step", "session_id", s.ID, "node_id", snap.CurrentNodeID, "error", err)
			continue
		}
		s.push(prev)
	}
	return s, nil
}

// Save captures the session, undo history included, for persistence.
func (s *Session) Save() *storage.SavedSession {
	saved := storage.NewSavedSession(s.ID, s.ProjectFile, s.state)
	saved.Strict = s.strict
	saved.CreatedAt = s.CreatedAt
	for _, gs := range s.history {
		saved.History = append(saved.History, storage.NewSnapshot(gs))
	}
	return saved
}

// State returns the current game state.
func (s *Session) State() *state.GameState {
	return s.state
}

// Strict reports whether interpreter errors fail actions.
func (s *Session) Strict() bool {
	return s.strict
}

// Scene returns the current scene.
func (s *Session) Scene() (*project.Scene, error) {
	return s.state.CurrentScene()
}

// Ended reports whether the story reached a final scene.
func (s *Session) Ended() bool {
	return s.state.IsFinal()
}

// Messages drains the display output produced since the last call.
func (s *Session) Messages() []Message {
	out := s.pending
	s.pending = nil
	return out
}

// ClickHotspot activates a hotspot of the current scene.
func (s *Session) ClickHotspot(hotspotID string) error {
	scene, err := s.guard()
	if err != nil {
		return err
	}
	hotspot := scene.Hotspot(hotspotID)
	if hotspot == nil {
		return s.fail(&UnknownHotspotError{NodeID: scene.ID, HotspotID: hotspotID})
	}
	return s.apply("hotspot", hotspotID, func(gs *state.GameState) (*state.GameState, error) {
		return s.interp.ApplyHotspot(gs, *hotspot)
	})
}

// Interact applies a verb to a placed item.
func (s *Session) Interact(placedItemID string, verb project.Verb) error {
	if _, err := s.guard(); err != nil {
		return err
	}
	return s.apply("placed_item", placedItemID, func(gs *state.GameState) (*state.GameState, error) {
		return s.interp.ApplyPlacedItemInteraction(gs, placedItemID, verb)
	})
}

// InteractNPC applies a verb to a placed NPC.
func (s *Session) InteractNPC(placedNPCID string, verb project.Verb) error {
	if _, err := s.guard(); err != nil {
		return err
	}
	return s.apply("placed_npc", placedNPCID, func(gs *state.GameState) (*state.GameState, error) {
		return s.interp.ApplyPlacedNPCInteraction(gs, placedNPCID, verb)
	})
}

// Undo restores the state before the last action that changed it.
func (s *Session) Undo() bool {
	if len(s.history) == 0 {
		return false
	}
	last := len(s.history) - 1
	s.state = s.history[last]
	s.history = s.history[:last]
	s.logger.Debug("Undo", "session_id", s.ID, "node_id", s.state.CurrentNodeID)
	return true
}

// CanUndo reports whether Undo would do anything.
func (s *Session) CanUndo() bool {
	return len(s.history) > 0
}

func (s *Session) guard() (*project.Scene, error) {
	scene, err := s.state.CurrentScene()
	if err != nil {
		return nil, err
	}
	if scene.IsFinal {
		return nil, ErrSessionEnded
	}
	return scene, nil
}

// apply runs one interpreter call. The returned state is adopted even when
// the call failed part way, matching the interpreter's left to right
// semantics. In lenient mode the error is then only logged.
func (s *Session) apply(target, id string, run func(*state.GameState) (*state.GameState, error)) error {
	prev := s.state
	next, err := run(prev)
	if next != nil && next != prev {
		s.push(prev)
		s.state = next
	}

	s.logger.Debug("Action applied", "session_id", s.ID, "target", target, "id", id,
		"node_id", s.state.CurrentNodeID, "error", err)

	if err != nil {
		return s.fail(err)
	}
	if s.state.IsFinal() {
		s.logger.Info("Session reached final scene", "session_id", s.ID, "node_id", s.state.CurrentNodeID)
	}
	return nil
}

func (s *Session) fail(err error) error {
	if s.strict || state.IsFatal(err) {
		return err
	}
	s.logger.Warn("Ignoring interaction error", "session_id", s.ID, "error", err)
	return nil
}

func (s *Session) push(gs *state.GameState) {
	if s.historyLimit == 0 {
		return
	}
	s.history = append(s.history, gs)
	if over := len(s.history) - s.historyLimit; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
}
