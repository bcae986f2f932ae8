package storage

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/normalize"
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// SavedSession is the persisted form of a play session. Placed entity state
// lives inside the project, so a copy of the project is stored with the
// narrative state rather than a reference to the file it came from.
type SavedSession struct {
	ID            uuid.UUID        `json:"id"`
	ProjectFile   string           `json:"projectFile"`
	Project       *project.Project `json:"project"`
	CurrentNodeID string           `json:"currentNodeId"`
	Inventory     []string         `json:"inventory"`
	Flags         map[string]bool  `json:"flags"`
	Strict        bool             `json:"strict"`
	History       []Snapshot       `json:"history,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewSavedSession captures gs under id.
func NewSavedSession(id uuid.UUID, projectFile string, gs *state.GameState) *SavedSession {
	now := time.Now()
	s := &SavedSession{
		ID:          id,
		ProjectFile: projectFile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Capture(gs)
	return s
}

// Capture replaces the stored narrative state with gs.
func (s *SavedSession) Capture(gs *state.GameState) {
	s.Project = gs.Project
	s.CurrentNodeID = gs.CurrentNodeID
	s.Inventory = slices.Clone(gs.Inventory)
	s.Flags = maps.Clone(gs.Flags)
}

// GameState rebuilds the runtime state.
func (s *SavedSession) GameState() *state.GameState {
	gs := &state.GameState{
		Project:       s.Project,
		CurrentNodeID: s.CurrentNodeID,
		Inventory:     slices.Clone(s.Inventory),
		Flags:         maps.Clone(s.Flags),
	}
	if gs.Inventory == nil {
		gs.Inventory = []string{}
	}
	if gs.Flags == nil {
		gs.Flags = map[string]bool{}
	}
	return gs
}

// Snapshot is one undo step. The project structure never changes during
// play, so only the narrative state and placed entity states are kept.
type Snapshot struct {
	CurrentNodeID string                         `json:"currentNodeId"`
	Inventory     []string                       `json:"inventory"`
	Flags         map[string]bool                `json:"flags"`
	PlacedItems   map[string]project.PlacedState `json:"placedItems"`
	PlacedNPCs    map[string]project.PlacedState `json:"placedNpcs"`
}

// NewSnapshot captures gs.
func NewSnapshot(gs *state.GameState) Snapshot {
	items, npcs := gs.Project.PlacedStates()
	return Snapshot{
		CurrentNodeID: gs.CurrentNodeID,
		Inventory:     slices.Clone(gs.Inventory),
		Flags:         maps.Clone(gs.Flags),
		PlacedItems:   items,
		PlacedNPCs:    npcs,
	}
}

// GameState rebuilds the captured state on top of p.
func (s Snapshot) GameState(p *project.Project) *state.GameState {
	gs := &state.GameState{
		Project:       p.WithPlacedStates(s.PlacedItems, s.PlacedNPCs),
		CurrentNodeID: s.CurrentNodeID,
		Inventory:     slices.Clone(s.Inventory),
		Flags:         maps.Clone(s.Flags),
	}
	if gs.Inventory == nil {
		gs.Inventory = []string{}
	}
	if gs.Flags == nil {
		gs.Flags = map[string]bool{}
	}
	return gs
}

// UnmarshalJSON reads the embedded project through the normalizer, which is
// the only way conditions and effects are decoded.
func (s *SavedSession) UnmarshalJSON(data []byte) error {
	type alias SavedSession
	aux := struct {
		*alias
		Project json.RawMessage `json:"project"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Project) == 0 || string(aux.Project) == "null" {
		s.Project = nil
		return nil
	}
	p, err := normalize.Decode(aux.Project)
	if err != nil {
		return fmt.Errorf("failed to decode session project: %w", err)
	}
	s.Project = p
	return nil
}
