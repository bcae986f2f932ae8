package state

import (
	"maps"
	"slices"

	"github.com/jwebster45206/scene-engine/pkg/project"
)

// GameState is the runtime state of one play session. Values are treated as
// immutable: every With* method returns a new GameState and never touches
// the receiver, so callers may keep old states around freely.
type GameState struct {
	Project       *project.Project `json:"-"`
	CurrentNodeID string           `json:"currentNodeId"`
	Inventory     []string         `json:"inventory"` // set semantics, order is not meaningful
	Flags         map[string]bool  `json:"flags"`
}

// NewGameState creates the initial state for a validated project. It fails
// when the project has no scenes or more than one start scene. Without any
// start marker the first scene is used.
func NewGameState(p *project.Project) (*GameState, error) {
	if p == nil || len(p.Nodes) == 0 {
		return nil, ErrEmptyProject
	}

	starts := p.StartNodes()
	if len(starts) > 1 {
		return nil, &MultipleStartNodesError{NodeIDs: starts}
	}

	start := p.Nodes[0].ID
	if len(starts) == 1 {
		start = starts[0]
	}

	return &GameState{
		Project:       p,
		CurrentNodeID: start,
		Inventory:     []string{},
		Flags:         map[string]bool{},
	}, nil
}

// CurrentScene resolves the current node pointer. A dangling pointer means
// the graph is corrupted and the session cannot continue.
func (gs *GameState) CurrentScene() (*project.Scene, error) {
	scene := gs.Project.Node(gs.CurrentNodeID)
	if scene == nil {
		return nil, &DanglingCurrentNodeError{NodeID: gs.CurrentNodeID}
	}
	return scene, nil
}

// IsFinal reports whether the current scene is a terminal scene.
func (gs *GameState) IsFinal() bool {
	scene := gs.Project.Node(gs.CurrentNodeID)
	return scene != nil && scene.IsFinal
}

// HasItem reports whether the item is in the inventory.
func (gs *GameState) HasItem(itemID string) bool {
	return slices.Contains(gs.Inventory, itemID)
}

// Flag reads a flag. Flags that were never set read false.
func (gs *GameState) Flag(name string) bool {
	return gs.Flags[name]
}

// clone copies the collections so the copy can be changed independently.
func (gs *GameState) clone() *GameState {
	next := *gs
	next.Inventory = slices.Clone(gs.Inventory)
	if next.Inventory == nil {
		next.Inventory = []string{}
	}
	next.Flags = maps.Clone(gs.Flags)
	if next.Flags == nil {
		next.Flags = map[string]bool{}
	}
	return &next
}

// WithCurrentNode moves to another scene. The caller checks the target exists.
func (gs *GameState) WithCurrentNode(nodeID string) *GameState {
	next := *gs
	next.CurrentNodeID = nodeID
	return &next
}

// WithItem adds an item. Items are singletons, so adding a held item is a no-op.
func (gs *GameState) WithItem(itemID string) *GameState {
	if gs.HasItem(itemID) {
		return gs
	}
	next := gs.clone()
	next.Inventory = append(next.Inventory, itemID)
	return next
}

// WithoutItem removes an item. Removing an absent item is a no-op.
func (gs *GameState) WithoutItem(itemID string) *GameState {
	if !gs.HasItem(itemID) {
		return gs
	}
	next := gs.clone()
	next.Inventory = slices.DeleteFunc(next.Inventory, func(id string) bool { return id == itemID })
	return next
}

// WithFlag overwrites a flag.
func (gs *GameState) WithFlag(name string, value bool) *GameState {
	next := gs.clone()
	next.Flags[name] = value
	return next
}

// WithProject swaps the project, used when placed entity state changes.
func (gs *GameState) WithProject(p *project.Project) *GameState {
	next := *gs
	next.Project = p
	return &next
}
