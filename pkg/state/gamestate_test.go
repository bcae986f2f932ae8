package state

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jwebster45206/scene-engine/pkg/project"
)

func TestNewGameState(t *testing.T) {
	tests := []struct {
		name         string
		project      *project.Project
		expectedNode string
		expectedErr  error
		multiStart   bool
	}{
		{
			name:        "nil project",
			project:     nil,
			expectedErr: ErrEmptyProject,
		},
		{
			name:        "no scenes",
			project:     &project.Project{Nodes: []project.Scene{}},
			expectedErr: ErrEmptyProject,
		},
		{
			name: "single start scene",
			project: &project.Project{Nodes: []project.Scene{
				{ID: "hall"}, {ID: "garden", IsStart: true},
			}},
			expectedNode: "garden",
		},
		{
			name: "no start scene falls back to first",
			project: &project.Project{Nodes: []project.Scene{
				{ID: "hall"}, {ID: "garden"},
			}},
			expectedNode: "hall",
		},
		{
			name: "two start scenes",
			project: &project.Project{Nodes: []project.Scene{
				{ID: "hall", IsStart: true}, {ID: "garden", IsStart: true},
			}},
			multiStart: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs, err := NewGameState(tt.project)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("Expected %v, got %v", tt.expectedErr, err)
				}
				if !IsFatal(err) {
					t.Error("Expected error to be fatal")
				}
				return
			}
			if tt.multiStart {
				var multi *MultipleStartNodesError
				if !errors.As(err, &multi) {
					t.Fatalf("Expected MultipleStartNodesError, got %v", err)
				}
				if !reflect.DeepEqual(multi.NodeIDs, []string{"hall", "garden"}) {
					t.Errorf("Unexpected node ids %v", multi.NodeIDs)
				}
				if !IsFatal(err) {
					t.Error("Expected error to be fatal")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if gs.CurrentNodeID != tt.expectedNode {
				t.Errorf("Expected current node %q, got %q", tt.expectedNode, gs.CurrentNodeID)
			}
			if gs.Inventory == nil || gs.Flags == nil {
				t.Error("Expected initialized inventory and flags")
			}
		})
	}
}

func TestGameState_CurrentScene(t *testing.T) {
	p := &project.Project{Nodes: []project.Scene{{ID: "hall", Title: "Hall", IsStart: true}}}
	gs, err := NewGameState(p)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	scene, err := gs.CurrentScene()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if scene.Title != "Hall" {
		t.Errorf("Expected Hall, got %q", scene.Title)
	}

	broken := gs.WithCurrentNode("attic")
	_, err = broken.CurrentScene()
	var dangling *DanglingCurrentNodeError
	if !errors.As(err, &dangling) || dangling.NodeID != "attic" {
		t.Fatalf("Expected DanglingCurrentNodeError for attic, got %v", err)
	}
	if !IsFatal(err) {
		t.Error("Expected dangling pointer to be fatal")
	}
}

func TestGameState_Items(t *testing.T) {
	gs := &GameState{Inventory: []string{}, Flags: map[string]bool{}}

	once := gs.WithItem("key")
	twice := once.WithItem("key")
	if !reflect.DeepEqual(twice.Inventory, []string{"key"}) {
		t.Errorf("Expected a single key, got %v", twice.Inventory)
	}
	if twice != once {
		t.Error("Expected adding a held item to return the same state")
	}
	if len(gs.Inventory) != 0 {
		t.Error("Original state was modified")
	}

	removed := twice.WithoutItem("key")
	if removed.HasItem("key") {
		t.Error("Expected key removed")
	}
	if !once.HasItem("key") {
		t.Error("Earlier state was modified by removal")
	}
	if same := removed.WithoutItem("key"); same != removed {
		t.Error("Expected removing an absent item to be a no-op")
	}
}

func TestGameState_Flags(t *testing.T) {
	gs := &GameState{Inventory: []string{}}

	if gs.Flag("never_set") {
		t.Error("Expected unset flag to read false")
	}

	on := gs.WithFlag("door", true)
	off := on.WithFlag("door", false)
	if !on.Flag("door") || off.Flag("door") {
		t.Errorf("Unexpected flags: on=%v off=%v", on.Flags, off.Flags)
	}
	if gs.Flags != nil {
		t.Error("Original state was modified")
	}
}

func TestGameState_IsFinal(t *testing.T) {
	p := &project.Project{Nodes: []project.Scene{{ID: "a", IsStart: true}, {ID: "z", IsFinal: true}}}
	gs, _ := NewGameState(p)
	if gs.IsFinal() {
		t.Error("Expected start scene not final")
	}
	if !gs.WithCurrentNode("z").IsFinal() {
		t.Error("Expected z to be final")
	}
	if gs.WithCurrentNode("missing").IsFinal() {
		t.Error("Expected dangling node not final")
	}
}
