package play

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/state"
	"github.com/jwebster45206/scene-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cellarProject() *project.Project {
	return &project.Project{
		ID:    "cellar",
		Title: "The Cellar",
		Nodes: []project.Scene{
			{
				ID:      "hall",
				Title:   "Hall",
				Text:    "A dusty hall.",
				IsStart: true,
				Hotspots: []project.Hotspot{
					{
						ID:    "stairs",
						Label: "Stairs",
						Interactions: []project.HotspotInteraction{
							{
								ID:         "dark",
								Conditions: []project.Condition{project.FlagIsFalse{Flag: "lamp_lit"}},
								Effects:    []project.HotspotEffect{project.ShowMessage{Text: "Too dark to go down."}},
							},
						},
					},
					{
						ID:    "trapdoor",
						Label: "Trapdoor",
						Interactions: []project.HotspotInteraction{{
							ID: "fall",
							Effects: []project.HotspotEffect{
								project.SetFlag{Flag: "fell", Value: true},
								project.GoToNode{TargetNodeID: "pit"},
							},
						}},
					},
					{
						ID:    "door",
						Label: "Door",
						Interactions: []project.HotspotInteraction{{
							ID:      "leave",
							Effects: []project.HotspotEffect{project.ShowText{Text: "You step outside."}, project.GoToNode{TargetNodeID: "outside"}},
						}},
					},
				},
				PlacedItems: []project.PlacedItem{
					{ID: "lamp-1", ItemID: "lamp", State: project.DefaultPlacedState()},
				},
				PlacedNPCs: []project.PlacedNPC{{
					ID:    "cat-1",
					NPCID: "cat",
					State: project.DefaultPlacedState(),
					Interactions: []project.EntityInteraction{{
						ID:      "pet",
						Verb:    project.VerbTalk,
						Effects: []project.Effect{project.ShowText{Text: "Purr."}, project.StartDialogue{NPCID: "cat"}},
					}},
				}},
			},
			{ID: "outside", Title: "Outside", IsFinal: true},
		},
		Items: []project.Item{{ID: "lamp", Name: "Oil Lamp"}},
		NPCs:  []project.NPC{{ID: "cat", Name: "Cat"}},
	}
}

func TestNew(t *testing.T) {
	s, err := New(cellarProject(), WithProjectFile("cellar.json"))
	require.NoError(t, err)
	assert.Equal(t, "hall", s.State().CurrentNodeID)
	assert.Equal(t, "cellar.json", s.ProjectFile)
	assert.False(t, s.Ended())
	assert.False(t, s.Strict())

	_, err = New(&project.Project{})
	assert.ErrorIs(t, err, state.ErrEmptyProject)
}

func TestSession_ClickHotspot(t *testing.T) {
	s, err := New(cellarProject())
	require.NoError(t, err)

	require.NoError(t, s.ClickHotspot("door"))
	assert.Equal(t, "outside", s.State().CurrentNodeID)
	assert.True(t, s.Ended())
	assert.Equal(t, []Message{{Kind: MessageText, Text: "You step outside."}}, s.Messages())
	assert.Empty(t, s.Messages(), "messages should drain")

	assert.ErrorIs(t, s.ClickHotspot("door"), ErrSessionEnded)
	assert.ErrorIs(t, s.Interact("lamp-1", project.VerbTake), ErrSessionEnded)
}

func TestSession_UnknownHotspot(t *testing.T) {
	lenient, err := New(cellarProject())
	require.NoError(t, err)
	assert.NoError(t, lenient.ClickHotspot("window"))

	strict, err := New(cellarProject(), WithStrict(true))
	require.NoError(t, err)
	var unknown *UnknownHotspotError
	require.ErrorAs(t, strict.ClickHotspot("window"), &unknown)
	assert.Equal(t, "window", unknown.HotspotID)
}

func TestSession_PartialEffectsAdopted(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
	}{
		{"lenient", false},
		{"strict", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(cellarProject(), WithStrict(tt.strict))
			require.NoError(t, err)

			err = s.ClickHotspot("trapdoor")
			if tt.strict {
				var target *engine.UnknownTargetNodeError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "pit", target.TargetNodeID)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, s.State().Flag("fell"))
			assert.Equal(t, "hall", s.State().CurrentNodeID)
		})
	}
}

func TestSession_InteractAndUndo(t *testing.T) {
	s, err := New(cellarProject())
	require.NoError(t, err)
	assert.False(t, s.CanUndo())
	assert.False(t, s.Undo())

	require.NoError(t, s.Interact("lamp-1", project.VerbTake))
	assert.True(t, s.State().HasItem("lamp"))
	require.True(t, s.CanUndo())

	require.True(t, s.Undo())
	assert.False(t, s.State().HasItem("lamp"))
	lamp, _, _ := s.State().Project.FindPlacedItem("lamp-1")
	assert.True(t, lamp.State.Visible)

	// Actions that leave the state untouched are not recorded.
	require.NoError(t, s.Interact("lamp-1", project.VerbLook))
	assert.False(t, s.CanUndo())
}

func TestSession_HistoryLimit(t *testing.T) {
	s, err := New(cellarProject(), WithHistoryLimit(1))
	require.NoError(t, err)

	require.NoError(t, s.Interact("lamp-1", project.VerbTake))
	require.NoError(t, s.ClickHotspot("trapdoor"))
	assert.True(t, s.Undo())
	assert.False(t, s.Undo())
	assert.True(t, s.State().HasItem("lamp"), "oldest step should have been dropped")

	none, err := New(cellarProject(), WithHistoryLimit(0))
	require.NoError(t, err)
	require.NoError(t, none.Interact("lamp-1", project.VerbTake))
	assert.False(t, none.CanUndo())
}

func TestSession_InteractNPC(t *testing.T) {
	s, err := New(cellarProject(), WithStrict(true))
	require.NoError(t, err)

	err = s.InteractNPC("cat-1", project.VerbTalk)
	var unsupported *engine.UnsupportedEffectError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, []Message{{Kind: MessageText, Text: "Purr."}}, s.Messages())

	var unknown *engine.UnknownPlacedNPCError
	require.ErrorAs(t, s.InteractNPC("dog-1", project.VerbTalk), &unknown)
}

func TestSession_SaveAndResume(t *testing.T) {
	s, err := New(cellarProject(), WithProjectFile("cellar.json"), WithStrict(true))
	require.NoError(t, err)
	require.NoError(t, s.Interact("lamp-1", project.VerbTake))

	saved := s.Save()
	assert.Equal(t, s.ID, saved.ID)
	assert.True(t, saved.Strict)

	resumed, err := Resume(saved)
	require.NoError(t, err)
	assert.Equal(t, s.ID, resumed.ID)
	assert.Equal(t, "cellar.json", resumed.ProjectFile)
	assert.True(t, resumed.Strict())
	assert.True(t, resumed.State().HasItem("lamp"))

	// Undo history survives the round trip.
	require.True(t, resumed.CanUndo())
	require.True(t, resumed.Undo())
	assert.False(t, resumed.State().HasItem("lamp"))
	lamp, _, _ := resumed.State().Project.FindPlacedItem("lamp-1")
	assert.True(t, lamp.State.Visible)
	assert.False(t, resumed.CanUndo())

	saved.CurrentNodeID = "attic"
	_, err = Resume(saved)
	var dangling *state.DanglingCurrentNodeError
	assert.True(t, errors.As(err, &dangling))

	_, err = Resume(nil)
	assert.ErrorIs(t, err, state.ErrEmptyProject)
}

func TestSession_ResumeHistory(t *testing.T) {
	s, err := New(cellarProject())
	require.NoError(t, err)
	require.NoError(t, s.Interact("lamp-1", project.VerbTake))
	require.NoError(t, s.ClickHotspot("trapdoor"))

	saved := s.Save()
	require.Len(t, saved.History, 2)

	data, err := json.Marshal(saved)
	require.NoError(t, err)
	var loaded storage.SavedSession
	require.NoError(t, json.Unmarshal(data, &loaded))

	resumed, err := Resume(&loaded, WithHistoryLimit(1))
	require.NoError(t, err)
	require.True(t, resumed.Undo())
	assert.True(t, resumed.State().HasItem("lamp"))
	assert.False(t, resumed.State().Flag("fell"))
	assert.False(t, resumed.Undo(), "history should be trimmed to the limit")

	// Steps pointing at scenes that no longer exist are dropped.
	saved.History[0].CurrentNodeID = "attic"
	resumed, err = Resume(saved)
	require.NoError(t, err)
	require.True(t, resumed.Undo())
	assert.False(t, resumed.Undo())
}
