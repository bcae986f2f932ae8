package engine

import (
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// effectApplier folds one effect at a time into gs. Implementing
// project.EffectMatcher makes a new effect variant a compile error here
// until it is handled.
type effectApplier struct {
	in *Interpreter
	gs *state.GameState
}

func (a *effectApplier) GoToNode(e project.GoToNode) error {
	if a.gs.Project.Node(e.TargetNodeID) == nil {
		return &UnknownTargetNodeError{TargetNodeID: e.TargetNodeID}
	}
	a.gs = a.gs.WithCurrentNode(e.TargetNodeID)
	return nil
}

func (a *effectApplier) AddItem(e project.AddItem) error {
	a.gs = a.gs.WithItem(e.ItemID)
	return nil
}

func (a *effectApplier) RemoveItem(e project.RemoveItem) error {
	a.gs = a.gs.WithoutItem(e.ItemID)
	return nil
}

func (a *effectApplier) SetFlag(e project.SetFlag) error {
	a.gs = a.gs.WithFlag(e.Flag, e.Value)
	return nil
}

func (a *effectApplier) StartDialogue(e project.StartDialogue) error {
	return &UnsupportedEffectError{Kind: e.Kind()}
}

func (a *effectApplier) GiveItemToNPC(e project.GiveItemToNPC) error {
	return &UnsupportedEffectError{Kind: e.Kind()}
}

func (a *effectApplier) ShowText(e project.ShowText) error {
	a.in.display.ShowText(e.Text)
	return nil
}

func (a *effectApplier) ShowMessage(e project.ShowMessage) error {
	a.in.display.ShowMessage(e.Text)
	return nil
}

func (a *effectApplier) SetPlacedItemVisible(e project.SetPlacedItemVisible) error {
	a.updatePlaced(e.PlacedItemID, func(s project.PlacedState) project.PlacedState {
		s.Visible = e.Value
		return s
	})
	return nil
}

func (a *effectApplier) SetPlacedItemReachable(e project.SetPlacedItemReachable) error {
	a.updatePlaced(e.PlacedItemID, func(s project.PlacedState) project.PlacedState {
		s.Reachable = e.Value
		return s
	})
	return nil
}

// updatePlaced ignores ids that match no placed item.
func (a *effectApplier) updatePlaced(id string, update func(project.PlacedState) project.PlacedState) {
	next, ok := a.gs.Project.WithPlacedItemState(id, update)
	if !ok {
		a.in.debug("Placed item state change skipped, id not found", "placed_item_id", id)
		return
	}
	a.gs = a.gs.WithProject(next)
}
