// Package engine interprets player actions against a game state. It is the
// only code that advances narrative state, and it does so by returning new
// state values: the state passed in is never modified.
//
// Effects apply left to right with no transactionality. When an effect fails,
// the partial state built from the effects before it is returned together
// with the error. The input state is still intact, so a caller wanting
// all-or-nothing semantics simply keeps it.
package engine

import (
	"log/slog"

	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// DefaultNotReachableText is shown when an unreachable item has no text of its own.
const DefaultNotReachableText = "You can't reach that from here."

// Interpreter applies hotspot and placed entity interactions.
type Interpreter struct {
	display Display
	logger  *slog.Logger
}

// NewInterpreter creates an interpreter. A nil logger disables logging.
func NewInterpreter(logger *slog.Logger) *Interpreter {
	return &Interpreter{
		display: discardDisplay{},
		logger:  logger,
	}
}

// WithDisplay sets the sink for showText and showMessage effects
// Returns the Interpreter for method chaining
func (in *Interpreter) WithDisplay(d Display) *Interpreter {
	if d == nil {
		d = discardDisplay{}
	}
	in.display = d
	return in
}

// ApplyHotspot runs the first interaction of the hotspot whose conditions
// pass. A hotspot without a matching interaction leaves the state unchanged.
func (in *Interpreter) ApplyHotspot(gs *state.GameState, hotspot project.Hotspot) (*state.GameState, error) {
	chosen, ok := firstMatch(gs, hotspot.Interactions)
	if !ok {
		in.debug("No hotspot interaction matched", "hotspot_id", hotspot.ID, "node_id", gs.CurrentNodeID)
		return gs, nil
	}
	in.debug("Applying hotspot interaction", "hotspot_id", hotspot.ID, "interaction_id", chosen.ID)
	return applyEffects(in, gs, chosen.Effects)
}

// ApplyPlacedItemInteraction applies verb to a placed item. Only
// interactions authored for verb are candidates, and a verb outside
// project.Verbs is a no-op. Hidden items
// ignore every verb, unreachable items answer anything but look with their
// not-reachable text, and items without authored interactions support an
// implicit take that moves the item to the inventory.
func (in *Interpreter) ApplyPlacedItemInteraction(gs *state.GameState, placedItemID string, verb project.Verb) (*state.GameState, error) {
	item, _, ok := gs.Project.FindPlacedItem(placedItemID)
	if !ok {
		return gs, &UnknownPlacedItemError{PlacedItemID: placedItemID}
	}
	if !verb.Valid() {
		in.debug("Ignoring invalid verb", "placed_item_id", placedItemID)
		return gs, nil
	}

	if blocked, next := in.gate(gs, item.State, verb); blocked {
		in.debug("Placed item interaction blocked", "placed_item_id", placedItemID, "verb", verb,
			"visible", item.State.Visible, "reachable", item.State.Reachable)
		return next, nil
	}

	if len(item.Interactions) == 0 {
		if verb != project.VerbTake {
			return gs, nil
		}
		in.debug("Implicit take", "placed_item_id", placedItemID, "item_id", item.ItemID)
		return applyEffects(in, gs, []project.Effect{
			project.AddItem{ItemID: item.ItemID},
			project.SetPlacedItemVisible{PlacedItemID: item.ID, Value: false},
		})
	}

	chosen, ok := firstVerbMatch(gs, item.Interactions, verb)
	if !ok {
		in.debug("No placed item interaction matched", "placed_item_id", placedItemID, "verb", verb)
		return gs, nil
	}
	in.debug("Applying placed item interaction", "placed_item_id", placedItemID, "interaction_id", chosen.ID)
	return applyEffects(in, gs, chosen.Effects)
}

// ApplyPlacedNPCInteraction applies verb to a placed NPC with the same
// visibility and reachability rules as items. NPCs have no implicit verbs.
func (in *Interpreter) ApplyPlacedNPCInteraction(gs *state.GameState, placedNPCID string, verb project.Verb) (*state.GameState, error) {
	npc, _, ok := gs.Project.FindPlacedNPC(placedNPCID)
	if !ok {
		return gs, &UnknownPlacedNPCError{PlacedNPCID: placedNPCID}
	}
	if !verb.Valid() {
		in.debug("Ignoring invalid verb", "placed_npc_id", placedNPCID)
		return gs, nil
	}

	if blocked, next := in.gate(gs, npc.State, verb); blocked {
		return next, nil
	}

	chosen, ok := firstVerbMatch(gs, npc.Interactions, verb)
	if !ok {
		in.debug("No placed npc interaction matched", "placed_npc_id", placedNPCID, "verb", verb)
		return gs, nil
	}
	in.debug("Applying placed npc interaction", "placed_npc_id", placedNPCID, "interaction_id", chosen.ID)
	return applyEffects(in, gs, chosen.Effects)
}

// gate applies the visibility and reachability rules shared by placed entities.
func (in *Interpreter) gate(gs *state.GameState, st project.PlacedState, verb project.Verb) (bool, *state.GameState) {
	if !st.Visible {
		return true, gs
	}
	if verb != project.VerbLook && !st.Reachable {
		text := st.NotReachableText
		if text == "" {
			text = DefaultNotReachableText
		}
		next, _ := applyEffects(in, gs, []project.Effect{project.ShowMessage{Text: text}})
		return true, next
	}
	return false, gs
}

// applyEffects folds effects into gs in order and stops at the first failure.
func applyEffects[E project.Effect](in *Interpreter, gs *state.GameState, effects []E) (*state.GameState, error) {
	a := &effectApplier{in: in, gs: gs}
	for _, e := range effects {
		if err := project.MatchEffect[error](e, a); err != nil {
			in.debug("Effect failed, earlier effects stay applied", "effect", e.Kind(), "error", err)
			return a.gs, err
		}
	}
	return a.gs, nil
}

func (in *Interpreter) debug(msg string, args ...any) {
	if in.logger != nil {
		in.logger.Debug(msg, args...)
	}
}
