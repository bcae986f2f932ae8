package engine

import (
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// ConditionsPass evaluates conditions as a conjunction. An empty list passes.
func ConditionsPass(gs *state.GameState, conditions []project.Condition) bool {
	eval := conditionEvaluator{gs: gs}
	for _, c := range conditions {
		if !project.MatchCondition[bool](c, eval) {
			return false
		}
	}
	return true
}

type conditionEvaluator struct {
	gs *state.GameState
}

func (e conditionEvaluator) HasItem(c project.HasItem) bool {
	return e.gs.HasItem(c.ItemID)
}

// FlagIsTrue and FlagIsFalse read unset flags as false, so an unset flag
// fails FlagIsTrue and passes FlagIsFalse.
func (e conditionEvaluator) FlagIsTrue(c project.FlagIsTrue) bool {
	return e.gs.Flag(c.Flag)
}

func (e conditionEvaluator) FlagIsFalse(c project.FlagIsFalse) bool {
	return !e.gs.Flag(c.Flag)
}

// firstMatch returns the first interaction whose conditions pass.
func firstMatch[E project.Effect](gs *state.GameState, interactions []project.Interaction[E]) (project.Interaction[E], bool) {
	for _, in := range interactions {
		if ConditionsPass(gs, in.Conditions) {
			return in, true
		}
	}
	return project.Interaction[E]{}, false
}

// firstVerbMatch is firstMatch restricted to interactions authored for verb.
// An invalid verb matches nothing.
func firstVerbMatch[E project.Effect](gs *state.GameState, interactions []project.Interaction[E], verb project.Verb) (project.Interaction[E], bool) {
	if !verb.Valid() {
		return project.Interaction[E]{}, false
	}
	for _, in := range interactions {
		if in.Verb == verb && ConditionsPass(gs, in.Conditions) {
			return in, true
		}
	}
	return project.Interaction[E]{}, false
}
