package engine

import (
	"fmt"

	"github.com/jwebster45206/scene-engine/pkg/project"
)

// Player-input errors. They point at an authoring or data bug rather than a
// player mistake; callers choose to log and continue or to fail hard.

// UnknownPlacedItemError is returned when an interaction names a placed item
// that does not exist anywhere in the project.
type UnknownPlacedItemError struct {
	PlacedItemID string
}

func (e *UnknownPlacedItemError) Error() string {
	return fmt.Sprintf("unknown placed item %q", e.PlacedItemID)
}

// UnknownPlacedNPCError is returned for an unknown placed NPC id.
type UnknownPlacedNPCError struct {
	PlacedNPCID string
}

func (e *UnknownPlacedNPCError) Error() string {
	return fmt.Sprintf("unknown placed npc %q", e.PlacedNPCID)
}

// UnknownTargetNodeError is returned when goToNode targets a missing scene.
type UnknownTargetNodeError struct {
	TargetNodeID string
}

func (e *UnknownTargetNodeError) Error() string {
	return fmt.Sprintf("goToNode target %q does not exist", e.TargetNodeID)
}

// UnsupportedEffectError marks an effect the runtime knows but cannot run yet.
// It is a capability gap, not a data problem.
type UnsupportedEffectError struct {
	Kind project.EffectKind
}

func (e *UnsupportedEffectError) Error() string {
	return fmt.Sprintf("effect %q is not supported", e.Kind)
}
