package project

// Interaction is an authored response to a player action. Conditions are
// AND-combined and an empty list always passes. Effects run in list order.
//
// The effect type parameter pins the legal vocabulary: hotspots carry
// Interaction[HotspotEffect], placed items and NPCs carry Interaction[Effect].
type Interaction[E Effect] struct {
	ID         string      `json:"id"`
	Verb       Verb        `json:"verb"`
	Label      string      `json:"label,omitempty"`
	Cursor     string      `json:"cursor,omitempty"`
	Conditions []Condition `json:"conditions"`
	Effects    []E         `json:"effects"`
}

// HotspotInteraction is an interaction restricted to the hotspot vocabulary.
type HotspotInteraction = Interaction[HotspotEffect]

// EntityInteraction is an interaction on a placed item or placed NPC.
type EntityInteraction = Interaction[Effect]

// EffectList widens the interaction's effects to the full vocabulary.
func (i Interaction[E]) EffectList() []Effect {
	out := make([]Effect, len(i.Effects))
	for n, e := range i.Effects {
		out[n] = e
	}
	return out
}
