package project

import "encoding/json"

// EffectKind is the wire tag of an Effect variant.
type EffectKind string

const (
	EffectGoToNode               EffectKind = "goToNode"
	EffectAddItem                EffectKind = "addItem"
	EffectRemoveItem             EffectKind = "removeItem"
	EffectSetFlag                EffectKind = "setFlag"
	EffectStartDialogue          EffectKind = "startDialogue"
	EffectGiveItemToNPC          EffectKind = "giveItemToNpc"
	EffectShowText               EffectKind = "showText"
	EffectShowMessage            EffectKind = "showMessage"
	EffectSetPlacedItemVisible   EffectKind = "setPlacedItemVisible"
	EffectSetPlacedItemReachable EffectKind = "setPlacedItemReachable"
)

// EffectKinds lists every effect variant in declaration order.
func EffectKinds() []EffectKind {
	return []EffectKind{
		EffectGoToNode,
		EffectAddItem,
		EffectRemoveItem,
		EffectSetFlag,
		EffectStartDialogue,
		EffectGiveItemToNPC,
		EffectShowText,
		EffectShowMessage,
		EffectSetPlacedItemVisible,
		EffectSetPlacedItemReachable,
	}
}

// Effect is an atomic state mutation or side-channel signal. The set of
// variants is closed: only types in this package implement it.
type Effect interface {
	Kind() EffectKind
	accept(effectVisitor)
}

// HotspotEffect is the restricted vocabulary legal on free-standing scene
// hotspots. Only GoToNode, SetFlag, ShowText and ShowMessage implement it.
type HotspotEffect interface {
	Effect
	hotspotEffect()
}

type GoToNode struct {
	TargetNodeID string `json:"targetNodeId"`
}

type AddItem struct {
	ItemID string `json:"itemId"`
}

type RemoveItem struct {
	ItemID string `json:"itemId"`
}

type SetFlag struct {
	Flag  string `json:"flag"`
	Value bool   `json:"value"`
}

type StartDialogue struct {
	NPCID string `json:"npcId"`
}

type GiveItemToNPC struct {
	NPCID  string `json:"npcId"`
	ItemID string `json:"itemId"`
}

type ShowText struct {
	Text string `json:"text"`
}

type ShowMessage struct {
	Text string `json:"text"`
}

type SetPlacedItemVisible struct {
	PlacedItemID string `json:"placedItemId"`
	Value        bool   `json:"value"`
}

type SetPlacedItemReachable struct {
	PlacedItemID string `json:"placedItemId"`
	Value        bool   `json:"value"`
}

func (GoToNode) Kind() EffectKind               { return EffectGoToNode }
func (AddItem) Kind() EffectKind                { return EffectAddItem }
func (RemoveItem) Kind() EffectKind             { return EffectRemoveItem }
func (SetFlag) Kind() EffectKind                { return EffectSetFlag }
func (StartDialogue) Kind() EffectKind          { return EffectStartDialogue }
func (GiveItemToNPC) Kind() EffectKind          { return EffectGiveItemToNPC }
func (ShowText) Kind() EffectKind               { return EffectShowText }
func (ShowMessage) Kind() EffectKind            { return EffectShowMessage }
func (SetPlacedItemVisible) Kind() EffectKind   { return EffectSetPlacedItemVisible }
func (SetPlacedItemReachable) Kind() EffectKind { return EffectSetPlacedItemReachable }

func (GoToNode) hotspotEffect()    {}
func (SetFlag) hotspotEffect()     {}
func (ShowText) hotspotEffect()    {}
func (ShowMessage) hotspotEffect() {}

// EffectMatcher handles every Effect variant. Adding a variant adds a method
// here, which breaks every consumer until it handles the new case.
type EffectMatcher[T any] interface {
	GoToNode(GoToNode) T
	AddItem(AddItem) T
	RemoveItem(RemoveItem) T
	SetFlag(SetFlag) T
	StartDialogue(StartDialogue) T
	GiveItemToNPC(GiveItemToNPC) T
	ShowText(ShowText) T
	ShowMessage(ShowMessage) T
	SetPlacedItemVisible(SetPlacedItemVisible) T
	SetPlacedItemReachable(SetPlacedItemReachable) T
}

// MatchEffect dispatches e to the matcher method for its variant.
func MatchEffect[T any](e Effect, m EffectMatcher[T]) T {
	v := &effectMatch[T]{m: m}
	e.accept(v)
	return v.out
}

// AsHotspotEffect narrows e to the hotspot vocabulary. It reports false for
// effects that are only legal on placed item and NPC interactions.
func AsHotspotEffect(e Effect) (HotspotEffect, bool) {
	he := MatchEffect[HotspotEffect](e, hotspotScope{})
	return he, he != nil
}

type hotspotScope struct{}

func (hotspotScope) GoToNode(e GoToNode) HotspotEffect                     { return e }
func (hotspotScope) AddItem(AddItem) HotspotEffect                         { return nil }
func (hotspotScope) RemoveItem(RemoveItem) HotspotEffect                   { return nil }
func (hotspotScope) SetFlag(e SetFlag) HotspotEffect                       { return e }
func (hotspotScope) StartDialogue(StartDialogue) HotspotEffect             { return nil }
func (hotspotScope) GiveItemToNPC(GiveItemToNPC) HotspotEffect             { return nil }
func (hotspotScope) ShowText(e ShowText) HotspotEffect                     { return e }
func (hotspotScope) ShowMessage(e ShowMessage) HotspotEffect               { return e }
func (hotspotScope) SetPlacedItemVisible(SetPlacedItemVisible) HotspotEffect { return nil }
func (hotspotScope) SetPlacedItemReachable(SetPlacedItemReachable) HotspotEffect {
	return nil
}

type effectVisitor interface {
	visitGoToNode(GoToNode)
	visitAddItem(AddItem)
	visitRemoveItem(RemoveItem)
	visitSetFlag(SetFlag)
	visitStartDialogue(StartDialogue)
	visitGiveItemToNPC(GiveItemToNPC)
	visitShowText(ShowText)
	visitShowMessage(ShowMessage)
	visitSetPlacedItemVisible(SetPlacedItemVisible)
	visitSetPlacedItemReachable(SetPlacedItemReachable)
}

type effectMatch[T any] struct {
	m   EffectMatcher[T]
	out T
}

func (v *effectMatch[T]) visitGoToNode(e GoToNode)           { v.out = v.m.GoToNode(e) }
func (v *effectMatch[T]) visitAddItem(e AddItem)             { v.out = v.m.AddItem(e) }
func (v *effectMatch[T]) visitRemoveItem(e RemoveItem)       { v.out = v.m.RemoveItem(e) }
func (v *effectMatch[T]) visitSetFlag(e SetFlag)             { v.out = v.m.SetFlag(e) }
func (v *effectMatch[T]) visitStartDialogue(e StartDialogue) { v.out = v.m.StartDialogue(e) }
func (v *effectMatch[T]) visitGiveItemToNPC(e GiveItemToNPC) { v.out = v.m.GiveItemToNPC(e) }
func (v *effectMatch[T]) visitShowText(e ShowText)           { v.out = v.m.ShowText(e) }
func (v *effectMatch[T]) visitShowMessage(e ShowMessage)     { v.out = v.m.ShowMessage(e) }
func (v *effectMatch[T]) visitSetPlacedItemVisible(e SetPlacedItemVisible) {
	v.out = v.m.SetPlacedItemVisible(e)
}
func (v *effectMatch[T]) visitSetPlacedItemReachable(e SetPlacedItemReachable) {
	v.out = v.m.SetPlacedItemReachable(e)
}

func (e GoToNode) accept(v effectVisitor)               { v.visitGoToNode(e) }
func (e AddItem) accept(v effectVisitor)                { v.visitAddItem(e) }
func (e RemoveItem) accept(v effectVisitor)             { v.visitRemoveItem(e) }
func (e SetFlag) accept(v effectVisitor)                { v.visitSetFlag(e) }
func (e StartDialogue) accept(v effectVisitor)          { v.visitStartDialogue(e) }
func (e GiveItemToNPC) accept(v effectVisitor)          { v.visitGiveItemToNPC(e) }
func (e ShowText) accept(v effectVisitor)               { v.visitShowText(e) }
func (e ShowMessage) accept(v effectVisitor)            { v.visitShowMessage(e) }
func (e SetPlacedItemVisible) accept(v effectVisitor)   { v.visitSetPlacedItemVisible(e) }
func (e SetPlacedItemReachable) accept(v effectVisitor) { v.visitSetPlacedItemReachable(e) }

// JSON encoding writes the variant's "type" tag next to its fields. Decoding
// goes through the normalize package, which repairs untrusted input.

func (e GoToNode) MarshalJSON() ([]byte, error) {
	type alias GoToNode
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectGoToNode, alias(e)})
}

func (e AddItem) MarshalJSON() ([]byte, error) {
	type alias AddItem
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectAddItem, alias(e)})
}

func (e RemoveItem) MarshalJSON() ([]byte, error) {
	type alias RemoveItem
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectRemoveItem, alias(e)})
}

func (e SetFlag) MarshalJSON() ([]byte, error) {
	type alias SetFlag
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectSetFlag, alias(e)})
}

func (e StartDialogue) MarshalJSON() ([]byte, error) {
	type alias StartDialogue
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectStartDialogue, alias(e)})
}

func (e GiveItemToNPC) MarshalJSON() ([]byte, error) {
	type alias GiveItemToNPC
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectGiveItemToNPC, alias(e)})
}

func (e ShowText) MarshalJSON() ([]byte, error) {
	type alias ShowText
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectShowText, alias(e)})
}

func (e ShowMessage) MarshalJSON() ([]byte, error) {
	type alias ShowMessage
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectShowMessage, alias(e)})
}

func (e SetPlacedItemVisible) MarshalJSON() ([]byte, error) {
	type alias SetPlacedItemVisible
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectSetPlacedItemVisible, alias(e)})
}

func (e SetPlacedItemReachable) MarshalJSON() ([]byte, error) {
	type alias SetPlacedItemReachable
	return json.Marshal(struct {
		Type EffectKind `json:"type"`
		alias
	}{EffectSetPlacedItemReachable, alias(e)})
}
