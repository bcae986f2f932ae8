package project

import "encoding/json"

// ConditionKind is the wire tag of a Condition variant.
type ConditionKind string

const (
	ConditionHasItem     ConditionKind = "hasItem"
	ConditionFlagIsTrue  ConditionKind = "flagIsTrue"
	ConditionFlagIsFalse ConditionKind = "flagIsFalse"
)

// ConditionKinds lists every condition variant in declaration order.
func ConditionKinds() []ConditionKind {
	return []ConditionKind{ConditionHasItem, ConditionFlagIsTrue, ConditionFlagIsFalse}
}

// Condition is a pure predicate over game state gating an interaction.
// The set of variants is closed: only types in this package implement it.
type Condition interface {
	Kind() ConditionKind
	accept(conditionVisitor)
}

// HasItem holds when the item is in the player's inventory.
type HasItem struct {
	ItemID string `json:"itemId"`
}

// FlagIsTrue holds when the flag is set to true. Unset flags read false.
type FlagIsTrue struct {
	Flag string `json:"flag"`
}

// FlagIsFalse holds when the flag is false or was never set.
type FlagIsFalse struct {
	Flag string `json:"flag"`
}

func (HasItem) Kind() ConditionKind     { return ConditionHasItem }
func (FlagIsTrue) Kind() ConditionKind  { return ConditionFlagIsTrue }
func (FlagIsFalse) Kind() ConditionKind { return ConditionFlagIsFalse }

// ConditionMatcher handles every Condition variant. Adding a variant adds a
// method here, which breaks every consumer until it handles the new case.
type ConditionMatcher[T any] interface {
	HasItem(HasItem) T
	FlagIsTrue(FlagIsTrue) T
	FlagIsFalse(FlagIsFalse) T
}

// MatchCondition dispatches c to the matcher method for its variant.
func MatchCondition[T any](c Condition, m ConditionMatcher[T]) T {
	v := &conditionMatch[T]{m: m}
	c.accept(v)
	return v.out
}

type conditionVisitor interface {
	visitHasItem(HasItem)
	visitFlagIsTrue(FlagIsTrue)
	visitFlagIsFalse(FlagIsFalse)
}

type conditionMatch[T any] struct {
	m   ConditionMatcher[T]
	out T
}

func (v *conditionMatch[T]) visitHasItem(c HasItem)         { v.out = v.m.HasItem(c) }
func (v *conditionMatch[T]) visitFlagIsTrue(c FlagIsTrue)   { v.out = v.m.FlagIsTrue(c) }
func (v *conditionMatch[T]) visitFlagIsFalse(c FlagIsFalse) { v.out = v.m.FlagIsFalse(c) }

func (c HasItem) accept(v conditionVisitor)     { v.visitHasItem(c) }
func (c FlagIsTrue) accept(v conditionVisitor)  { v.visitFlagIsTrue(c) }
func (c FlagIsFalse) accept(v conditionVisitor) { v.visitFlagIsFalse(c) }

func (c HasItem) MarshalJSON() ([]byte, error) {
	type alias HasItem
	return json.Marshal(struct {
		Type ConditionKind `json:"type"`
		alias
	}{ConditionHasItem, alias(c)})
}

func (c FlagIsTrue) MarshalJSON() ([]byte, error) {
	type alias FlagIsTrue
	return json.Marshal(struct {
		Type ConditionKind `json:"type"`
		alias
	}{ConditionFlagIsTrue, alias(c)})
}

func (c FlagIsFalse) MarshalJSON() ([]byte, error) {
	type alias FlagIsFalse
	return json.Marshal(struct {
		Type ConditionKind `json:"type"`
		alias
	}{ConditionFlagIsFalse, alias(c)})
}
