package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/scene-engine/pkg/project"
	"gopkg.in/yaml.v3"
)

// Decode parses a JSON project document and normalizes it. Only malformed
// JSON is an error; structural problems are repaired.
func Decode(data []byte) (*project.Project, error) {
	raw, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}

// DecodeYAML parses a YAML project document and normalizes it.
func DecodeYAML(data []byte) (*project.Project, error) {
	raw, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}

// ParseJSON reads a JSON document into the untyped form Normalize accepts.
// Numbers are kept exact until a shape reads them.
func ParseJSON(data []byte) (any, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse project JSON: %w", err)
	}
	return raw, nil
}

// ParseYAML reads a YAML document into the untyped form Normalize accepts.
func ParseYAML(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse project YAML: %w", err)
	}
	return raw, nil
}

func decodeCondition(m map[string]any) (project.Condition, bool) {
	switch project.ConditionKind(stringField(m, "type")) {
	case project.ConditionHasItem:
		return project.HasItem{ItemID: stringField(m, "itemId")}, true
	case project.ConditionFlagIsTrue:
		return project.FlagIsTrue{Flag: stringField(m, "flag")}, true
	case project.ConditionFlagIsFalse:
		return project.FlagIsFalse{Flag: stringField(m, "flag")}, true
	}
	return nil, false
}

func decodeEffect(m map[string]any) (project.Effect, bool) {
	switch project.EffectKind(stringField(m, "type")) {
	case project.EffectGoToNode:
		return project.GoToNode{TargetNodeID: stringField(m, "targetNodeId")}, true
	case project.EffectAddItem:
		return project.AddItem{ItemID: stringField(m, "itemId")}, true
	case project.EffectRemoveItem:
		return project.RemoveItem{ItemID: stringField(m, "itemId")}, true
	case project.EffectSetFlag:
		return project.SetFlag{Flag: stringField(m, "flag"), Value: boolField(m, "value", false)}, true
	case project.EffectStartDialogue:
		return project.StartDialogue{NPCID: stringField(m, "npcId")}, true
	case project.EffectGiveItemToNPC:
		return project.GiveItemToNPC{NPCID: stringField(m, "npcId"), ItemID: stringField(m, "itemId")}, true
	case project.EffectShowText:
		return project.ShowText{Text: stringField(m, "text")}, true
	case project.EffectShowMessage:
		return project.ShowMessage{Text: stringField(m, "text")}, true
	case project.EffectSetPlacedItemVisible:
		return project.SetPlacedItemVisible{PlacedItemID: stringField(m, "placedItemId"), Value: boolField(m, "value", false)}, true
	case project.EffectSetPlacedItemReachable:
		return project.SetPlacedItemReachable{PlacedItemID: stringField(m, "placedItemId"), Value: boolField(m, "value", false)}, true
	}
	return nil, false
}
