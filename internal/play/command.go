package play

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/project"
)

type CommandType string

const (
	CmdLook      CommandType = "look"
	CmdInventory CommandType = "inventory"
	CmdUndo      CommandType = "undo"
	CmdClick     CommandType = "click"
	CmdVerb      CommandType = "verb"
	CmdNone      CommandType = "" // unrecognized input
)

// Command is parsed player input.
type Command struct {
	Type   CommandType
	Verb   project.Verb
	Target string
}

// ParseCommand recognizes shortcut commands and "<verb> <target>" phrases.
// A bare verb with no target is treated as the shortcut of the same name.
func ParseCommand(input string) Command {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Command{Type: CmdNone}
	}

	known := map[string]CommandType{
		"look":      CmdLook,
		"l":         CmdLook,
		"inventory": CmdInventory,
		"inv":       CmdInventory,
		"i":         CmdInventory,
		"undo":      CmdUndo,
		"u":         CmdUndo,
		"click":     CmdClick,
	}

	head, target := fields[0], strings.Join(fields[1:], " ")
	if cmd, ok := known[head]; ok && (target == "" || cmd == CmdClick) {
		if cmd == CmdClick && target == "" {
			return Command{Type: CmdNone}
		}
		return Command{Type: cmd, Target: target}
	}
	if verb, ok := project.ParseVerb(head); ok && target != "" {
		return Command{Type: CmdVerb, Verb: verb, Target: target}
	}
	return Command{Type: CmdNone}
}

// CommandResult is the outcome of one line of player input.
type CommandResult struct {
	Handled  bool      // false when the input was not understood
	Messages []Message // display output, in order
}

// Execute parses and runs one line of input against the current scene.
// Targets match hotspots, placed items and placed NPCs by id or by label
// and definition name, ignoring case.
func (s *Session) Execute(input string) (*CommandResult, error) {
	cmd := ParseCommand(input)

	switch cmd.Type {
	case CmdLook:
		return s.say(MessageText, s.DescribeScene()), nil
	case CmdInventory:
		return s.say(MessageText, s.DescribeInventory()), nil
	case CmdUndo:
		if !s.Undo() {
			return s.say(MessageMessage, "Nothing to undo."), nil
		}
		return s.say(MessageText, s.DescribeScene()), nil
	case CmdClick, CmdVerb:
		return s.target(cmd)
	}
	return &CommandResult{Handled: false}, nil
}

func (s *Session) say(kind MessageKind, text string) *CommandResult {
	return &CommandResult{Handled: true, Messages: []Message{{Kind: kind, Text: text}}}
}

func (s *Session) target(cmd Command) (*CommandResult, error) {
	scene, err := s.Scene()
	if err != nil {
		return nil, err
	}

	var runErr error
	switch kind, id := s.resolve(scene, cmd.Target); kind {
	case "hotspot":
		runErr = s.ClickHotspot(id)
	case "item":
		if cmd.Type == CmdClick {
			cmd.Verb = project.DefaultVerb
		}
		runErr = s.Interact(id, cmd.Verb)
	case "npc":
		if cmd.Type == CmdClick {
			cmd.Verb = project.VerbTalk
		}
		runErr = s.InteractNPC(id, cmd.Verb)
	default:
		return s.say(MessageMessage, fmt.Sprintf("You see no %s here.", cmd.Target)), nil
	}

	res := &CommandResult{Handled: true, Messages: s.Messages()}
	if runErr != nil {
		return res, runErr
	}
	return res, nil
}

func (s *Session) resolve(scene *project.Scene, target string) (string, string) {
	match := func(candidates ...string) bool {
		for _, c := range candidates {
			if c != "" && strings.EqualFold(c, target) {
				return true
			}
		}
		return false
	}

	for _, pi := range scene.PlacedItems {
		if !pi.State.Visible {
			continue
		}
		name := ""
		if def := s.state.Project.Item(pi.ItemID); def != nil {
			name = def.Name
		}
		if match(pi.ID, pi.ItemID, name) {
			return "item", pi.ID
		}
	}
	for _, pn := range scene.PlacedNPCs {
		if !pn.State.Visible {
			continue
		}
		name := ""
		if def := s.state.Project.NPC(pn.NPCID); def != nil {
			name = def.Name
		}
		if match(pn.ID, pn.NPCID, name) {
			return "npc", pn.ID
		}
	}
	for _, h := range scene.Hotspots {
		if match(h.ID, h.Label) {
			return "hotspot", h.ID
		}
	}
	return "", ""
}

// DescribeScene renders the current scene as plain text.
func (s *Session) DescribeScene() string {
	scene, err := s.Scene()
	if err != nil {
		return "You are in an unknown place."
	}

	var b strings.Builder
	if scene.Title != "" {
		b.WriteString(scene.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(scene.Text)

	var things []string
	for _, pi := range scene.PlacedItems {
		if pi.State.Visible {
			things = append(things, s.itemName(pi.ItemID))
		}
	}
	for _, pn := range scene.PlacedNPCs {
		if pn.State.Visible {
			if def := s.state.Project.NPC(pn.NPCID); def != nil && def.Name != "" {
				things = append(things, def.Name)
			} else {
				things = append(things, pn.NPCID)
			}
		}
	}
	if len(things) > 0 {
		b.WriteString("\n\nYou see: ")
		b.WriteString(strings.Join(things, ", "))
	}

	var exits []string
	for _, h := range scene.Hotspots {
		if h.Label != "" {
			exits = append(exits, h.Label)
		} else {
			exits = append(exits, h.ID)
		}
	}
	if len(exits) > 0 {
		b.WriteString("\n\nHotspots: ")
		b.WriteString(strings.Join(exits, ", "))
	}
	return strings.TrimSpace(b.String())
}

// DescribeInventory lists held items by name.
func (s *Session) DescribeInventory() string {
	if len(s.state.Inventory) == 0 {
		return "Your inventory is empty."
	}
	names := make([]string, 0, len(s.state.Inventory))
	for _, id := range s.state.Inventory {
		names = append(names, s.itemName(id))
	}
	return "You have:\n- " + strings.Join(names, "\n- ")
}

func (s *Session) itemName(id string) string {
	if def := s.state.Project.Item(id); def != nil && def.Name != "" {
		return def.Name
	}
	return id
}
