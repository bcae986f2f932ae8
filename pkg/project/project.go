// Package project defines the story data model: scenes joined by hotspots,
// placed items and NPCs, and the closed Condition and Effect vocabularies
// their interactions are written in.
//
// Values are encoded to JSON with camelCase keys and a "type" tag on every
// condition and effect. Documents are read back through the normalize package.
package project

import "slices"

// Item is a reusable item definition. Scenes place instances of it.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// NPC is a reusable character definition.
type NPC struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// MusicTrack is referenced by Scene.MusicID.
type MusicTrack struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Src   string `json:"src"`
}

// Map is referenced by Scene.MapID.
type Map struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// Project owns every collection of a story. Scenes reference items, NPCs,
// music and maps by id only; a broken reference is not a structural error.
type Project struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Nodes       []Scene        `json:"nodes"`
	Items       []Item         `json:"items"`
	NPCs        []NPC          `json:"npcs"`
	MusicTracks []MusicTrack   `json:"musicTracks"`
	Maps        []Map          `json:"maps"`
	Meta        map[string]any `json:"meta"`
}

// Node returns the scene with the given id, or nil.
func (p *Project) Node(id string) *Scene {
	if p == nil {
		return nil
	}
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i]
		}
	}
	return nil
}

// StartNodes returns the ids of every scene marked as start, in document order.
func (p *Project) StartNodes() []string {
	var ids []string
	for _, n := range p.Nodes {
		if n.IsStart {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Item returns the item definition with the given id, or nil.
func (p *Project) Item(id string) *Item {
	for i := range p.Items {
		if p.Items[i].ID == id {
			return &p.Items[i]
		}
	}
	return nil
}

// NPC returns the NPC definition with the given id, or nil.
func (p *Project) NPC(id string) *NPC {
	for i := range p.NPCs {
		if p.NPCs[i].ID == id {
			return &p.NPCs[i]
		}
	}
	return nil
}

// FindPlacedItem scans every scene for the placed item id and returns it with
// the index of its owning scene.
func (p *Project) FindPlacedItem(id string) (*PlacedItem, int, bool) {
	if p == nil {
		return nil, -1, false
	}
	for si := range p.Nodes {
		if pi := p.Nodes[si].PlacedItem(id); pi != nil {
			return pi, si, true
		}
	}
	return nil, -1, false
}

// FindPlacedNPC scans every scene for the placed NPC id.
func (p *Project) FindPlacedNPC(id string) (*PlacedNPC, int, bool) {
	if p == nil {
		return nil, -1, false
	}
	for si := range p.Nodes {
		if pn := p.Nodes[si].PlacedNPC(id); pn != nil {
			return pn, si, true
		}
	}
	return nil, -1, false
}

// WithPlacedItemState returns a copy of p in which the placed item's state has
// been replaced by update. Only the path to the item is copied; everything
// else is shared with p, which is left untouched. It reports false and
// returns p itself when the id is not found.
func (p *Project) WithPlacedItemState(id string, update func(PlacedState) PlacedState) (*Project, bool) {
	_, si, ok := p.FindPlacedItem(id)
	if !ok {
		return p, false
	}

	scene := p.Nodes[si]
	items := make([]PlacedItem, len(scene.PlacedItems))
	copy(items, scene.PlacedItems)
	for i := range items {
		if items[i].ID == id {
			items[i].State = update(items[i].State)
			break
		}
	}
	scene.PlacedItems = items

	nodes := make([]Scene, len(p.Nodes))
	copy(nodes, p.Nodes)
	nodes[si] = scene

	next := *p
	next.Nodes = nodes
	return &next, true
}

// PlacedStates collects the state of every placed item and placed NPC by id.
func (p *Project) PlacedStates() (items, npcs map[string]PlacedState) {
	items = map[string]PlacedState{}
	npcs = map[string]PlacedState{}
	if p == nil {
		return items, npcs
	}
	for _, n := range p.Nodes {
		for _, pi := range n.PlacedItems {
			items[pi.ID] = pi.State
		}
		for _, pn := range n.PlacedNPCs {
			npcs[pn.ID] = pn.State
		}
	}
	return items, npcs
}

// WithPlacedStates returns a copy of p with placed entity states replaced
// from items and npcs. Ids missing from the maps keep their state. Placed
// entity slices without a change are shared with p.
func (p *Project) WithPlacedStates(items, npcs map[string]PlacedState) *Project {
	if p == nil {
		return nil
	}
	nodes := make([]Scene, len(p.Nodes))
	copy(nodes, p.Nodes)
	for si := range nodes {
		scene := &nodes[si]
		copied := false
		for i, pi := range scene.PlacedItems {
			if st, ok := items[pi.ID]; ok && st != pi.State {
				if !copied {
					scene.PlacedItems = slices.Clone(scene.PlacedItems)
					copied = true
				}
				scene.PlacedItems[i].State = st
			}
		}
		copied = false
		for i, pn := range scene.PlacedNPCs {
			if st, ok := npcs[pn.ID]; ok && st != pn.State {
				if !copied {
					scene.PlacedNPCs = slices.Clone(scene.PlacedNPCs)
					copied = true
				}
				scene.PlacedNPCs[i].State = st
			}
		}
	}
	next := *p
	next.Nodes = nodes
	return &next
}
