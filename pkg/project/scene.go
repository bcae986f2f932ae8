package project

// Hotspot is an author-drawn zone on a scene image, independent of any placed
// entity.
type Hotspot struct {
	ID           string               `json:"id"`
	Shape        Shape                `json:"shape"`
	Label        string               `json:"label,omitempty"`
	Interactions []HotspotInteraction `json:"interactions"`
}

// PlacedState is the mutable presentation state of a placed entity.
type PlacedState struct {
	Visible          bool   `json:"visible"`
	Reachable        bool   `json:"reachable"`
	NotReachableText string `json:"notReachableText,omitempty"`
}

// DefaultPlacedState is used when a document carries no state for an entity.
func DefaultPlacedState() PlacedState {
	return PlacedState{Visible: true, Reachable: true}
}

// PlacedItem is an instance of an Item definition located in one scene.
type PlacedItem struct {
	ID           string              `json:"id"`
	ItemID       string              `json:"itemId"`
	Shape        Shape               `json:"shape"`
	State        PlacedState         `json:"state"`
	Interactions []EntityInteraction `json:"interactions"`
}

// PlacedNPC is an instance of an NPC definition located in one scene.
type PlacedNPC struct {
	ID           string              `json:"id"`
	NPCID        string              `json:"npcId"`
	Shape        Shape               `json:"shape"`
	State        PlacedState         `json:"state"`
	Interactions []EntityInteraction `json:"interactions"`
}

// Scene is a single narrative location (a node of the story graph).
type Scene struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Text        string         `json:"text"`
	Image       string         `json:"image"`
	Hotspots    []Hotspot      `json:"hotspots"`
	MusicID     string         `json:"musicId,omitempty"`
	MapID       string         `json:"mapId,omitempty"`
	PlacedItems []PlacedItem   `json:"placedItems"`
	PlacedNPCs  []PlacedNPC    `json:"placedNpcs"`
	IsStart     bool           `json:"isStart"`
	IsFinal     bool           `json:"isFinal"`
	Meta        map[string]any `json:"meta"`
}

// SetStart toggles the start marker. Marking a scene as start clears IsFinal.
func (s *Scene) SetStart(v bool) {
	s.IsStart = v
	if v {
		s.IsFinal = false
	}
}

// SetFinal toggles the final marker. Marking a scene as final clears IsStart.
func (s *Scene) SetFinal(v bool) {
	s.IsFinal = v
	if v {
		s.IsStart = false
	}
}

// Hotspot returns the hotspot with the given id, or nil.
func (s *Scene) Hotspot(id string) *Hotspot {
	for i := range s.Hotspots {
		if s.Hotspots[i].ID == id {
			return &s.Hotspots[i]
		}
	}
	return nil
}

// PlacedItem returns the placed item with the given id, or nil.
func (s *Scene) PlacedItem(id string) *PlacedItem {
	for i := range s.PlacedItems {
		if s.PlacedItems[i].ID == id {
			return &s.PlacedItems[i]
		}
	}
	return nil
}

// PlacedNPC returns the placed NPC with the given id, or nil.
func (s *Scene) PlacedNPC(id string) *PlacedNPC {
	for i := range s.PlacedNPCs {
		if s.PlacedNPCs[i].ID == id {
			return &s.PlacedNPCs[i]
		}
	}
	return nil
}
