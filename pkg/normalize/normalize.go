// Package normalize turns arbitrary, possibly malformed project documents
// into structurally valid project.Project values.
//
// Normalization never fails. Missing or mistyped fields fall back to defaults,
// blank ids are generated, invalid shapes become the zero rectangle and
// interactions are filtered to the effects legal in their context. Valid
// documents pass through unchanged, so normalizing twice is a no-op.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/project"
)

// IDGenerator produces fresh identifiers for entities without one.
type IDGenerator func() string

// Report lists the repairs made while normalizing a document.
type Report struct {
	Repairs []string `json:"repairs"`
}

// Clean reports whether the document needed no repairs.
func (r Report) Clean() bool {
	return len(r.Repairs) == 0
}

// Normalizer repairs project documents. It is safe for concurrent use.
type Normalizer struct {
	newID IDGenerator
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithIDGenerator replaces the default uuid-based id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(n *Normalizer) {
		if gen != nil {
			n.newID = gen
		}
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{newID: uuid.NewString}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize repairs raw with the default normalizer. raw is an untyped
// document or a project.Project, so normalizing a result again is allowed.
func Normalize(raw any) *project.Project {
	p, _ := defaultNormalizer.Normalize(raw)
	return p
}

// NormalizeWithReport repairs raw and describes what was changed.
func NormalizeWithReport(raw any) (*project.Project, Report) {
	return defaultNormalizer.Normalize(raw)
}

// Normalize repairs raw into a valid project.
func (n *Normalizer) Normalize(raw any) (*project.Project, Report) {
	ps := &pass{newID: n.newID, placedItemIDs: map[string]bool{}, placedNPCIDs: map[string]bool{}}
	p := ps.project(ps.document(raw))
	return p, Report{Repairs: ps.repairs}
}

// document turns a typed project back into the untyped form the pass reads.
func (ps *pass) document(raw any) any {
	switch p := raw.(type) {
	case project.Project:
		return ps.document(&p)
	case *project.Project:
		if p == nil {
			return nil
		}
		data, err := json.Marshal(p)
		if err != nil {
			ps.repair("project", "failed to encode project: %v", err)
			return nil
		}
		doc, err := ParseJSON(data)
		if err != nil {
			ps.repair("project", "%v", err)
			return nil
		}
		return doc
	}
	return raw
}

// pass holds the state of a single normalization run.
type pass struct {
	newID         IDGenerator
	repairs       []string
	placedItemIDs map[string]bool
	placedNPCIDs  map[string]bool
}

func (ps *pass) repair(path, format string, args ...any) {
	ps.repairs = append(ps.repairs, path+": "+fmt.Sprintf(format, args...))
}

// id keeps a non-blank, unseen id verbatim and generates one otherwise.
func (ps *pass) id(path string, m map[string]any, seen map[string]bool) string {
	id := stringField(m, "id")
	switch {
	case blank(id):
		id = ps.newID()
		ps.repair(path, "missing id replaced with %q", id)
	case seen != nil && seen[id]:
		dup := id
		id = ps.newID()
		ps.repair(path, "duplicate id %q replaced with %q", dup, id)
	}
	if seen != nil {
		seen[id] = true
	}
	return id
}

func (ps *pass) objects(path string, v any) []map[string]any {
	if v == nil {
		return nil
	}
	l, ok := asList(v)
	if !ok {
		ps.repair(path, "not a list, replaced with empty list")
		return nil
	}
	out := make([]map[string]any, 0, len(l))
	for i, el := range l {
		m, ok := asObject(el)
		if !ok {
			ps.repair(fmt.Sprintf("%s[%d]", path, i), "not an object, dropped")
			continue
		}
		out = append(out, m)
	}
	return out
}

func (ps *pass) meta(path string, v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	m, ok := asObject(v)
	if !ok {
		ps.repair(path, "not an object, replaced with empty object")
		return map[string]any{}
	}
	return ps.plain(path, m).(map[string]any)
}

func (ps *pass) project(raw any) *project.Project {
	m, ok := asObject(raw)
	if !ok {
		ps.repair("project", "document is not an object, starting from an empty project")
		m = map[string]any{}
	}

	p := &project.Project{
		ID:          ps.id("project", m, nil),
		Title:       stringField(m, "title"),
		Nodes:       []project.Scene{},
		Items:       []project.Item{},
		NPCs:        []project.NPC{},
		MusicTracks: []project.MusicTrack{},
		Maps:        []project.Map{},
		Meta:        ps.meta("meta", m["meta"]),
	}

	seen := map[string]bool{}
	for i, sm := range ps.objects("nodes", m["nodes"]) {
		p.Nodes = append(p.Nodes, ps.scene(fmt.Sprintf("nodes[%d]", i), sm, seen))
	}

	seen = map[string]bool{}
	for i, im := range ps.objects("items", m["items"]) {
		p.Items = append(p.Items, project.Item{
			ID:          ps.id(fmt.Sprintf("items[%d]", i), im, seen),
			Name:        stringField(im, "name"),
			Description: stringField(im, "description"),
			Image:       stringField(im, "image"),
		})
	}

	seen = map[string]bool{}
	for i, nm := range ps.objects("npcs", m["npcs"]) {
		p.NPCs = append(p.NPCs, project.NPC{
			ID:          ps.id(fmt.Sprintf("npcs[%d]", i), nm, seen),
			Name:        stringField(nm, "name"),
			Description: stringField(nm, "description"),
			Image:       stringField(nm, "image"),
		})
	}

	seen = map[string]bool{}
	for i, tm := range ps.objects("musicTracks", m["musicTracks"]) {
		p.MusicTracks = append(p.MusicTracks, project.MusicTrack{
			ID:    ps.id(fmt.Sprintf("musicTracks[%d]", i), tm, seen),
			Title: stringField(tm, "title"),
			Src:   stringField(tm, "src"),
		})
	}

	seen = map[string]bool{}
	for i, mm := range ps.objects("maps", m["maps"]) {
		p.Maps = append(p.Maps, project.Map{
			ID:    ps.id(fmt.Sprintf("maps[%d]", i), mm, seen),
			Title: stringField(mm, "title"),
			Image: stringField(mm, "image"),
		})
	}

	ps.enforceStart(p)
	return p
}

// enforceStart leaves exactly one start scene when there is any scene at all.
// A scene marked both start and final keeps start. Extra start markers after
// the first are cleared, and with none the first scene is promoted.
func (ps *pass) enforceStart(p *project.Project) {
	found := false
	for i := range p.Nodes {
		s := &p.Nodes[i]
		if s.IsStart && s.IsFinal {
			s.SetStart(true)
			ps.repair(fmt.Sprintf("nodes[%d]", i), "marked both start and final, final cleared")
		}
		if s.IsStart {
			if found {
				s.SetStart(false)
				ps.repair(fmt.Sprintf("nodes[%d]", i), "additional start scene cleared")
				continue
			}
			found = true
		}
	}
	if !found && len(p.Nodes) > 0 {
		p.Nodes[0].SetStart(true)
		ps.repair("nodes[0]", "no start scene, first scene promoted")
	}
}

func (ps *pass) scene(path string, m map[string]any, seen map[string]bool) project.Scene {
	s := project.Scene{
		ID:          ps.id(path, m, seen),
		Title:       stringField(m, "title"),
		Text:        stringField(m, "text"),
		Image:       stringField(m, "image"),
		Hotspots:    []project.Hotspot{},
		MusicID:     stringField(m, "musicId"),
		MapID:       stringField(m, "mapId"),
		PlacedItems: []project.PlacedItem{},
		PlacedNPCs:  []project.PlacedNPC{},
		IsStart:     boolField(m, "isStart", false),
		IsFinal:     boolField(m, "isFinal", false),
		Meta:        ps.meta(path+".meta", m["meta"]),
	}

	hotspotIDs := map[string]bool{}
	for i, hm := range ps.objects(path+".hotspots", m["hotspots"]) {
		hp := fmt.Sprintf("%s.hotspots[%d]", path, i)
		s.Hotspots = append(s.Hotspots, project.Hotspot{
			ID:           ps.id(hp, hm, hotspotIDs),
			Shape:        ps.shape(hp, hm["shape"]),
			Label:        stringField(hm, "label"),
			Interactions: interactions(ps, hp, hm["interactions"], project.AsHotspotEffect),
		})
	}

	for i, im := range ps.objects(path+".placedItems", m["placedItems"]) {
		ip := fmt.Sprintf("%s.placedItems[%d]", path, i)
		s.PlacedItems = append(s.PlacedItems, project.PlacedItem{
			ID:           ps.id(ip, im, ps.placedItemIDs),
			ItemID:       stringField(im, "itemId"),
			Shape:        ps.shape(ip, im["shape"]),
			State:        ps.placedState(ip, im["state"]),
			Interactions: interactions(ps, ip, im["interactions"], anyEffect),
		})
	}

	for i, nm := range ps.objects(path+".placedNpcs", m["placedNpcs"]) {
		np := fmt.Sprintf("%s.placedNpcs[%d]", path, i)
		s.PlacedNPCs = append(s.PlacedNPCs, project.PlacedNPC{
			ID:           ps.id(np, nm, ps.placedNPCIDs),
			NPCID:        stringField(nm, "npcId"),
			Shape:        ps.shape(np, nm["shape"]),
			State:        ps.placedState(np, nm["state"]),
			Interactions: interactions(ps, np, nm["interactions"], anyEffect),
		})
	}

	return s
}

func (ps *pass) shape(path string, v any) project.Shape {
	m, ok := asObject(v)
	if !ok {
		ps.repair(path, "missing shape replaced with zero rectangle")
		return project.Shape{}
	}
	var coords [4]float64
	for i, key := range []string{"x", "y", "w", "h"} {
		f, ok := number(m[key])
		if !ok {
			ps.repair(path, "shape.%s is not a number, zero rectangle used", key)
			return project.Shape{}
		}
		coords[i] = f
	}
	s := project.Shape{X: coords[0], Y: coords[1], W: coords[2], H: coords[3]}
	if s == (project.Shape{}) {
		return s
	}
	if !s.Valid() {
		ps.repair(path, "invalid shape %+v replaced with zero rectangle", s)
		return project.Shape{}
	}
	return s
}

func (ps *pass) placedState(path string, v any) project.PlacedState {
	st := project.DefaultPlacedState()
	if v == nil {
		return st
	}
	m, ok := asObject(v)
	if !ok {
		ps.repair(path, "state is not an object, defaults used")
		return st
	}
	st.Visible = boolField(m, "visible", true)
	st.Reachable = boolField(m, "reachable", true)
	st.NotReachableText = stringField(m, "notReachableText")
	return st
}

func anyEffect(e project.Effect) (project.Effect, bool) {
	return e, true
}

// interactions decodes an interaction list, keeping only effects that narrow
// into E. Interactions left without effects are dropped.
func interactions[E project.Effect](ps *pass, path string, v any, narrow func(project.Effect) (E, bool)) []project.Interaction[E] {
	out := []project.Interaction[E]{}
	seen := map[string]bool{}
	for i, im := range ps.objects(path+".interactions", v) {
		ip := fmt.Sprintf("%s.interactions[%d]", path, i)

		verb, ok := project.ParseVerb(stringField(im, "verb"))
		if !ok {
			verb = project.DefaultVerb
			ps.repair(ip, "unknown verb %q replaced with %q", stringField(im, "verb"), verb)
		}

		conds := []project.Condition{}
		for j, cm := range ps.objects(ip+".conditions", im["conditions"]) {
			c, ok := decodeCondition(cm)
			if !ok {
				ps.repair(fmt.Sprintf("%s.conditions[%d]", ip, j), "unknown condition %q dropped", stringField(cm, "type"))
				continue
			}
			conds = append(conds, c)
		}

		effects := []E{}
		for j, em := range ps.objects(ip+".effects", im["effects"]) {
			ep := fmt.Sprintf("%s.effects[%d]", ip, j)
			e, ok := decodeEffect(em)
			if !ok {
				ps.repair(ep, "unknown effect %q dropped", stringField(em, "type"))
				continue
			}
			narrowed, ok := narrow(e)
			if !ok {
				ps.repair(ep, "effect %q not allowed here, dropped", e.Kind())
				continue
			}
			effects = append(effects, narrowed)
		}
		if len(effects) == 0 {
			ps.repair(ip, "no legal effects, interaction dropped")
			continue
		}

		out = append(out, project.Interaction[E]{
			ID:         ps.id(ip, im, seen),
			Verb:       verb,
			Label:      stringField(im, "label"),
			Cursor:     stringField(im, "cursor"),
			Conditions: conds,
			Effects:    effects,
		})
	}
	return out
}
