package document

import (
	"maps"
	"slices"

	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/path"
	"github.com/hpungsan/globs/internal/vec"
)

// SelectedNodeIDs returns the selected node ids in selection order. Ids of
// nodes deleted since the selection was set may still be present.
func (d *Document) SelectedNodeIDs() []string {
	return slices.Clone(d.selectedNodes)
}

// SelectedGlobIDs returns the selected glob ids in selection order.
func (d *Document) SelectedGlobIDs() []string {
	return slices.Clone(d.selectedGlobs)
}

// SetSelection replaces the selection. Duplicates are dropped, order kept.
func (d *Document) SetSelection(nodes, globs []string) {
	d.selectedNodes = dedupe(nodes)
	d.selectedGlobs = dedupe(globs)
}

// ClearSelection deselects everything.
func (d *Document) ClearSelection() {
	d.selectedNodes = nil
	d.selectedGlobs = nil
}

// SelectAll selects every node and glob.
func (d *Document) SelectAll() {
	d.selectedNodes = d.NodeIDs()
	d.selectedGlobs = d.GlobIDs()
}

// IsNodeSelected reports whether node id is selected.
func (d *Document) IsNodeSelected(id string) bool {
	return slices.Contains(d.selectedNodes, id)
}

// IsGlobSelected reports whether glob id is selected.
func (d *Document) IsGlobSelected(id string) bool {
	return slices.Contains(d.selectedGlobs, id)
}

// Camera returns the camera.
func (d *Document) Camera() Camera {
	return d.camera
}

// SetCamera replaces the camera. Zoom must be positive.
func (d *Document) SetCamera(c Camera) error {
	if !(c.Zoom > 0) || !c.Point.IsFinite() {
		return errors.NewInvalidRequest("camera zoom must be positive and point finite")
	}
	d.camera = c
	return nil
}

// Brush returns the active brush rectangle, or nil.
func (d *Document) Brush() *vec.Rect {
	if d.brush == nil {
		return nil
	}
	r := *d.brush
	return &r
}

// SetBrush sets or clears (nil) the brush rectangle.
func (d *Document) SetBrush(r *vec.Rect) {
	if r == nil {
		d.brush = nil
		return
	}
	c := *r
	d.brush = &c
}

// Snaps returns the active snap guides.
func (d *Document) Snaps() []Snap {
	return slices.Clone(d.snaps)
}

// SetSnaps replaces the snap guides.
func (d *Document) SetSnaps(s []Snap) {
	d.snaps = slices.Clone(s)
}

// Notes returns the document's markdown notes.
func (d *Document) Notes() string { return d.notes }

// SetNotes replaces the document's markdown notes.
func (d *Document) SetNotes(s string) { d.notes = s }

// Bounds returns the box containing every node circle and glob control
// point. ok is false for an empty document.
func (d *Document) Bounds() (r vec.Rect, ok bool) {
	for _, n := range d.nodes {
		b := vec.CircleBounds(n.Point, n.Radius)
		if !ok {
			r, ok = b, true
			continue
		}
		r = r.Union(b)
	}
	for _, id := range d.GlobIDs() {
		pts, err := d.GlobPoints(id)
		if err != nil {
			continue
		}
		r = r.Union(pts.Bounds())
	}
	return r, ok
}

// Chains walks globs start-to-end and returns each maximal chain as an
// ordered list of node ids. Every glob appears in exactly one chain.
func (d *Document) Chains() [][]string {
	outgoing := make(map[string][]string)
	incoming := make(map[string]int)
	for _, g := range d.Globs() {
		outgoing[g.Start] = append(outgoing[g.Start], g.ID)
		incoming[g.End]++
	}

	used := make(map[string]bool)
	var chains [][]string
	walk := func(from string) {
		chain := []string{from}
		cur := from
		for {
			next := ""
			for _, gid := range outgoing[cur] {
				if !used[gid] {
					next = gid
					break
				}
			}
			if next == "" {
				break
			}
			used[next] = true
			cur = d.globs[next].End
			chain = append(chain, cur)
		}
		if len(chain) > 1 {
			chains = append(chains, chain)
		}
	}

	for _, id := range d.NodeIDs() {
		if incoming[id] == 0 {
			for len(unusedOf(outgoing[id], used)) > 0 {
				walk(id)
			}
		}
	}
	// Remaining globs belong to cycles.
	for _, g := range d.Globs() {
		if !used[g.ID] {
			walk(g.Start)
		}
	}
	return chains
}

func unusedOf(ids []string, used map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if !used[id] {
			out = append(out, id)
		}
	}
	return out
}

// Centerlines returns a smoothed path through the node centers of each
// chain.
func (d *Document) Centerlines() []*path.Path {
	var out []*path.Path
	for _, chain := range d.Chains() {
		pts := make([]vec.Point, 0, len(chain))
		for _, id := range chain {
			pts = append(pts, d.nodes[id].Point)
		}
		out = append(out, path.Polyline(pts, true))
	}
	return out
}

// Snapshot is an immutable copy of the document's persistent fields:
// nodes, globs and selection.
type Snapshot struct {
	nodes         map[string]Node
	globs         map[string]Glob
	selectedNodes []string
	selectedGlobs []string
}

// Snapshot captures the persistent fields.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		nodes:         maps.Clone(d.nodes),
		globs:         maps.Clone(d.globs),
		selectedNodes: slices.Clone(d.selectedNodes),
		selectedGlobs: slices.Clone(d.selectedGlobs),
	}
}

// Restore replaces the persistent fields with a snapshot and drops all
// cached geometry. Camera, notes and transient state are untouched.
func (d *Document) Restore(s Snapshot) {
	d.nodes = maps.Clone(s.nodes)
	d.globs = maps.Clone(s.globs)
	if d.nodes == nil {
		d.nodes = make(map[string]Node)
	}
	if d.globs == nil {
		d.globs = make(map[string]Glob)
	}
	d.selectedNodes = slices.Clone(s.selectedNodes)
	d.selectedGlobs = slices.Clone(s.selectedGlobs)
	d.invalidateAll()
}

// Equal reports whether two snapshots hold the same nodes, globs and
// selection.
func (s Snapshot) Equal(o Snapshot) bool {
	return maps.Equal(s.nodes, o.nodes) &&
		maps.Equal(s.globs, o.globs) &&
		slices.Equal(s.selectedNodes, o.selectedNodes) &&
		slices.Equal(s.selectedGlobs, o.selectedGlobs)
}

// Clone returns a deep copy of the document, including transient state and
// cached geometry.
func (d *Document) Clone() *Document {
	c := &Document{
		nodes:         maps.Clone(d.nodes),
		globs:         maps.Clone(d.globs),
		selectedNodes: slices.Clone(d.selectedNodes),
		selectedGlobs: slices.Clone(d.selectedGlobs),
		camera:        d.camera,
		brush:         d.Brush(),
		snaps:         slices.Clone(d.snaps),
		notes:         d.notes,
		cache:         maps.Clone(d.cache),
	}
	if c.nodes == nil {
		c.nodes = make(map[string]Node)
	}
	if c.globs == nil {
		c.globs = make(map[string]Glob)
	}
	if c.cache == nil {
		c.cache = make(map[string]cached)
	}
	return c
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
