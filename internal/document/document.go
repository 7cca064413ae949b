// Package document is the authoritative in-memory graph of nodes and globs,
// plus camera, selection and transient UI state.
//
// Derived glob geometry is cached per glob and invalidated whenever a glob or
// one of its nodes changes; it is recomputed lazily on the next read.
package document

import (
	"math"
	"slices"
	"sort"

	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/glob"
	"github.com/hpungsan/globs/internal/path"
	"github.com/hpungsan/globs/internal/vec"
)

type cached struct {
	points glob.Points
	err    error
}

// Document holds nodes, globs, selection, camera and transient state.
// It is not safe for concurrent use; the store is its single writer.
type Document struct {
	nodes map[string]Node
	globs map[string]Glob

	selectedNodes []string
	selectedGlobs []string

	camera Camera
	brush  *vec.Rect
	snaps  []Snap
	notes  string

	cache map[string]cached
}

// New creates an empty document with the identity camera.
func New() *Document {
	return &Document{
		nodes:  make(map[string]Node),
		globs:  make(map[string]Glob),
		camera: DefaultCamera(),
		cache:  make(map[string]cached),
	}
}

// Node returns the node with id.
func (d *Document) Node(id string) (Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Glob returns the glob with id.
func (d *Document) Glob(id string) (Glob, bool) {
	g, ok := d.globs[id]
	return g, ok
}

// NodeCount returns the number of nodes.
func (d *Document) NodeCount() int { return len(d.nodes) }

// GlobCount returns the number of globs.
func (d *Document) GlobCount() int { return len(d.globs) }

// NodeIDs returns all node ids in sorted order.
func (d *Document) NodeIDs() []string {
	return sortedKeys(d.nodes)
}

// GlobIDs returns all glob ids in sorted order.
func (d *Document) GlobIDs() []string {
	return sortedKeys(d.globs)
}

// Nodes returns all nodes ordered by id.
func (d *Document) Nodes() []Node {
	out := make([]Node, 0, len(d.nodes))
	for _, id := range d.NodeIDs() {
		out = append(out, d.nodes[id])
	}
	return out
}

// Globs returns all globs ordered by id.
func (d *Document) Globs() []Glob {
	out := make([]Glob, 0, len(d.globs))
	for _, id := range d.GlobIDs() {
		out = append(out, d.globs[id])
	}
	return out
}

// GlobsOf returns the ids of globs attached to node id, sorted.
func (d *Document) GlobsOf(nodeID string) []string {
	var ids []string
	for id, g := range d.globs {
		if g.Touches(nodeID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AddNode inserts a node, assigning a ULID when ID is empty.
func (d *Document) AddNode(n Node) (Node, error) {
	if n.ID == "" {
		n.ID = NewID()
	}
	if _, exists := d.nodes[n.ID]; exists {
		return Node{}, errors.NewConflict("node already exists: " + n.ID)
	}
	if err := validateNode(n); err != nil {
		return Node{}, err
	}
	d.nodes[n.ID] = n
	return n, nil
}

// UpdateNode replaces an existing node and invalidates every glob attached
// to it.
func (d *Document) UpdateNode(n Node) error {
	if _, ok := d.nodes[n.ID]; !ok {
		return errors.NewUnknownEntity("node", n.ID)
	}
	if err := validateNode(n); err != nil {
		return err
	}
	d.nodes[n.ID] = n
	d.invalidateNode(n.ID)
	return nil
}

// MoveNode sets a node's center.
func (d *Document) MoveNode(id string, p vec.Point) error {
	n, ok := d.nodes[id]
	if !ok {
		return errors.NewUnknownEntity("node", id)
	}
	n.Point = p
	return d.UpdateNode(n)
}

// ResizeNode sets a node's radius, clamped at zero.
func (d *Document) ResizeNode(id string, r float64) error {
	n, ok := d.nodes[id]
	if !ok {
		return errors.NewUnknownEntity("node", id)
	}
	n.Radius = math.Max(0, r)
	return d.UpdateNode(n)
}

// RemoveNode deletes a node, every glob attached to it, and their selection
// entries.
func (d *Document) RemoveNode(id string) error {
	if _, ok := d.nodes[id]; !ok {
		return errors.NewUnknownEntity("node", id)
	}
	for _, gid := range d.GlobsOf(id) {
		d.removeGlob(gid)
	}
	delete(d.nodes, id)
	d.selectedNodes = without(d.selectedNodes, id)
	return nil
}

// AddGlob inserts a glob between two existing, distinct nodes, assigning a
// ULID when ID is empty.
func (d *Document) AddGlob(g Glob) (Glob, error) {
	if g.ID == "" {
		g.ID = NewID()
	}
	if _, exists := d.globs[g.ID]; exists {
		return Glob{}, errors.NewConflict("glob already exists: " + g.ID)
	}
	if err := d.validateGlob(g); err != nil {
		return Glob{}, err
	}
	d.globs[g.ID] = g
	delete(d.cache, g.ID)
	return g, nil
}

// UpdateGlob replaces an existing glob and invalidates its geometry.
func (d *Document) UpdateGlob(g Glob) error {
	if _, ok := d.globs[g.ID]; !ok {
		return errors.NewUnknownEntity("glob", g.ID)
	}
	if err := d.validateGlob(g); err != nil {
		return err
	}
	d.globs[g.ID] = g
	delete(d.cache, g.ID)
	return nil
}

// RemoveGlob deletes a glob. Its nodes stay.
func (d *Document) RemoveGlob(id string) error {
	if _, ok := d.globs[id]; !ok {
		return errors.NewUnknownEntity("glob", id)
	}
	d.removeGlob(id)
	return nil
}

func (d *Document) removeGlob(id string) {
	delete(d.globs, id)
	delete(d.cache, id)
	d.selectedGlobs = without(d.selectedGlobs, id)
}

// Link creates a glob between two nodes with default handles and biases.
func (d *Document) Link(start, end string) (Glob, error) {
	a, ok := d.nodes[start]
	if !ok {
		return Glob{}, errors.NewUnknownEntity("node", start)
	}
	b, ok := d.nodes[end]
	if !ok {
		return Glob{}, errors.NewUnknownEntity("node", end)
	}
	dh, dph := glob.DefaultHandles(a.Point, a.Radius, b.Point, b.Radius)
	return d.AddGlob(Glob{
		Start:     start,
		End:       end,
		D:         dh,
		Dp:        dph,
		BiasStart: glob.DefaultBias,
		BiasEnd:   glob.DefaultBias,
	})
}

// GlobPoints returns the glob's derived geometry, recomputing it if any
// input changed since the last read. A degenerate glob returns a
// DEGENERATE_GLOB error.
func (d *Document) GlobPoints(id string) (glob.Points, error) {
	g, ok := d.globs[id]
	if !ok {
		return glob.Points{}, errors.NewUnknownEntity("glob", id)
	}
	if c, ok := d.cache[id]; ok {
		return c.points, c.err
	}
	start, ok := d.nodes[g.Start]
	if !ok {
		return glob.Points{}, errors.NewUnknownEntity("node", g.Start)
	}
	end, ok := d.nodes[g.End]
	if !ok {
		return glob.Points{}, errors.NewUnknownEntity("node", g.End)
	}
	pts, err := glob.Compute(start.Point, start.Radius, end.Point, end.Radius, g.D, g.Dp, g.BiasStart, g.BiasEnd)
	d.cache[id] = cached{points: pts, err: err}
	return pts, err
}

// IsCached reports whether the glob's geometry is currently cached.
func (d *Document) IsCached(id string) bool {
	_, ok := d.cache[id]
	return ok
}

// GlobOutline returns the glob's outline. A degenerate glob yields an empty
// path rather than an error.
func (d *Document) GlobOutline(id string) (*path.Path, error) {
	pts, err := d.GlobPoints(id)
	if errors.Is(err, errors.ErrDegenerateGlob) {
		return path.New(), nil
	}
	if err != nil {
		return nil, err
	}
	g := d.globs[id]
	return glob.Outline(pts, d.nodes[g.Start].Cap, d.nodes[g.End].Cap), nil
}

// CircleInGlob returns the split preview circle for pt, or nil.
func (d *Document) CircleInGlob(id string, pt vec.Point) (*glob.InnerCircle, error) {
	pts, err := d.GlobPoints(id)
	if errors.Is(err, errors.ErrDegenerateGlob) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return glob.CircleInGlob(pt, pts), nil
}

// SplitGlob splits glob id at pt, inserting a new node and replacing the
// glob with two. The new node inherits the start node's cap. It returns
// UNKNOWN_ENTITY for a missing glob and INVALID_REQUEST when pt is not
// inside the glob.
func (d *Document) SplitGlob(id string, pt vec.Point) (Node, Glob, Glob, error) {
	g, ok := d.globs[id]
	if !ok {
		return Node{}, Glob{}, Glob{}, errors.NewUnknownEntity("glob", id)
	}
	ic, err := d.CircleInGlob(id, pt)
	if err != nil {
		return Node{}, Glob{}, Glob{}, err
	}
	if ic == nil {
		return Node{}, Glob{}, Glob{}, errors.NewInvalidRequest("point is not inside the glob")
	}
	pts, _ := d.GlobPoints(id)
	res := glob.Split(pts, *ic, g.BiasStart, g.BiasEnd)

	node, err := d.AddNode(Node{Point: res.Node.Center, Radius: res.Node.Radius, Cap: d.nodes[g.Start].Cap})
	if err != nil {
		return Node{}, Glob{}, Glob{}, err
	}
	a, err := d.AddGlob(Glob{Start: g.Start, End: node.ID, D: res.A.D, Dp: res.A.Dp, BiasStart: res.A.BiasStart, BiasEnd: res.A.BiasEnd})
	if err != nil {
		return Node{}, Glob{}, Glob{}, err
	}
	b, err := d.AddGlob(Glob{Start: node.ID, End: g.End, D: res.B.D, Dp: res.B.Dp, BiasStart: res.B.BiasStart, BiasEnd: res.B.BiasEnd})
	if err != nil {
		return Node{}, Glob{}, Glob{}, err
	}
	d.removeGlob(id)
	return node, a, b, nil
}

func (d *Document) invalidateNode(id string) {
	for gid, g := range d.globs {
		if g.Touches(id) {
			delete(d.cache, gid)
		}
	}
}

func (d *Document) invalidateAll() {
	d.cache = make(map[string]cached)
}

func validateNode(n Node) error {
	if !n.Point.IsFinite() {
		return errors.NewInvalidRequest("node point must be finite")
	}
	if math.IsNaN(n.Radius) || math.IsInf(n.Radius, 0) || n.Radius < 0 {
		return errors.NewInvalidRequest("node radius must be a non-negative number")
	}
	return nil
}

func (d *Document) validateGlob(g Glob) error {
	if _, ok := d.nodes[g.Start]; !ok {
		return errors.NewUnknownEntity("node", g.Start)
	}
	if _, ok := d.nodes[g.End]; !ok {
		return errors.NewUnknownEntity("node", g.End)
	}
	if g.Start == g.End {
		return errors.NewInvalidRequest("glob must join two different nodes")
	}
	if !g.D.IsFinite() || !g.Dp.IsFinite() {
		return errors.NewInvalidRequest("glob handles must be finite")
	}
	if !inUnit(g.BiasStart) || !inUnit(g.BiasEnd) {
		return errors.NewInvalidRequest("glob bias must be within [0,1]")
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func without(ids []string, id string) []string {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids
	}
	return slices.Delete(slices.Clone(ids), i, i+1)
}
