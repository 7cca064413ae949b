package document

import (
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/globs/internal/glob"
	"github.com/hpungsan/globs/internal/vec"
)

// Node is a circular anchor that globs attach to.
type Node struct {
	// ID is a ULID unless the caller supplied its own identifier
	ID string `json:"id"`

	// Point is the circle center in document space
	Point vec.Point `json:"point"`

	// Radius is never negative
	Radius float64 `json:"radius"`

	// Locked nodes are not moved or resized by sessions
	Locked bool `json:"locked"`

	// Cap is the termination style of globs ending at this node
	Cap glob.Cap `json:"cap"`
}

// Circle returns the node's circle.
func (n Node) Circle() glob.Circle {
	return glob.Circle{Center: n.Point, Radius: n.Radius}
}

// Glob joins two nodes. Its derived geometry is cached by the Document.
type Glob struct {
	ID string `json:"id"`

	// Start and End are node ids
	Start string `json:"start"`
	End   string `json:"end"`

	// D and Dp are the handles of the primary and prime boundaries
	D  vec.Point `json:"d"`
	Dp vec.Point `json:"dp"`

	// BiasStart and BiasEnd are in [0,1]
	BiasStart float64 `json:"bias_start"`
	BiasEnd   float64 `json:"bias_end"`
}

// Touches reports whether the glob references node id.
func (g Glob) Touches(id string) bool {
	return g.Start == id || g.End == id
}

// Other returns the glob's node opposite id.
func (g Glob) Other(id string) string {
	if g.Start == id {
		return g.End
	}
	return g.Start
}

// Camera maps screen space to document space: doc = screen/zoom - point.
type Camera struct {
	Point vec.Point `json:"point"`
	Zoom  float64   `json:"zoom"`
}

// DefaultCamera is the identity camera.
func DefaultCamera() Camera {
	return Camera{Zoom: 1}
}

// ScreenToDocument converts a screen point to document space.
func (c Camera) ScreenToDocument(p vec.Point) vec.Point {
	return p.Div(c.Zoom).Sub(c.Point)
}

// DocumentToScreen converts a document point to screen space.
func (c Camera) DocumentToScreen(p vec.Point) vec.Point {
	return p.Add(c.Point).Mul(c.Zoom)
}

// Pan moves the camera by a screen-space delta.
func (c Camera) Pan(delta vec.Point) Camera {
	c.Point = c.Point.Add(delta.Div(c.Zoom))
	return c
}

// ZoomAt changes the zoom while keeping the document point under the screen
// point fixed.
func (c Camera) ZoomAt(screen vec.Point, zoom float64) Camera {
	doc := c.ScreenToDocument(screen)
	return Camera{Point: screen.Div(zoom).Sub(doc), Zoom: zoom}
}

// Snap is an active snap guide drawn between two document points.
type Snap struct {
	From vec.Point `json:"from"`
	To   vec.Point `json:"to"`
}

// NewID returns a new ULID. IDs from one process sort in creation order.
func NewID() string {
	return ulid.Make().String()
}
