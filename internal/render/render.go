// Package render draws documents to SVG and PNG from their path
// descriptions.
package render

import (
	"image/color"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/vec"
)

// Options configure a render.
type Options struct {
	// Padding is the margin around the document bounds, in document units.
	Padding float64

	// Scale is PNG pixels per document unit.
	Scale float64

	// MaxSize caps the longer PNG side in pixels. Scale is reduced to fit.
	MaxSize int

	// Nodes draws node circles over the glob outlines.
	Nodes bool

	// Centerlines draws the smoothed chain guides.
	Centerlines bool

	// Snaps draws active snap guides.
	Snaps bool
}

// DefaultOptions returns the options used by exports.
func DefaultOptions() Options {
	return Options{
		Padding: 16,
		Scale:   1,
		MaxSize: 2048,
		Nodes:   true,
		Snaps:   true,
	}
}

// Colors
var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorGlob       = color.RGBA{33, 33, 33, 255}
	colorNode       = color.RGBA{158, 158, 158, 255}
	colorCenterline = color.RGBA{30, 136, 229, 255}
	colorSnap       = color.RGBA{229, 57, 53, 255}
)

const (
	nodeStroke       = 1.5
	centerlineStroke = 1
	snapStroke       = 1
)

// emptyFrame is used for documents with no nodes.
var emptyFrame = vec.Rect{Max: vec.Pt(100, 100)}

// frame returns the document-space rectangle that a render covers.
func frame(doc *document.Document, opts Options) vec.Rect {
	b, ok := doc.Bounds()
	if !ok {
		return emptyFrame
	}
	b = b.Expand(opts.Padding)
	if b.Width() <= 0 || b.Height() <= 0 {
		return b.Expand(1)
	}
	return b
}
