package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/hpungsan/globs/internal/bezier"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/path"
	"github.com/hpungsan/globs/internal/vec"
)

// supersample is the render multiplier used before downsampling.
const supersample = 4

// curveSteps is the number of line segments per cubic when stroking.
const curveSteps = 16

// PNG renders doc as a PNG image. The image is drawn at 4x and downsampled
// for smoother edges.
func PNG(doc *document.Document, w io.Writer, opts Options) error {
	img, err := Image(doc, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Image renders doc to an RGBA image.
func Image(doc *document.Document, opts Options) (*image.RGBA, error) {
	f := frame(doc, opts)
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	if opts.MaxSize > 0 {
		if longest := math.Max(f.Width(), f.Height()) * scale; longest > float64(opts.MaxSize) {
			scale *= float64(opts.MaxSize) / longest
		}
	}
	width := max(1, int(math.Ceil(f.Width()*scale)))
	height := max(1, int(math.Ceil(f.Height()*scale)))

	r := newRaster(width*supersample, height*supersample, f.Min, scale*supersample)
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	for _, id := range doc.GlobIDs() {
		outline, err := doc.GlobOutline(id)
		if err != nil {
			return nil, err
		}
		if outline.IsEmpty() {
			continue
		}
		r.fill(outline, colorGlob)
	}

	if opts.Nodes {
		for _, n := range doc.Nodes() {
			r.ring(n.Point, n.Radius, nodeStroke, colorNode)
		}
	}

	if opts.Centerlines {
		for _, p := range doc.Centerlines() {
			r.stroke(p, centerlineStroke, colorCenterline)
		}
	}

	if opts.Snaps {
		for _, s := range doc.Snaps() {
			r.stroke(path.Polyline([]vec.Point{s.From, s.To}, false), snapStroke, colorSnap)
		}
	}

	final := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(final, final.Bounds(), r.img, r.img.Bounds(), draw.Over, nil)
	return final, nil
}

// raster maps document space onto a pixel grid and fills shapes with a
// vector rasterizer.
type raster struct {
	img    *image.RGBA
	z      *vector.Rasterizer
	origin vec.Point
	scale  float64
}

func newRaster(w, h int, origin vec.Point, scale float64) *raster {
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Over
	return &raster{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		z:      z,
		origin: origin,
		scale:  scale,
	}
}

func (r *raster) px(p vec.Point) (float32, float32) {
	q := p.Sub(r.origin).Mul(r.scale)
	return float32(q.X), float32(q.Y)
}

func (r *raster) moveTo(p vec.Point) { r.z.MoveTo(r.px(p)) }
func (r *raster) lineTo(p vec.Point) { r.z.LineTo(r.px(p)) }

func (r *raster) cubeTo(c1, c2, p vec.Point) {
	bx, by := r.px(c1)
	cx, cy := r.px(c2)
	dx, dy := r.px(p)
	r.z.CubeTo(bx, by, cx, cy, dx, dy)
}

// paint draws the accumulated shape and resets the rasterizer.
func (r *raster) paint(c color.RGBA) {
	b := r.img.Bounds()
	r.z.Draw(r.img, b, image.NewUniform(c), image.Point{})
	r.z.Reset(b.Dx(), b.Dy())
}

// fill draws a closed path. Arcs are flattened to cubics first.
func (r *raster) fill(p *path.Path, c color.RGBA) {
	open := false
	for _, cmd := range p.Flatten().Commands() {
		switch cmd := cmd.(type) {
		case path.MoveTo:
			if open {
				r.z.ClosePath()
			}
			r.moveTo(cmd.Point)
			open = true
		case path.LineTo:
			r.lineTo(cmd.Point)
		case path.CubicTo:
			r.cubeTo(cmd.Control1, cmd.Control2, cmd.Point)
		case path.Close:
			r.z.ClosePath()
			open = false
		}
	}
	if open {
		r.z.ClosePath()
	}
	r.paint(c)
}

// ring strokes a circle of the given width as the area between two
// opposite-wound circles.
func (r *raster) ring(center vec.Point, radius, width float64, c color.RGBA) {
	r.circle(center, radius+width/2, false)
	if inner := radius - width/2; inner > 0 {
		r.circle(center, inner, true)
	}
	r.paint(c)
}

func (r *raster) circle(center vec.Point, radius float64, reverse bool) {
	arc := path.ArcTo{Center: center, Radius: radius, From: 0, To: 2 * math.Pi}
	if reverse {
		arc.From, arc.To = arc.To, arc.From
	}
	segs := path.ArcCubics(arc)
	if len(segs) == 0 {
		return
	}
	r.moveTo(segs[0].P0)
	for _, s := range segs {
		r.cubeTo(s.P1, s.P2, s.P3)
	}
	r.z.ClosePath()
}

// stroke draws p as a polyline of the given width. Each segment is filled
// as its own quad; segments share winding so overlaps do not cancel.
func (r *raster) stroke(p *path.Path, width float64, c color.RGBA) {
	for _, line := range polylines(p.Flatten()) {
		for i := 1; i < len(line); i++ {
			a, b := line[i-1], line[i]
			n := b.Sub(a).Normalize().Perp().Mul(width / 2)
			if n.LengthSq() == 0 {
				continue
			}
			r.moveTo(a.Add(n))
			r.lineTo(b.Add(n))
			r.lineTo(b.Sub(n))
			r.lineTo(a.Sub(n))
			r.z.ClosePath()
		}
	}
	r.paint(c)
}

// polylines samples a flattened path into point lists, one per subpath.
func polylines(p *path.Path) [][]vec.Point {
	var (
		out     [][]vec.Point
		cur     []vec.Point
		start   vec.Point
		current vec.Point
	)
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, cmd := range p.Commands() {
		switch cmd := cmd.(type) {
		case path.MoveTo:
			flush()
			start, current = cmd.Point, cmd.Point
			cur = []vec.Point{current}
		case path.LineTo:
			current = cmd.Point
			cur = append(cur, current)
		case path.CubicTo:
			curve := bezier.New(current, cmd.Control1, cmd.Control2, cmd.Point)
			for i := 1; i <= curveSteps; i++ {
				cur = append(cur, curve.Eval(float64(i)/curveSteps))
			}
			current = cmd.Point
		case path.Close:
			cur = append(cur, start)
			current = start
		}
	}
	flush()
	return out
}
