package render

import (
	"fmt"
	"html"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/path"
	"github.com/hpungsan/globs/internal/vec"
)

// SVG renders doc as a standalone SVG document. The viewBox is the document
// bounds plus padding. Degenerate globs are skipped.
func SVG(doc *document.Document, opts Options) ([]byte, error) {
	f := frame(doc, opts)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%s" height="%s">`,
		num(f.Min.X), num(f.Min.Y), num(f.Width()), num(f.Height()), num(f.Width()), num(f.Height()))
	b.WriteByte('\n')

	b.WriteString(`<g class="globs" fill="` + hex(colorGlob) + `">` + "\n")
	for _, id := range doc.GlobIDs() {
		outline, err := doc.GlobOutline(id)
		if err != nil {
			return nil, err
		}
		if outline.IsEmpty() {
			continue
		}
		fmt.Fprintf(&b, `<path id="glob-%s" d="%s"/>`+"\n", html.EscapeString(id), outline.SVG())
	}
	b.WriteString("</g>\n")

	if opts.Nodes {
		fmt.Fprintf(&b, `<g class="nodes" fill="none" stroke="%s" stroke-width="%s">`+"\n",
			hex(colorNode), num(nodeStroke))
		for _, n := range doc.Nodes() {
			fmt.Fprintf(&b, `<circle id="node-%s" cx="%s" cy="%s" r="%s"/>`+"\n",
				html.EscapeString(n.ID), num(n.Point.X), num(n.Point.Y), num(n.Radius))
		}
		b.WriteString("</g>\n")
	}

	if opts.Centerlines {
		writeStrokes(&b, "centerlines", colorCenterline, centerlineStroke, doc.Centerlines())
	}

	if opts.Snaps && len(doc.Snaps()) > 0 {
		var guides []*path.Path
		for _, s := range doc.Snaps() {
			guides = append(guides, path.Polyline([]vec.Point{s.From, s.To}, false))
		}
		writeStrokes(&b, "snaps", colorSnap, snapStroke, guides)
	}

	b.WriteString("</svg>\n")
	return []byte(b.String()), nil
}

func writeStrokes(b *strings.Builder, class string, c color.RGBA, width float64, paths []*path.Path) {
	fmt.Fprintf(b, `<g class="%s" fill="none" stroke="%s" stroke-width="%s">`+"\n", class, hex(c), num(width))
	for _, p := range paths {
		fmt.Fprintf(b, `<path d="%s"/>`+"\n", p.SVG())
	}
	b.WriteString("</g>\n")
}

// num formats v rounded to three decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
