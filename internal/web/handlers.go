package web

import (
	"bytes"
	"database/sql"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/ops"
	"github.com/hpungsan/globs/internal/render"
)

// maxPNGScale caps the scale query parameter of the PNG endpoint.
const maxPNGScale = 8

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
	metrics  *Metrics
}

// HandleList handles GET /documents: list stored documents.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Documents",
			Version: h.renderer.version,
			Nav:     "documents",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Deleted:    input.IncludeDeleted,
	})
}

// HandleDetail handles GET /documents/{id}: view a single document.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.open(w, r)
	if !ok {
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, doc)
		return
	}

	globs, err := ops.Outlines(doc.Document, nil)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	query := ""
	if doc.DeletedAt != nil {
		query = "?include_deleted=true"
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   doc.Name,
			Version: h.renderer.version,
			Nav:     "documents",
		},
		Doc:       doc,
		Globs:     globs,
		Notes:     renderMarkdown(doc.Document.Notes()),
		NodeCount: doc.Document.NodeCount(),
		GlobCount: doc.Document.GlobCount(),
		SVGURL:    "/documents/" + url.PathEscape(doc.ID) + "/svg" + query,
		PNGURL:    "/documents/" + url.PathEscape(doc.ID) + "/png" + query,
	})
}

// HandleSVG handles GET /documents/{id}/svg: the document as an SVG image.
func (h *Handlers) HandleSVG(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.open(w, r)
	if !ok {
		return
	}

	opts := renderOptions(r)
	svg, err := render.SVG(doc.Document, opts)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.metrics.rendered("svg", doc.Document.NodeCount())

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// HandlePNG handles GET /documents/{id}/png: the document as a PNG image.
func (h *Handlers) HandlePNG(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.open(w, r)
	if !ok {
		return
	}

	opts := renderOptions(r)
	if s := r.URL.Query().Get("scale"); s != "" {
		scale, err := strconv.ParseFloat(s, 64)
		if err != nil || scale <= 0 || scale > maxPNGScale {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("scale must be a number in (0, 8]"))
			return
		}
		opts.Scale = scale
	}

	var buf bytes.Buffer
	if err := render.PNG(doc.Document, &buf, opts); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.metrics.rendered("png", doc.Document.NodeCount())

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleDelete handles DELETE /documents/{id}: soft-delete a document.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("document ID is required"))
		return
	}

	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/documents")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/documents", http.StatusFound)
}

// HandlePurge handles POST /documents/purge: permanently delete soft-deleted documents.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: return HTML fragment
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/documents?include_deleted=true", http.StatusFound)
}

// open loads the document named by the {id} path value. On failure it has
// already written the error response.
func (h *Handlers) open(w http.ResponseWriter, r *http.Request) (*ops.OpenOutput, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("document ID is required"))
		return nil, false
	}

	doc, err := ops.Open(r.Context(), h.db, ops.OpenInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return nil, false
	}
	return doc, true
}

// renderOptions reads the nodes and centerlines toggles.
func renderOptions(r *http.Request) render.Options {
	opts := render.DefaultOptions()
	if r.URL.Query().Has("nodes") {
		opts.Nodes = parseBoolParam(r, "nodes")
	}
	opts.Centerlines = parseBoolParam(r, "centerlines")
	return opts
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
