package document

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/hpungsan/globs/internal/errors"
)

// Data is the plain structural form of a document used for persistence and
// transport.
type Data struct {
	Nodes         map[string]Node `json:"nodes"`
	Globs         map[string]Glob `json:"globs"`
	SelectedNodes []string        `json:"selected_nodes"`
	SelectedGlobs []string        `json:"selected_globs"`
	Camera        Camera          `json:"camera"`
	Notes         string          `json:"notes,omitempty"`
}

// Data returns the document's structural form. Transient state (brush,
// snaps) is not included.
func (d *Document) Data() Data {
	return Data{
		Nodes:         maps.Clone(d.nodes),
		Globs:         maps.Clone(d.globs),
		SelectedNodes: nonNil(d.selectedNodes),
		SelectedGlobs: nonNil(d.selectedGlobs),
		Camera:        d.camera,
		Notes:         d.notes,
	}
}

// FromData builds a document from its structural form, validating every node
// and glob. Map keys must match the entity ids; an empty id takes the key.
// Selection entries naming missing entities are dropped; a zero camera zoom
// becomes 1.
func FromData(data Data) (*Document, error) {
	doc := New()
	for _, key := range sortedKeys(data.Nodes) {
		n := data.Nodes[key]
		if n.ID == "" {
			n.ID = key
		}
		if n.ID != key {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("node key %q does not match id %q", key, n.ID))
		}
		if _, err := doc.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, key := range sortedKeys(data.Globs) {
		g := data.Globs[key]
		if g.ID == "" {
			g.ID = key
		}
		if g.ID != key {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("glob key %q does not match id %q", key, g.ID))
		}
		if _, err := doc.AddGlob(g); err != nil {
			return nil, err
		}
	}

	var nodes, globs []string
	for _, id := range data.SelectedNodes {
		if _, ok := doc.nodes[id]; ok {
			nodes = append(nodes, id)
		}
	}
	for _, id := range data.SelectedGlobs {
		if _, ok := doc.globs[id]; ok {
			globs = append(globs, id)
		}
	}
	doc.SetSelection(nodes, globs)

	cam := data.Camera
	if cam.Zoom == 0 {
		cam.Zoom = 1
	}
	if err := doc.SetCamera(cam); err != nil {
		return nil, err
	}
	doc.notes = data.Notes
	return doc, nil
}

// MarshalJSON encodes the document's structural form.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data())
}

// UnmarshalJSON decodes and validates a structural form.
func (d *Document) UnmarshalJSON(b []byte) error {
	var data Data
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	doc, err := FromData(data)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
