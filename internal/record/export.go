package record

import (
	"encoding/json"

	"github.com/hpungsan/globs/internal/document"
)

// SchemaVersion is written into every export file.
const SchemaVersion = "1.0"

// ExportFile is the JSON export format: a header plus the document's
// structural form.
type ExportFile struct {
	GlobsExport   bool          `json:"_globs_export"`
	SchemaVersion string        `json:"schema_version"`
	ExportedAt    int64         `json:"exported_at"`
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	Title         *string       `json:"title,omitempty"`
	Document      document.Data `json:"document"`
}

// ParseExport reads an export file. A bare document (no header) is also
// accepted; its name is left empty.
func ParseExport(data []byte) (*ExportFile, error) {
	var header struct {
		GlobsExport bool `json:"_globs_export"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, err
	}
	if header.GlobsExport {
		var f ExportFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return &f, nil
	}
	var d document.Data
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &ExportFile{SchemaVersion: SchemaVersion, Document: d}, nil
}
