// Package record is the stored form of a named document.
package record

// Record is a document row. Data holds the document's JSON form.
type Record struct {
	// ID is a ULID that uniquely identifies this record
	ID string

	// NameRaw is the name as provided by the user
	NameRaw string

	// NameNorm is the normalized name (lowercased, trimmed, collapsed spaces)
	NameNorm string

	// Title is an optional human-readable title
	Title *string

	// Data is the document JSON
	Data []byte

	NodeCount int
	GlobCount int

	// CreatedAt is the Unix timestamp when the record was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the record was last updated
	UpdatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64

	// Version increases by one on every write to the row
	Version int64
}

// Summary is a record without its document, used for listings.
type Summary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Title     *string `json:"title,omitempty"`
	NodeCount int     `json:"node_count"`
	GlobCount int     `json:"glob_count"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
	DeletedAt *int64  `json:"deleted_at,omitempty"`
}

// Summary drops the document data.
func (r *Record) Summary() Summary {
	return Summary{
		ID:        r.ID,
		Name:      r.NameRaw,
		Title:     r.Title,
		NodeCount: r.NodeCount,
		GlobCount: r.GlobCount,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}
}
