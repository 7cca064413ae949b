// Package ops implements the document operations shared by the CLI, the MCP
// server and the web viewer.
package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/db"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/record"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Address represents a validated document address.
type Address struct {
	ByID bool
	ID   string
	Name string // normalized
}

// ValidateAddress validates addressing parameters and returns a normalized Address.
// Rules:
// - Must specify exactly one addressing mode: id OR name
// - If both are provided → ErrAmbiguousAddressing
// - If neither is provided → ErrInvalidRequest
func ValidateAddress(id, name string) (*Address, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	if id != "" && name != "" {
		return nil, errors.NewAmbiguousAddressing()
	}
	if id == "" && name == "" {
		return nil, errors.NewInvalidRequest("must specify either id or name")
	}
	if id != "" {
		return &Address{ByID: true, ID: id}, nil
	}

	nameNorm := record.Normalize(name)
	if nameNorm == "" {
		return nil, errors.NewInvalidRequest("name must not be empty")
	}
	return &Address{Name: nameNorm}, nil
}

var validate = validator.New()

// validateInput checks an input struct's validate tags and reports every
// failing field in one INVALID_REQUEST.
func validateInput(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInvalidRequest(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.NewInvalidRequest(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// lookup fetches a record by address.
func lookup(ctx context.Context, database *sql.DB, addr *Address, includeDeleted bool) (*record.Record, error) {
	if addr.ByID {
		return db.GetByID(ctx, database, addr.ID, includeDeleted)
	}
	return db.GetByName(ctx, database, addr.Name, includeDeleted)
}

// decodeDocument parses a record's stored document.
func decodeDocument(r *record.Record) (*document.Document, error) {
	var data document.Data
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("decode document %s: %w", r.ID, err))
	}
	return document.FromData(data)
}

// encodeDocument fills a record's data and counts from doc.
func encodeDocument(r *record.Record, doc *document.Document) error {
	data, err := json.Marshal(doc.Data())
	if err != nil {
		return errors.NewInternal(err)
	}
	r.Data = data
	r.NodeCount = doc.NodeCount()
	r.GlobCount = doc.GlobCount()
	return nil
}

// checkSize enforces max_document_nodes.
func checkSize(cfg *config.Config, doc *document.Document) error {
	if cfg == nil || cfg.MaxDocumentNodes <= 0 {
		return nil
	}
	if n := doc.NodeCount(); n > cfg.MaxDocumentNodes {
		return errors.NewDocumentTooLarge(cfg.MaxDocumentNodes, n)
	}
	return nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// cancelled reports a done context as a CANCELLED error.
func cancelled(ctx context.Context, op string) error {
	if ctx.Err() != nil {
		return errors.NewCancelled(op)
	}
	return nil
}
