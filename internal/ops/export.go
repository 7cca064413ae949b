package ops

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/document"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/record"
	"github.com/hpungsan/globs/internal/render"
)

// ExportFormat selects the exported file type.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportSVG  ExportFormat = "svg"
	ExportPNG  ExportFormat = "png"
)

// Ext returns the file extension for the format, including the dot.
func (f ExportFormat) Ext() string { return "." + string(f) }

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ID     string
	Name   string
	Format ExportFormat `validate:"omitempty,oneof=json svg png"` // default: json
	Path   string       // optional, default: ~/.globs/exports/<name>-<timestamp>.<format>

	// Render overrides render.DefaultOptions for svg and png.
	Render *render.Options
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string       `json:"path"`
	Format     ExportFormat `json:"format"`
	Bytes      int          `json:"bytes"`
	ExportedAt int64        `json:"exported_at"`
}

// Export writes a stored document to a file.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Format == "" {
		input.Format = ExportJSON
	}

	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	r, err := lookup(ctx, database, addr, false)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	data, err := Encode(r, doc, input.Format, input.Render, now)
	if err != nil {
		return nil, err
	}
	if err := cancelled(ctx, "export"); err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(r.NameNorm, input.Format, now)
		if err != nil {
			return nil, err
		}
	}

	// Validate ALL paths (both user-provided and default) for security
	if err := ValidatePath(exportPath, PathCheckWrite, input.Format.Ext(), cfg); err != nil {
		return nil, err
	}

	if err := writeFileAtomic(exportPath, data); err != nil {
		return nil, err
	}

	return &ExportOutput{
		Path:       exportPath,
		Format:     input.Format,
		Bytes:      len(data),
		ExportedAt: now.Unix(),
	}, nil
}

// Encode renders doc in the given format. opts applies to svg and png; nil
// uses render.DefaultOptions.
func Encode(r *record.Record, doc *document.Document, format ExportFormat, opts *render.Options, now time.Time) ([]byte, error) {
	ro := render.DefaultOptions()
	if opts != nil {
		ro = *opts
	}

	switch format {
	case ExportJSON:
		file := record.ExportFile{
			GlobsExport:   true,
			SchemaVersion: record.SchemaVersion,
			ExportedAt:    now.Unix(),
			ID:            r.ID,
			Name:          r.NameRaw,
			Title:         r.Title,
			Document:      doc.Data(),
		}
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		return append(data, '\n'), nil
	case ExportSVG:
		return render.SVG(doc, ro)
	case ExportPNG:
		var buf bytes.Buffer
		if err := render.PNG(doc, &buf, ro); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown format %q", format))
}

// writeFileAtomic writes data to a temp file beside path and renames it into
// place, so an existing file survives a failed write.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	// On Windows, os.Rename fails if the destination exists. The existing file
	// is kept rather than risking a delete+rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// defaultExportPath generates ~/.globs/exports/<name>-<timestamp>.<ext>.
func defaultExportPath(nameNorm string, format ExportFormat, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	timestamp := now.Format("2006-01-02T150405")
	filename := fmt.Sprintf("%s-%s%s", SanitizeForFilename(nameNorm), timestamp, format.Ext())
	return filepath.Join(dir, filename), nil
}
