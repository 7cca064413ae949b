package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/record"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.GlobsError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

const recordColumns = `
	id, name_raw, name_norm, title, data_json,
	node_count, glob_count, created_at, updated_at, deleted_at, version`

// Insert stores a new document record at version 1.
func Insert(ctx context.Context, db *sql.DB, r *record.Record) error {
	query := `
		INSERT INTO documents (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 1)
	`

	_, err := db.ExecContext(ctx, query,
		r.ID, r.NameRaw, r.NameNorm, toNullString(r.Title), string(r.Data),
		r.NodeCount, r.GlobCount, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	r.Version = 1
	return nil
}

// UpsertResult reports which row an upsert wrote.
type UpsertResult struct {
	ID      string
	Version int64
	Created bool
}

// Upsert inserts r, or replaces the active record with the same normalized
// name. The existing record keeps its id and created_at, and its version is
// bumped.
func Upsert(ctx context.Context, db *sql.DB, r *record.Record) (*UpsertResult, error) {
	query := `
		INSERT INTO documents (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 1)
		ON CONFLICT(name_norm) WHERE deleted_at IS NULL DO UPDATE SET
			name_raw = excluded.name_raw,
			title = excluded.title,
			data_json = excluded.data_json,
			node_count = excluded.node_count,
			glob_count = excluded.glob_count,
			updated_at = excluded.updated_at,
			version = documents.version + 1
		RETURNING id, version
	`

	var res UpsertResult
	err := db.QueryRowContext(ctx, query,
		r.ID, r.NameRaw, r.NameNorm, toNullString(r.Title), string(r.Data),
		r.NodeCount, r.GlobCount, r.CreatedAt, r.UpdatedAt,
	).Scan(&res.ID, &res.Version)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	res.Created = res.ID == r.ID
	return &res, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a record by its ULID.
// If includeDeleted is false, soft-deleted records are excluded.
func GetByID(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*record.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM documents WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	r, err := scanRecord(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetByName retrieves a record by normalized name.
// If includeDeleted is false, soft-deleted records are excluded.
func GetByName(ctx context.Context, db *sql.DB, nameNorm string, includeDeleted bool) (*record.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM documents WHERE name_norm = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	} else {
		// Prefer the active record; otherwise the most recently updated deleted one.
		query += " ORDER BY (deleted_at IS NULL) DESC, updated_at DESC LIMIT 1"
	}

	r, err := scanRecord(db.QueryRowContext(ctx, query, nameNorm))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(nameNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// CheckNameExists checks if an active record with the given name exists.
func CheckNameExists(ctx context.Context, db *sql.DB, nameNorm string) (bool, error) {
	query := `
		SELECT 1 FROM documents
		WHERE name_norm = ? AND deleted_at IS NULL
		LIMIT 1
	`

	var exists int
	err := db.QueryRowContext(ctx, query, nameNorm).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// UpdateByID replaces the document data and title of an active record,
// sets updated_at and bumps the version. The write only happens if the stored
// version still equals r.Version; a record changed by another writer since r
// was read gives CONFLICT. The id and name do not change.
func UpdateByID(ctx context.Context, db *sql.DB, r *record.Record) error {
	now := time.Now().Unix()

	query := `
		UPDATE documents
		SET data_json = ?, title = ?, node_count = ?, glob_count = ?, updated_at = ?,
		    version = version + 1
		WHERE id = ? AND deleted_at IS NULL AND version = ?
	`

	result, err := db.ExecContext(ctx, query,
		string(r.Data), toNullString(r.Title), r.NodeCount, r.GlobCount, now,
		r.ID, r.Version,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		if _, err := GetByID(ctx, db, r.ID, false); err != nil {
			return err
		}
		return errors.NewConflict(fmt.Sprintf("document %s was changed by another writer", r.ID))
	}

	r.UpdatedAt = now
	r.Version++
	return nil
}

// SoftDelete marks a record as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, db *sql.DB, id string) error {
	query := `
		UPDATE documents
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.ExecContext(ctx, query, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// List returns record summaries ordered by updated_at descending, plus the
// total count matching the filter.
func List(ctx context.Context, db *sql.DB, limit, offset int, includeDeleted bool) ([]record.Summary, int, error) {
	where := " WHERE deleted_at IS NULL"
	if includeDeleted {
		where = ""
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+where).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, name_raw, title, node_count, glob_count, created_at, updated_at, deleted_at
		FROM documents` + where + `
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []record.Summary
	for rows.Next() {
		var (
			s         record.Summary
			title     sql.NullString
			deletedAt sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Name, &title, &s.NodeCount, &s.GlobCount,
			&s.CreatedAt, &s.UpdatedAt, &deletedAt); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		s.Title = fromNullString(title)
		if deletedAt.Valid {
			s.DeletedAt = &deletedAt.Int64
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return out, total, nil
}

// PurgeDeleted permanently removes soft-deleted records. With olderThanDays
// set, only records deleted before that many days ago are removed.
func PurgeDeleted(ctx context.Context, db *sql.DB, olderThanDays *int) (int, error) {
	query := "DELETE FROM documents WHERE deleted_at IS NOT NULL"
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// scanRecord scans a single row into a Record.
func scanRecord(row *sql.Row) (*record.Record, error) {
	var (
		r         record.Record
		title     sql.NullString
		data      string
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&r.ID, &r.NameRaw, &r.NameNorm, &title, &data,
		&r.NodeCount, &r.GlobCount, &r.CreatedAt, &r.UpdatedAt, &deletedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	r.Title = fromNullString(title)
	r.Data = []byte(data)
	if deletedAt.Valid {
		r.DeletedAt = &deletedAt.Int64
	}
	return &r, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// maxRenameAttempts bounds FindUniqueName's search.
const maxRenameAttempts = 100

// FindUniqueName returns the first of base, base-2, base-3, ... that no
// active record uses.
func FindUniqueName(ctx context.Context, db *sql.DB, base string) (string, error) {
	for i := 1; i <= maxRenameAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		exists, err := CheckNameExists(ctx, db, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.NewConflict(fmt.Sprintf("no free name for %q after %d attempts", base, maxRenameAttempts))
}
