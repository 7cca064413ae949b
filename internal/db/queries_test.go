package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/record"
)

// newTestRecord creates a record with default values for testing.
func newTestRecord(id, name string, updatedAt int64) *record.Record {
	return &record.Record{
		ID:        id,
		NameRaw:   name,
		NameNorm:  record.Normalize(name),
		Data:      []byte(`{"nodes":[],"globs":[]}`),
		NodeCount: 2,
		GlobCount: 1,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

// stringPtr returns a pointer to the given string.
func stringPtr(s string) *string {
	return &s
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetByID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	r := newTestRecord("01ABC123", "Blob Study", 100)
	r.Title = stringPtr("Study")

	if err := Insert(ctx, db, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := GetByID(ctx, db, "01ABC123", false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.NameRaw != "Blob Study" {
		t.Errorf("NameRaw = %q, want %q", got.NameRaw, "Blob Study")
	}
	if got.NameNorm != "blob study" {
		t.Errorf("NameNorm = %q, want %q", got.NameNorm, "blob study")
	}
	if got.Title == nil || *got.Title != "Study" {
		t.Errorf("Title = %v, want Study", got.Title)
	}
	if string(got.Data) != string(r.Data) {
		t.Errorf("Data = %s, want %s", got.Data, r.Data)
	}
	if got.NodeCount != 2 || got.GlobCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", got.NodeCount, got.GlobCount)
	}
	if got.DeletedAt != nil {
		t.Errorf("DeletedAt = %v, want nil", *got.DeletedAt)
	}
}

func TestInsert_DuplicateName(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := Insert(ctx, db, newTestRecord("01A", "dup", 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := Insert(ctx, db, newTestRecord("01B", "  DUP ", 2))
	if err != ErrUniqueConstraint {
		t.Fatalf("Insert duplicate error = %v, want ErrUniqueConstraint", err)
	}
}

func TestInsert_NameReusableAfterDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := Insert(ctx, db, newTestRecord("01A", "reuse", 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := SoftDelete(ctx, db, "01A"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := Insert(ctx, db, newTestRecord("01B", "reuse", 2)); err != nil {
		t.Fatalf("Insert after delete failed: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := GetByID(context.Background(), db, "missing", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByID error = %v, want NOT_FOUND", err)
	}
}

func TestGetByName(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := Insert(ctx, db, newTestRecord("01A", "Shapes", 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := GetByName(ctx, db, "shapes", false)
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.ID != "01A" {
		t.Errorf("ID = %q, want 01A", got.ID)
	}

	if err := SoftDelete(ctx, db, "01A"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := GetByName(ctx, db, "shapes", false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByName after delete error = %v, want NOT_FOUND", err)
	}

	got, err = GetByName(ctx, db, "shapes", true)
	if err != nil {
		t.Fatalf("GetByName includeDeleted failed: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt = nil, want set")
	}
}

func TestCheckNameExists(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	exists, err := CheckNameExists(ctx, db, "a")
	if err != nil {
		t.Fatalf("CheckNameExists failed: %v", err)
	}
	if exists {
		t.Error("exists = true before insert")
	}

	if err := Insert(ctx, db, newTestRecord("01A", "a", 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	exists, err = CheckNameExists(ctx, db, "a")
	if err != nil {
		t.Fatalf("CheckNameExists failed: %v", err)
	}
	if !exists {
		t.Error("exists = false after insert")
	}
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	res, err := Upsert(ctx, db, newTestRecord("01A", "plan", 1))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !res.Created || res.ID != "01A" || res.Version != 1 {
		t.Errorf("first Upsert = %+v, want created 01A at version 1", res)
	}

	second := newTestRecord("01B", "Plan", 5)
	second.NodeCount = 7
	res, err = Upsert(ctx, db, second)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if res.Created || res.ID != "01A" || res.Version != 2 {
		t.Errorf("second Upsert = %+v, want updated 01A at version 2", res)
	}

	got, err := GetByID(ctx, db, "01A", false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.NodeCount != 7 {
		t.Errorf("NodeCount = %d, want 7", got.NodeCount)
	}
	if got.NameRaw != "Plan" {
		t.Errorf("NameRaw = %q, want Plan", got.NameRaw)
	}
	if got.CreatedAt != 1 || got.UpdatedAt != 5 {
		t.Errorf("timestamps = %d/%d, want 1/5", got.CreatedAt, got.UpdatedAt)
	}
}

func TestUpdateByID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	r := newTestRecord("01A", "edit", 1)
	if err := Insert(ctx, db, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	r.Data = []byte(`{"nodes":[{"id":"n"}],"globs":[]}`)
	r.NodeCount = 1
	r.GlobCount = 0
	if err := UpdateByID(ctx, db, r); err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}
	if r.UpdatedAt <= 1 {
		t.Errorf("UpdatedAt = %d, want refreshed", r.UpdatedAt)
	}
	if r.Version != 2 {
		t.Errorf("Version = %d, want 2", r.Version)
	}

	got, err := GetByID(ctx, db, "01A", false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if string(got.Data) != string(r.Data) {
		t.Errorf("Data = %s, want %s", got.Data, r.Data)
	}
	if got.NodeCount != 1 || got.GlobCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", got.NodeCount, got.GlobCount)
	}
	if got.Version != 2 {
		t.Errorf("stored Version = %d, want 2", got.Version)
	}

	missing := newTestRecord("nope", "x", 1)
	if err := UpdateByID(ctx, db, missing); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateByID missing error = %v, want NOT_FOUND", err)
	}
}

// TestUpdateByID_StaleVersion checks that two writers holding the same
// version cannot both write, even within the same second.
func TestUpdateByID_StaleVersion(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := Insert(ctx, db, newTestRecord("01A", "shared", 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	first, err := GetByID(ctx, db, "01A", false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	second, err := GetByID(ctx, db, "01A", false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	first.NodeCount = 1
	if err := UpdateByID(ctx, db, first); err != nil {
		t.Fatalf("first UpdateByID failed: %v", err)
	}
	second.NodeCount = 2
	if err := UpdateByID(ctx, db, second); !errors.Is(err, errors.ErrConflict) {
		t.Fatalf("stale UpdateByID error = %v, want CONFLICT", err)
	}

	got, err := GetByID(ctx, db, "01A", false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.NodeCount != 1 || got.Version != 2 {
		t.Errorf("stored = %d nodes at version %d, want 1 at 2", got.NodeCount, got.Version)
	}
}

func TestSoftDelete_Twice(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := Insert(ctx, db, newTestRecord("01A", "gone", 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := SoftDelete(ctx, db, "01A"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := SoftDelete(ctx, db, "01A"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second SoftDelete error = %v, want NOT_FOUND", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for i, name := range []string{"one", "two", "three"} {
		if err := Insert(ctx, db, newTestRecord("01"+name, name, int64(10+i))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := SoftDelete(ctx, db, "01two"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	items, total, err := List(ctx, db, 10, 0, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("List = %d items, total %d, want 2/2", len(items), total)
	}
	if items[0].Name != "three" || items[1].Name != "one" {
		t.Errorf("order = %q, %q, want three, one", items[0].Name, items[1].Name)
	}

	items, total, err = List(ctx, db, 1, 1, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Fatalf("List = %d items, total %d, want 1/3", len(items), total)
	}
	if items[0].Name != "two" || items[0].DeletedAt == nil {
		t.Errorf("items[0] = %+v, want deleted two", items[0])
	}
}

func TestPurgeDeleted(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, id := range []string{"01A", "01B", "01C"} {
		if err := Insert(ctx, db, newTestRecord(id, id, 1)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	for _, id := range []string{"01A", "01B"} {
		if err := SoftDelete(ctx, db, id); err != nil {
			t.Fatalf("SoftDelete failed: %v", err)
		}
	}

	days := 1
	n, err := PurgeDeleted(ctx, db, &days)
	if err != nil {
		t.Fatalf("PurgeDeleted failed: %v", err)
	}
	if n != 0 {
		t.Errorf("PurgeDeleted(1 day) = %d, want 0 for fresh deletions", n)
	}

	n, err = PurgeDeleted(ctx, db, nil)
	if err != nil {
		t.Fatalf("PurgeDeleted failed: %v", err)
	}
	if n != 2 {
		t.Errorf("PurgeDeleted = %d, want 2", n)
	}

	if _, err := GetByID(ctx, db, "01C", false); err != nil {
		t.Errorf("active record purged: %v", err)
	}
}

func TestFindUniqueName(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	got, err := FindUniqueName(ctx, db, "shape")
	if err != nil {
		t.Fatalf("FindUniqueName failed: %v", err)
	}
	if got != "shape" {
		t.Errorf("FindUniqueName = %q, want shape", got)
	}

	for _, name := range []string{"shape", "shape-2"} {
		if err := Insert(ctx, db, newTestRecord("01"+name, name, 1)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	got, err = FindUniqueName(ctx, db, "shape")
	if err != nil {
		t.Fatalf("FindUniqueName failed: %v", err)
	}
	if got != "shape-3" {
		t.Errorf("FindUniqueName = %q, want shape-3", got)
	}
}
