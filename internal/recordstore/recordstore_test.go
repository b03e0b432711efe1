package recordstore

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "mdtree-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(context.Background(), DriverSQLite, f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreate(t *testing.T, db *DB, id, parent string, kind models.Kind, createdAt int64) {
	t.Helper()
	rec := models.Record{ID: id, Title: id, Kind: kind, CreatedAt: createdAt}
	if parent != "" {
		rec.ParentID = models.StringPtr(parent)
	}
	if kind == models.KindFile {
		rec.Content = models.StringPtr("# " + id + "\n\n")
	}
	if err := db.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create %s: %v", id, err)
	}
}

func ids(recs []models.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM files`).Scan(&count); err != nil {
		t.Fatalf("files table missing: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestListAll_OrderedByCreation(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "late", "", models.KindFile, 300)
	mustCreate(t, db, "early", "", models.KindFolder, 100)
	mustCreate(t, db, "middle", "early", models.KindFile, 200)

	recs, err := db.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	got := ids(recs)
	want := []string{"early", "middle", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if recs[0].ParentID != nil {
		t.Errorf("root parent_id = %v, want nil", *recs[0].ParentID)
	}
	if recs[1].ParentID == nil || *recs[1].ParentID != "early" {
		t.Errorf("middle parent_id = %v", recs[1].ParentID)
	}
}

func TestListAll_Empty(t *testing.T) {
	db := testDB(t)
	recs, err := db.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", recs)
	}
}

func TestCreate_AcceptsUnknownParent(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "orphan", "nowhere", models.KindFile, 1)
	rec, err := db.Get(context.Background(), "orphan")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.ParentID == nil || *rec.ParentID != "nowhere" {
		t.Errorf("parent_id = %v", rec.ParentID)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "dup", "", models.KindFolder, 1)
	err := db.Create(context.Background(), models.Record{ID: "dup", Title: "again", Kind: models.KindFolder, CreatedAt: 2})
	if err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "doc", "", models.KindFile, 1)
	db.now = func() time.Time { return time.UnixMilli(5000) }
	ctx := context.Background()

	if err := db.Update(ctx, "doc", models.FilePatch{Title: models.StringPtr("Renamed")}); err != nil {
		t.Fatalf("Update title: %v", err)
	}
	rec, _ := db.Get(ctx, "doc")
	if rec.Title != "Renamed" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Content == nil || *rec.Content != "# doc\n\n" {
		t.Errorf("content changed by title-only update: %v", rec.Content)
	}
	if rec.UpdatedAt != 5000 {
		t.Errorf("updated_at = %d, want 5000", rec.UpdatedAt)
	}

	db.now = func() time.Time { return time.UnixMilli(6000) }
	if err := db.Update(ctx, "doc", models.FilePatch{Content: models.StringPtr("body")}); err != nil {
		t.Fatalf("Update content: %v", err)
	}
	rec, _ = db.Get(ctx, "doc")
	if rec.Title != "Renamed" || *rec.Content != "body" || rec.UpdatedAt != 6000 {
		t.Errorf("after content update: %+v", rec)
	}
}

func TestUpdate_EmptyPatchKeepsTimestamp(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "doc", "", models.KindFile, 1)
	db.now = func() time.Time { return time.UnixMilli(9999) }
	if err := db.Update(context.Background(), "doc", models.FilePatch{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rec, _ := db.Get(context.Background(), "doc")
	if rec.UpdatedAt != 1 {
		t.Errorf("updated_at = %d, want 1", rec.UpdatedAt)
	}
}

func TestUpdate_ContentOverwrites(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "42", "", models.KindFile, 1)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := db.Update(ctx, "42", models.FilePatch{Content: models.StringPtr("body")}); err != nil {
			t.Fatal(err)
		}
	}
	rec, _ := db.Get(ctx, "42")
	if *rec.Content != "body" {
		t.Errorf("content = %q, want %q", *rec.Content, "body")
	}
}

func TestDelete_Cascades(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "F", "", models.KindFolder, 1)
	mustCreate(t, db, "A", "F", models.KindFile, 2)
	mustCreate(t, db, "G", "F", models.KindFolder, 3)
	mustCreate(t, db, "B", "G", models.KindFile, 4)
	mustCreate(t, db, "keep", "", models.KindFile, 5)
	mustCreate(t, db, "other", "", models.KindFolder, 6)
	mustCreate(t, db, "inner", "other", models.KindFile, 7)
	ctx := context.Background()

	deleted, err := db.Delete(ctx, "F")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []string{"F", "A", "G", "B"}
	if len(deleted) != len(want) {
		t.Fatalf("deleted = %v, want %v", deleted, want)
	}
	for i := range want {
		if deleted[i] != want[i] {
			t.Fatalf("deleted = %v, want %v", deleted, want)
		}
	}

	recs, _ := db.ListAll(ctx)
	got := ids(recs)
	sort.Strings(got)
	if len(got) != 3 || got[0] != "inner" || got[1] != "keep" || got[2] != "other" {
		t.Errorf("remaining = %v", got)
	}
}

func TestDelete_UnknownID(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "keep", "", models.KindFile, 1)
	deleted, err := db.Delete(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(deleted) != 0 {
		t.Errorf("deleted = %v", deleted)
	}
	recs, _ := db.ListAll(context.Background())
	if len(recs) != 1 {
		t.Errorf("expected 1 record left, got %d", len(recs))
	}
}

func TestDelete_CyclicParentsTerminate(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, "p", "q", models.KindFolder, 1)
	mustCreate(t, db, "q", "p", models.KindFolder, 2)

	deleted, err := db.Delete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v, want both", deleted)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.Get(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRebind(t *testing.T) {
	db := &DB{driver: DriverPostgres}
	got := db.rebind(`SELECT 1 WHERE a = ? AND b IN (?,?)`)
	if got != `SELECT 1 WHERE a = $1 AND b IN ($2,$3)` {
		t.Errorf("rebind = %q", got)
	}
	db.driver = DriverSQLite
	if got := db.rebind(`a = ?`); got != `a = ?` {
		t.Errorf("sqlite rebind = %q", got)
	}
}
