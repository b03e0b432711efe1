package models

import (
	"reflect"
	"testing"
)

func rec(id, parent string, kind Kind, title string) Record {
	r := Record{ID: id, Kind: kind, Title: title}
	if parent != "" {
		r.ParentID = StringPtr(parent)
	}
	return r
}

func TestBuildTree_Nesting(t *testing.T) {
	roots := BuildTree([]Record{
		rec("f", "", KindFolder, "F"),
		rec("a", "f", KindFile, "A"),
		rec("g", "f", KindFolder, "G"),
		rec("b", "g", KindFile, "B"),
		rec("c", "", KindFile, "C"),
	})
	if len(roots) != 2 || roots[0].ID != "f" || roots[1].ID != "c" {
		t.Fatalf("roots = %+v", roots)
	}
	f := roots[0]
	if len(f.Children) != 2 || f.Children[0].ID != "a" || f.Children[1].ID != "g" {
		t.Fatalf("children of f = %+v", f.Children)
	}
	if got := f.Children[1].Children; len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("children of g = %+v", got)
	}
}

func TestBuildTree_OrphanPromotedToRoot(t *testing.T) {
	roots := BuildTree([]Record{
		rec("x", "", KindFolder, "X"),
		rec("lost", "gone", KindFile, "Lost"),
	})
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[1].ID != "lost" {
		t.Errorf("orphan not at root: %+v", roots)
	}
	if roots[1].ParentID != "" {
		t.Errorf("orphan parent = %q, want cleared", roots[1].ParentID)
	}
}

func TestBuildTree_FileParentTreatedAsAbsent(t *testing.T) {
	roots := BuildTree([]Record{
		rec("doc", "", KindFile, "Doc"),
		rec("child", "doc", KindFile, "Child"),
	})
	if len(roots) != 2 {
		t.Fatalf("expected child under a file to be promoted, roots = %+v", roots)
	}
}

func TestBuildTree_CycleDoesNotDropNodes(t *testing.T) {
	roots := BuildTree([]Record{
		rec("p", "q", KindFolder, "P"),
		rec("q", "p", KindFolder, "Q"),
	})
	count := 0
	Walk(roots, func(*Node) bool { count++; return true })
	if count != 2 {
		t.Fatalf("expected both nodes reachable, got %d", count)
	}
}

func TestBuildTree_NilContentNormalized(t *testing.T) {
	roots := BuildTree([]Record{rec("a", "", KindFile, "A")})
	if roots[0].Content != "" {
		t.Errorf("content = %q", roots[0].Content)
	}
	if roots[0].Record().Content == nil {
		t.Error("file record should carry non-nil content")
	}
}

func TestTreeRoundTrip(t *testing.T) {
	records := []Record{
		rec("f", "", KindFolder, "F"),
		rec("a", "f", KindFile, "A"),
		rec("g", "f", KindFolder, "G"),
		rec("b", "g", KindFile, "B"),
		rec("c", "", KindFile, "C"),
		rec("h", "", KindFolder, "H"),
	}
	records[1].Content = StringPtr("# A\n\n")

	first := BuildTree(records)
	second := BuildTree(Flatten(first))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip mismatch:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestRemoveAndClone(t *testing.T) {
	roots := BuildTree([]Record{
		rec("f", "", KindFolder, "F"),
		rec("a", "f", KindFile, "A"),
		rec("c", "", KindFile, "C"),
	})
	snapshot := CloneNodes(roots)

	roots, ok := Remove(roots, "a")
	if !ok {
		t.Fatal("expected a to be removed")
	}
	if Find(roots, "a") != nil {
		t.Error("a still present")
	}
	if Find(snapshot, "a") == nil {
		t.Error("snapshot was mutated by Remove")
	}
	if _, ok := Remove(roots, "missing"); ok {
		t.Error("removing unknown id reported success")
	}
}
