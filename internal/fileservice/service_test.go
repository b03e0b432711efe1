package fileservice

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/sse"
	"github.com/starford/mdtree/internal/testutil"
)

type published struct {
	kind sse.FileEventKind
	ids  []string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishFileEvent(kind sse.FileEventKind, ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{kind: kind, ids: ids})
}

func testService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewService(testutil.TestDB(t), pub, nil), pub
}

func TestCreateNormalizes(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()

	err := svc.Create(ctx, models.Record{
		ID:        "F",
		ParentID:  models.StringPtr(""),
		Title:     "Folder",
		Kind:      models.KindFolder,
		Content:   models.StringPtr("ignored"),
		CreatedAt: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	recs, _ := svc.List(ctx)
	if len(recs) != 1 || recs[0].ParentID != nil || recs[0].Content != nil {
		t.Errorf("records = %+v", recs)
	}
	if len(pub.events) != 1 || pub.events[0].kind != sse.FileCreated {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()

	cases := []models.Record{
		{Title: "no id", Kind: models.KindFile},
		{ID: "x", Title: "bad type", Kind: "link"},
		{ID: "x", ParentID: models.StringPtr("x"), Title: "loop", Kind: models.KindFolder},
	}
	for _, rec := range cases {
		if err := svc.Create(ctx, rec); !errors.Is(err, apperr.ErrInvalidRecord) {
			t.Errorf("Create(%+v) err = %v, want ErrInvalidRecord", rec, err)
		}
	}
	if len(pub.events) != 0 {
		t.Errorf("nothing should be published, got %+v", pub.events)
	}
}

func TestUpdateEmptyPatchIsNoop(t *testing.T) {
	svc, pub := testService(t)
	if err := svc.Update(context.Background(), "missing", models.FilePatch{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestDeletePublishesEveryID(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()
	for i, rec := range []models.Record{
		{ID: "F", Title: "F", Kind: models.KindFolder},
		{ID: "A", ParentID: models.StringPtr("F"), Title: "A", Kind: models.KindFile},
	} {
		rec.CreatedAt = int64(i + 1)
		if err := svc.Create(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := svc.Delete(ctx, "F")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !reflect.DeepEqual(deleted, []string{"F", "A"}) {
		t.Errorf("deleted = %v", deleted)
	}
	last := pub.events[len(pub.events)-1]
	if last.kind != sse.FileDeleted || !reflect.DeepEqual(last.ids, []string{"F", "A"}) {
		t.Errorf("last event = %+v", last)
	}
}
