package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/mdtree/internal/api"
	"github.com/starford/mdtree/internal/fileservice"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/testutil"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	db := testutil.TestDB(t)
	svc := fileservice.NewService(db, nil, nil)
	srv := httptest.NewServer(api.NewServer(svc, api.Options{}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client())
}

func TestClientRoundTrip(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	folder := models.Record{ID: "F", Title: "Folder", Kind: models.KindFolder, CreatedAt: 1}
	file := models.Record{ID: "A", ParentID: models.StringPtr("F"), Title: "A", Kind: models.KindFile, Content: models.StringPtr("# A\n\n"), CreatedAt: 2}
	for _, r := range []models.Record{folder, file} {
		if err := c.Create(ctx, r); err != nil {
			t.Fatalf("Create %s: %v", r.ID, err)
		}
	}

	if err := c.Update(ctx, "A", models.FilePatch{Content: models.StringPtr("body")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	recs, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[1].Title != "A" || recs[1].Content == nil || *recs[1].Content != "body" {
		t.Fatalf("records = %+v", recs)
	}

	if err := c.Delete(ctx, "F"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	recs, _ = c.List(ctx)
	if len(recs) != 0 {
		t.Errorf("cascade delete left %+v", recs)
	}
}

func TestClientEmptyList(t *testing.T) {
	c := testClient(t)
	recs, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", recs)
	}
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database is locked", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, srv.Client())

	err := c.Delete(context.Background(), "x")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError || httpErr.Message != "database is locked" {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestClientNoRetry(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, srv.Client())

	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestClientEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, srv.Client())

	if err := c.Delete(context.Background(), "a/b c"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotPath != "/api/files/a%2Fb%20c" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestClientRequiresSuccessFlag(t *testing.T) {
	for _, body := range []string{`{"success":false}`, `{}`, ``} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		c := NewClient(srv.URL, srv.Client())

		if err := c.Delete(context.Background(), "x"); !errors.Is(err, ErrNotAcknowledged) {
			t.Errorf("Delete with body %q: err = %v, want ErrNotAcknowledged", body, err)
		}
		if err := c.Create(context.Background(), models.Record{ID: "x", Title: "x", Kind: models.KindFile}); !errors.Is(err, ErrNotAcknowledged) {
			t.Errorf("Create with body %q: err = %v, want ErrNotAcknowledged", body, err)
		}
		if err := c.Update(context.Background(), "x", models.FilePatch{Title: models.StringPtr("y")}); !errors.Is(err, ErrNotAcknowledged) {
			t.Errorf("Update with body %q: err = %v, want ErrNotAcknowledged", body, err)
		}
		srv.Close()
	}
}
