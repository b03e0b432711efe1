// Package testutil provides shared test helpers for databases, client state
// and a scriptable in-memory authority.
package testutil

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/mdtree/internal/localstore"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/recordstore"
)

// ErrInjected is returned by FakeRemote calls scripted to fail.
var ErrInjected = errors.New("injected remote failure")

// TestDB creates a temporary SQLite record store that is automatically cleaned up.
func TestDB(t *testing.T) *recordstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "mdtree-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := recordstore.Open(context.Background(), recordstore.DriverSQLite, dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestPrefs creates a temporary client state directory.
func TestPrefs(t *testing.T) (string, *localstore.Dir) {
	t.Helper()
	dir := t.TempDir()
	prefs, err := localstore.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, prefs
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

// Call records one request received by FakeRemote.
type Call struct {
	Op    string // list, create, update, delete
	ID    string
	Patch models.FilePatch
	At    time.Time
}

// FakeRemote is an in-memory authority. Each operation can be scripted to
// fail through the Fail* fields.
type FakeRemote struct {
	mu      sync.Mutex
	records []models.Record
	calls   []Call

	FailList   bool
	FailCreate bool
	FailUpdate bool
	FailDelete bool
}

// NewFakeRemote returns an authority seeded with records.
func NewFakeRemote(records ...models.Record) *FakeRemote {
	return &FakeRemote{records: slices.Clone(records)}
}

// SetFail switches failure injection for every operation.
func (f *FakeRemote) SetFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailList, f.FailCreate, f.FailUpdate, f.FailDelete = fail, fail, fail, fail
}

// Calls returns every request received so far.
func (f *FakeRemote) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Records returns the authority's current record set.
func (f *FakeRemote) Records() []models.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.records)
}

func (f *FakeRemote) record(c Call) {
	c.At = time.Now()
	f.calls = append(f.calls, c)
}

func (f *FakeRemote) List(ctx context.Context) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "list"})
	if f.FailList {
		return nil, ErrInjected
	}
	return slices.Clone(f.records), nil
}

func (f *FakeRemote) Create(ctx context.Context, rec models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "create", ID: rec.ID})
	if f.FailCreate {
		return ErrInjected
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *FakeRemote) Update(ctx context.Context, id string, patch models.FilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "update", ID: id, Patch: patch})
	if f.FailUpdate {
		return ErrInjected
	}
	for i := range f.records {
		if f.records[i].ID != id {
			continue
		}
		if patch.Title != nil {
			f.records[i].Title = *patch.Title
		}
		if patch.Content != nil {
			f.records[i].Content = models.StringPtr(*patch.Content)
		}
	}
	return nil
}

func (f *FakeRemote) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "delete", ID: id})
	if f.FailDelete {
		return ErrInjected
	}
	doomed := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, r := range f.records {
			if r.ParentID != nil && doomed[*r.ParentID] && !doomed[r.ID] {
				doomed[r.ID] = true
				changed = true
			}
		}
	}
	f.records = slices.DeleteFunc(f.records, func(r models.Record) bool { return doomed[r.ID] })
	return nil
}
