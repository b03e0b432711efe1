package recordstore

import (
	"context"

	"github.com/starford/mdtree/internal/models"
)

// RecordStore defines the persistence operations of the document authority.
type RecordStore interface {
	ListAll(ctx context.Context) ([]models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Create(ctx context.Context, rec models.Record) error
	Update(ctx context.Context, id string, patch models.FilePatch) error
	Delete(ctx context.Context, id string) ([]string, error)
	Close() error
}

// Verify *DB satisfies RecordStore at compile time.
var _ RecordStore = (*DB)(nil)
