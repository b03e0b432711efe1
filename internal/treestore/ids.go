package treestore

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/mdtree/internal/models"
)

// NewIDGenerator returns a generator of ids shaped "<kind>-<ulid>".
// Ids from one generator sort in creation order.
func NewIDGenerator() func(models.Kind) string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func(kind models.Kind) string {
		mu.Lock()
		id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
		mu.Unlock()
		return string(kind) + "-" + strings.ToLower(id.String())
	}
}
