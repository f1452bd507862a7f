// Package history persists one ExecutionRecord per top-level insight
// execution. The log is append-only and is the only state the insight
// filter consults.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/actuator/internal/models"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store is closed")

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is an append-only execution log.
type Store interface {
	// Append persists rec. Records are never rewritten or removed.
	Append(ctx context.Context, rec models.ExecutionRecord) error

	// Records returns every record in append order, including records
	// appended by other processes.
	Records(ctx context.Context) ([]models.ExecutionRecord, error)

	// RecentlyCompleted maps each insight summary with a completed record at
	// or after since to its latest completion time.
	RecentlyCompleted(since time.Time) (map[string]time.Time, error)

	Close() error
}

// Open opens the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return OpenFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q (must be %s or %s)", backend, BackendFile, BackendSQLite)
	}
}

// prepare fills the fields every backend requires before persisting.
func prepare(rec *models.ExecutionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
}
