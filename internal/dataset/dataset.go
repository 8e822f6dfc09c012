// File path: internal/dataset/dataset.go
package dataset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

// ErrNotFound is returned for operations referencing an unknown upload key.
var ErrNotFound = errors.New("dataset not found")

// Dataset is one uploaded project's derived table plus upload metadata,
// scoped by an opaque upload key. It is always replaced wholesale, never
// mutated in place.
type Dataset struct {
	Key        string          `json:"key"`
	Filename   string          `json:"filename"`
	UploadedAt time.Time       `json:"uploaded_at"`
	Table      *schedule.Table `json:"table"`
}

// NewKey mints an opaque upload key.
func NewKey() string {
	return uuid.NewString()
}

// Store holds the current dataset per upload key. Put replaces any existing
// value atomically; Get returns ErrNotFound for unknown or expired keys.
type Store interface {
	Put(ctx context.Context, ds *Dataset) error
	Get(ctx context.Context, key string) (*Dataset, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
