// Package snapshot defines where named collection snapshots are kept and provides
// the filesystem and in-memory implementations. Database and object-store
// implementations live in the sibling postgres, sqlite and s3 packages.
package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no snapshot has been written under a name.
var ErrNotFound = errors.New("snapshot not found")

// Store persists opaque snapshot payloads by name. Write fully replaces any
// previous payload stored under the same name.
type Store interface {
	Write(ctx context.Context, name string, payload []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
}
