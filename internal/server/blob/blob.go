// Package blob abstracts the byte store holding encrypted media content.
// The store guarantees that Open returns exactly the bytes written; the
// server treats content as immutable once written.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Store is the blob store collaborator. Write persists a ciphertext stream
// and returns an opaque content ref; Open streams it back.
type Store interface {
	Write(ctx context.Context, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// NewStorageKey returns a fresh date-partitioned storage key.
func NewStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("items/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
