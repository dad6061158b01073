package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/mediavault/internal/common"
)

// FileStore keeps blobs under a local directory. Used in development and
// in tests; production deployments use the S3 store.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Write(ctx context.Context, r io.Reader) (string, error) {
	ref := NewStorageKey()
	path := filepath.Join(s.dir, filepath.FromSlash(ref))

	if err := os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

func (s *FileStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(ref)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorContentUnavailable
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}
