// Package filex contains small filesystem helpers shared by the local blob
// store and the client key store.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubdDir creates dirName under the current working directory if it
// does not exist and returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// EnsurePrivateDir creates dir with permissions restricted to the owner.
// Used for directories holding private key material.
func EnsurePrivateDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
