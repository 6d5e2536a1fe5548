//go:build sqlite

package storage

import "errors"

// DefaultStoreKind is the backend used when none is configured.
const DefaultStoreKind = "sqlite"

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	return NewSQLiteStore(path), nil
}
