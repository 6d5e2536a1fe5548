//go:build !sqlite

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStoreSQLiteUnavailable(t *testing.T) {
	_, err := NewStore("sqlite", "league.db")
	assert.ErrorContains(t, err, "-tags sqlite")
	assert.Equal(t, "memory", DefaultStoreKind)
}
