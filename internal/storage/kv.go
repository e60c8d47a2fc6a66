// Package storage holds the primary key-value persistence used by the
// ledger stores. Each slot holds one whole serialized collection; writes
// replace the slot.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a slot has never been written.
var ErrNotFound = errors.New("storage: key not found")

// KV is the primary storage capability.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Stamper is implemented by storages that record when a slot was last
// written. Readers use it to skip loading a slot that has not changed.
type Stamper interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
