package ledger

import (
	"fmt"
	"math/rand/v2"
	"time"

	"contas/internal/core"

	"github.com/google/uuid"
)

// IDFunc returns a new entry id.
type IDFunc func() string

// NewID returns a random UUID, falling back to a timestamp plus a random
// suffix when the system random source is unavailable.
func NewID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fallbackID()
	}
	return id.String()
}

func fallbackID() string {
	return fmt.Sprintf("id-%d-%d", time.Now().UnixMilli(), rand.IntN(1e9))
}

// assignIDs gives every entry a non-empty id unique within the slice. The
// first holder of an id keeps it; later duplicates get a fresh one.
func assignIDs(entries []core.Entry, newID IDFunc) (reassigned int) {
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		id := entries[i].ID
		if _, dup := seen[id]; id == "" || dup {
			id = uniqueID(seen, newID)
			entries[i].ID = id
			reassigned++
		}
		seen[id] = struct{}{}
	}
	return reassigned
}

// uniqueID asks newID for an id not in seen. A generator stuck on taken ids is
// abandoned for the fallback scheme after a few attempts.
func uniqueID(seen map[string]struct{}, newID IDFunc) string {
	for attempt := 0; ; attempt++ {
		id := newID()
		if attempt >= 8 {
			id = fallbackID()
		}
		if _, taken := seen[id]; id != "" && !taken {
			return id
		}
	}
}
