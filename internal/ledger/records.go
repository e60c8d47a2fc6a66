// Package ledger owns the two collections of the application: entries and
// category names. Each store keeps its collection in memory, loads it from a
// primary storage slot (or a bootstrap resource on a cold start) and writes
// the whole collection back on demand.
package ledger

import (
	"context"
	"slices"
	"sync"

	"contas/internal/bootstrap"
	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/storage"
)

// DefaultEntriesKey is the primary storage slot of the entries document.
const DefaultEntriesKey = "appcontas:contas"

// RecordOptions configures a RecordStore. Zero values select defaults.
type RecordOptions struct {
	Key       string
	Bootstrap bootstrap.Source
	NewID     IDFunc
	Logger    *log.Logger
}

// RecordStore owns the sequence of entries.
type RecordStore struct {
	mu      sync.Mutex
	slot    slot[core.Entry]
	newID   IDFunc
	logger  *log.Logger
	entries []core.Entry
}

func NewRecordStore(kv storage.KV, opts RecordOptions) *RecordStore {
	if opts.Key == "" {
		opts.Key = DefaultEntriesKey
	}
	if opts.NewID == nil {
		opts.NewID = NewID
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentLedger)
	}
	s := &RecordStore{
		newID:  opts.NewID,
		logger: opts.Logger.WithComponent(log.ComponentLedger),
	}
	s.slot = slot[core.Entry]{
		kv:       kv,
		key:      opts.Key,
		source:   opts.Bootstrap,
		resource: bootstrap.EntriesResource,
		decode:   decodeEntries,
	}
	return s
}

// Key returns the primary storage slot of this store.
func (s *RecordStore) Key() string { return s.slot.key }

// Init loads the entries. A store that falls back to an empty collection is
// not an error; the returned error is a PersistenceError only when a bootstrap
// baseline was adopted but could not be written to primary storage.
func (s *RecordStore) Init(ctx context.Context) (InitResult, error) {
	entries, res := s.slot.load(ctx)
	if entries == nil {
		entries = []core.Entry{}
	}
	if n := assignIDs(entries, s.newID); n > 0 {
		res.Reassigned = n
		s.logger.DebugContext(ctx, "Assigned missing or duplicate ids", log.FieldCount, n)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	fields := log.NewFields().WithOperation(log.OpInit).WithKey(s.slot.key).WithCount(res.Count)
	fields[log.FieldSource] = res.Status.String()
	if res.Cause != nil {
		s.logger.WarnContext(ctx, "Primary storage unavailable, using fallback", fields.WithError(res.Cause).ToSlice()...)
	} else {
		s.logger.InfoContext(ctx, "Entries loaded", fields.ToSlice()...)
	}

	if res.Status == SeededFromBootstrap {
		if err := s.slot.write(ctx, entries); err != nil {
			s.logger.ErrorContext(ctx, "Failed to write bootstrap baseline", log.FieldKey, s.slot.key, log.FieldError, err)
			return res, err
		}
	}
	return res, nil
}

// List returns a copy of the entries in insertion order.
func (s *RecordStore) List() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Len returns the number of entries.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Add validates candidate, gives it a fresh id and appends it. Any id on the
// candidate is ignored. The change is not persisted until Persist.
func (s *RecordStore) Add(candidate core.Entry) (core.Entry, error) {
	if err := candidate.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		seen[e.ID] = struct{}{}
	}
	candidate.ID = uniqueID(seen, s.newID)
	s.entries = append(s.entries, candidate)

	s.logger.Debug("Entry added", log.NewFields().WithOperation(log.OpAdd).
		WithEntry(candidate.ID, candidate.Category, candidate.Amount).ToSlice()...)
	return candidate, nil
}

// RemoveByID deletes the entry with the given id.
func (s *RecordStore) RemoveByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.entries, func(e core.Entry) bool { return e.ID == id })
	if i < 0 {
		return &core.NotFoundError{ID: id}
	}
	s.entries = slices.Delete(slices.Clone(s.entries), i, i+1)
	return nil
}

// ReplaceAll swaps in a new collection, the bulk import path. Missing and
// duplicate ids are replaced and counted; field contents are not validated.
func (s *RecordStore) ReplaceAll(entries []core.Entry) int {
	next := slices.Clone(entries)
	if next == nil {
		next = []core.Entry{}
	}
	n := assignIDs(next, s.newID)

	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()

	s.logger.Info("Entries replaced", log.NewFields().WithOperation(log.OpReplace).
		WithCount(len(next)).ToSlice()...)
	if n > 0 {
		s.logger.Debug("Assigned missing or duplicate ids", log.FieldCount, n)
	}
	return n
}

// Import replaces the collection with a JSON array document. It fails with a
// FormatError when the document is not an array and leaves the store as is.
func (s *RecordStore) Import(data []byte) error {
	_, err := s.Refresh(data)
	return err
}

// Refresh is Import for a document read back from primary storage. It reports
// how many ids were assigned, so the caller can write them back and keep them
// stable across sessions.
func (s *RecordStore) Refresh(data []byte) (int, error) {
	entries, err := decodeEntries(data)
	if err != nil {
		return 0, err
	}
	return s.ReplaceAll(entries), nil
}

// Persist writes the whole collection to primary storage.
func (s *RecordStore) Persist(ctx context.Context) error {
	entries := s.List()
	if err := s.slot.write(ctx, entries); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist entries", log.NewFields().
			WithOperation(log.OpPersist).WithKey(s.slot.key).WithError(err).ToSlice()...)
		return err
	}
	s.logger.DebugContext(ctx, "Entries persisted", log.FieldKey, s.slot.key, log.FieldCount, len(entries))
	return nil
}

// ExportSnapshot returns the entries as a pretty-printed JSON array. The File
// Mirror writes the same bytes, so an exported or mirrored file re-imports.
func (s *RecordStore) ExportSnapshot() ([]byte, error) {
	return snapshot(s.List())
}
