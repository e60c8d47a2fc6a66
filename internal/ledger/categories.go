package ledger

import (
	"context"
	"slices"
	"strings"
	"sync"

	"contas/internal/bootstrap"
	"contas/internal/log"
	"contas/internal/storage"
)

// DefaultCategoriesKey is the primary storage slot of the category names.
const DefaultCategoriesKey = "appcontas:categorias"

// CategoryOptions configures a CategoryStore. Zero values select defaults.
type CategoryOptions struct {
	Key       string
	Bootstrap bootstrap.Source
	Logger    *log.Logger
}

// CategoryStore owns the set of category names. Names are unique under
// trimmed, case-insensitive comparison.
type CategoryStore struct {
	mu     sync.Mutex
	slot   slot[string]
	logger *log.Logger
	names  []string
}

func NewCategoryStore(kv storage.KV, opts CategoryOptions) *CategoryStore {
	if opts.Key == "" {
		opts.Key = DefaultCategoriesKey
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentCategories)
	}
	return &CategoryStore{
		slot: slot[string]{
			kv:       kv,
			key:      opts.Key,
			source:   opts.Bootstrap,
			resource: bootstrap.CategoriesResource,
			decode:   decodeNames,
		},
		logger: opts.Logger.WithComponent(log.ComponentCategories),
	}
}

// Key returns the primary storage slot of this store.
func (s *CategoryStore) Key() string { return s.slot.key }

// Init loads the names with the same fallback chain as RecordStore.Init.
func (s *CategoryStore) Init(ctx context.Context) (InitResult, error) {
	names, res := s.slot.load(ctx)
	if names == nil {
		names = []string{}
	}

	s.mu.Lock()
	s.names = names
	s.mu.Unlock()

	fields := log.NewFields().WithOperation(log.OpInit).WithKey(s.slot.key).WithCount(res.Count)
	fields[log.FieldSource] = res.Status.String()
	if res.Cause != nil {
		s.logger.WarnContext(ctx, "Primary storage unavailable, using fallback", fields.WithError(res.Cause).ToSlice()...)
	} else {
		s.logger.InfoContext(ctx, "Categories loaded", fields.ToSlice()...)
	}

	if res.Status == SeededFromBootstrap {
		if err := s.slot.write(ctx, names); err != nil {
			s.logger.ErrorContext(ctx, "Failed to write bootstrap baseline", log.FieldKey, s.slot.key, log.FieldError, err)
			return res, err
		}
	}
	return res, nil
}

// List returns a copy of the names in insertion order.
func (s *CategoryStore) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.names)
}

// Has reports whether name is known, ignoring case and surrounding space.
// Blank input is never known.
func (s *CategoryStore) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.has(name)
}

func (s *CategoryStore) has(name string) bool {
	key := foldName(name)
	if key == "" {
		return false
	}
	return slices.ContainsFunc(s.names, func(n string) bool { return foldName(n) == key })
}

// AddIfNotExists appends a new name and writes the collection through to
// primary storage. It returns false without changes for blank or known names.
// When the write fails the name is dropped again, so memory and storage agree.
func (s *CategoryStore) AddIfNotExists(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.has(name) {
		return false, nil
	}
	next := append(slices.Clone(s.names), name)
	if err := s.slot.write(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store category", log.FieldCategory, name, log.FieldError, err)
		return false, err
	}
	s.names = next

	s.logger.InfoContext(ctx, "Category added", log.FieldCategory, name, log.FieldCount, len(next))
	return true, nil
}

// Persist writes the whole collection to primary storage.
func (s *CategoryStore) Persist(ctx context.Context) error {
	names := s.List()
	if err := s.slot.write(ctx, names); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist categories", log.NewFields().
			WithOperation(log.OpPersist).WithKey(s.slot.key).WithError(err).ToSlice()...)
		return err
	}
	return nil
}

// ExportSnapshot returns the names as a pretty-printed JSON array.
func (s *CategoryStore) ExportSnapshot() ([]byte, error) {
	return snapshot(s.List())
}
