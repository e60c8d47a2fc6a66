package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"contas/internal/bootstrap"
	"contas/internal/core"
	"contas/internal/storage"
)

// InitStatus tells where a store's collection came from on Init.
type InitStatus int

const (
	LoadedFromStorage InitStatus = iota
	SeededFromBootstrap
	StartedEmpty
)

func (s InitStatus) String() string {
	switch s {
	case LoadedFromStorage:
		return "storage"
	case SeededFromBootstrap:
		return "bootstrap"
	case StartedEmpty:
		return "empty"
	default:
		return fmt.Sprintf("InitStatus(%d)", int(s))
	}
}

// InitResult is the outcome of a store's Init. Cause records why the primary
// slot, and for StartedEmpty the bootstrap resource too, could not be used.
// Reassigned counts entries that got a new id while loading; those ids live in
// memory only until the collection is persisted.
type InitResult struct {
	Status     InitStatus
	Count      int
	Reassigned int
	Cause      error
}

// errSlotEmpty marks a slot that exists but holds no document.
var errSlotEmpty = errors.New("slot is empty")

// slot binds a storage key to its bootstrap resource and document codec.
type slot[T any] struct {
	kv       storage.KV
	key      string
	source   bootstrap.Source
	resource string
	decode   func([]byte) ([]T, error)
}

// load runs the primary storage -> bootstrap -> empty chain without writing.
func (sl slot[T]) load(ctx context.Context) ([]T, InitResult) {
	items, cause := sl.read(ctx)
	if cause == nil {
		return items, InitResult{Status: LoadedFromStorage, Count: len(items)}
	}

	if sl.source == nil {
		return nil, InitResult{Status: StartedEmpty, Cause: errors.Join(cause, errors.New("no bootstrap source"))}
	}
	data, err := sl.source.Fetch(ctx, sl.resource)
	if err != nil {
		return nil, InitResult{Status: StartedEmpty, Cause: errors.Join(cause, fmt.Errorf("bootstrap %s: %w", sl.resource, err))}
	}
	items, err = sl.decode(data)
	if err != nil {
		return nil, InitResult{Status: StartedEmpty, Cause: errors.Join(cause, fmt.Errorf("bootstrap %s: %w", sl.resource, err))}
	}
	return items, InitResult{Status: SeededFromBootstrap, Count: len(items), Cause: cause}
}

func (sl slot[T]) read(ctx context.Context) ([]T, error) {
	raw, err := sl.kv.Get(ctx, sl.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sl.key, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("read %s: %w", sl.key, errSlotEmpty)
	}
	items, err := sl.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sl.key, err)
	}
	return items, nil
}

// write replaces the slot with the compact JSON encoding of items.
func (sl slot[T]) write(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return &core.PersistenceError{Op: "encode", Key: sl.key, Err: err}
	}
	if err := sl.kv.Set(ctx, sl.key, data); err != nil {
		return &core.PersistenceError{Op: "write", Key: sl.key, Err: err}
	}
	return nil
}

// snapshot renders items as the pretty-printed export document.
func snapshot[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.MarshalIndent(items, "", "  ")
}

// decodeArray splits a JSON array into its raw elements. Anything other than
// an array, including null, is a FormatError.
func decodeArray(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		var probe any
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, &core.FormatError{Err: err}
		}
		return nil, &core.FormatError{Err: fmt.Errorf("got %s", jsonKind(probe))}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &core.FormatError{Err: err}
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
