// Package bootstrap provides the read-only seed documents a store adopts on a
// cold start, when its primary storage slot is still empty.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

// Resource names of the two seed documents.
const (
	EntriesResource    = "contas.json"
	CategoriesResource = "categorias.json"
)

// ErrNotFound is returned when a source does not hold the requested resource.
var ErrNotFound = errors.New("bootstrap: resource not found")

// Source fetches a seed document by name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FSSource reads resources from a file system, e.g. os.DirFS or an embed.FS.
type FSSource struct {
	FS  fs.FS
	Dir string
}

// NewDirSource reads resources from a directory on disk.
func NewDirSource(dir string) *FSSource {
	return &FSSource{FS: os.DirFS(dir), Dir: "."}
}

func (s *FSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.FS, path.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Chain tries each source in order and returns the first successful fetch.
type Chain []Source

func (c Chain) Fetch(ctx context.Context, name string) ([]byte, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: %s (no sources)", ErrNotFound, name)
	}
	var errs []error
	for _, src := range c {
		data, err := src.Fetch(ctx, name)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, name string) ([]byte, error)

func (f Func) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}
