package mirror

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileHandle is a mirror target on the local file system. Writes go to a
// temporary file in the same directory that replaces the target on Close.
type FileHandle struct {
	Path string
}

func (h FileHandle) Name() string { return h.Path }

func (h FileHandle) Open(ctx context.Context) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Dir(h.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(h.Path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileWriter{tmp: tmp, target: h.Path}, nil
}

type fileWriter struct {
	tmp    *os.File
	target string
	done   bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.tmp.Write(p)
}

// Close commits the write by renaming the temp file over the target.
func (w *fileWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tmp.Sync(); err != nil {
		w.discard()
		return fmt.Errorf("sync: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(w.tmp.Name(), w.target); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Abort drops the temp file and leaves the target untouched.
func (w *fileWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.discard()
}

func (w *fileWriter) discard() error {
	return errors.Join(w.tmp.Close(), os.Remove(w.tmp.Name()))
}

// StaticPicker always picks the configured path. An empty path means the host
// offers no file target.
type StaticPicker struct {
	Path string
}

func (p StaticPicker) Pick(ctx context.Context) (Handle, error) {
	if strings.TrimSpace(p.Path) == "" {
		return nil, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FileHandle{Path: p.Path}, nil
}

// PromptPicker asks for a path on an interactive terminal.
type PromptPicker struct {
	In     io.Reader
	Out    io.Writer
	Prompt string
}

func (p PromptPicker) Pick(ctx context.Context) (Handle, error) {
	if p.In == nil {
		return nil, ErrUnsupported
	}
	if p.Out != nil {
		prompt := p.Prompt
		if prompt == "" {
			prompt = "Mirror file path (blank to cancel): "
		}
		fmt.Fprint(p.Out, prompt)
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read path: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return nil, ErrCancelled
	}
	return FileHandle{Path: path}, nil
}
