// Package mirror keeps an optional copy of the entries in a user-chosen JSON
// file. Writing the mirror is best effort: a failed sync is logged and the
// primary storage stays authoritative.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"contas/internal/core"
	"contas/internal/log"
)

var (
	// ErrUnsupported is returned by a Picker when the host cannot pick files.
	ErrUnsupported = errors.New("mirror: file picking not supported")
	// ErrCancelled is returned by a Picker when the user dismissed the choice.
	ErrCancelled = errors.New("mirror: file selection cancelled")
)

// Picker asks the host for a writable target file.
type Picker interface {
	Pick(ctx context.Context) (Handle, error)
}

// Handle is a writable file chosen through a Picker.
type Handle interface {
	Name() string
	// Open starts a write scope that replaces the file contents on Close.
	Open(ctx context.Context) (io.WriteCloser, error)
}

// Aborter is implemented by write scopes that can discard a failed write
// instead of committing it.
type Aborter interface {
	Abort() error
}

// Snapshotter supplies the document written to the mirror.
type Snapshotter interface {
	ExportSnapshot() ([]byte, error)
}

// ConnectResult is the outcome of Connect.
type ConnectResult int

const (
	NotConnected ConnectResult = iota
	Connected
	Unsupported
)

func (r ConnectResult) String() string {
	switch r {
	case NotConnected:
		return "not connected"
	case Connected:
		return "connected"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("ConnectResult(%d)", int(r))
	}
}

// SyncOutcome is the outcome of AutoSync.
type SyncOutcome int

const (
	SyncSkipped SyncOutcome = iota
	SyncWritten
	SyncFailed
)

func (o SyncOutcome) String() string {
	switch o {
	case SyncSkipped:
		return "skipped"
	case SyncWritten:
		return "written"
	case SyncFailed:
		return "failed"
	default:
		return fmt.Sprintf("SyncOutcome(%d)", int(o))
	}
}

// Bool reports whether the mirror file was written.
func (o SyncOutcome) Bool() bool { return o == SyncWritten }

// Mirror holds at most one connected Handle.
type Mirror struct {
	mu     sync.Mutex
	picker Picker
	source Snapshotter
	handle Handle
	logger *log.Logger
}

// New creates a disconnected mirror. A nil picker means the host has no file
// picking capability.
func New(picker Picker, source Snapshotter, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Default(log.ComponentMirror)
	}
	return &Mirror{
		picker: picker,
		source: source,
		logger: logger.WithComponent(log.ComponentMirror),
	}
}

// Connect asks the picker for a target file. On NotConnected and Unsupported
// the current connection, if any, is left as it was.
func (m *Mirror) Connect(ctx context.Context) (ConnectResult, error) {
	if m.picker == nil {
		return Unsupported, nil
	}
	h, err := m.picker.Pick(ctx)
	switch {
	case errors.Is(err, ErrUnsupported):
		return Unsupported, nil
	case errors.Is(err, ErrCancelled):
		m.logger.InfoContext(ctx, "File selection cancelled")
		return NotConnected, nil
	case err != nil:
		return NotConnected, &core.SyncError{Op: "connect", Err: err}
	case h == nil:
		return NotConnected, nil
	}

	m.mu.Lock()
	m.handle = h
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Mirror connected", log.FieldHandle, h.Name())
	return Connected, nil
}

// Disconnect forgets the current handle.
func (m *Mirror) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handle = nil
}

func (m *Mirror) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

// HandleName returns the name of the connected file, or "".
func (m *Mirror) HandleName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return ""
	}
	return m.handle.Name()
}

// Write replaces the mirror file with a fresh snapshot of the entries. It
// returns false without error when no file is connected.
func (m *Mirror) Write(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return false, nil
	}

	data, err := m.source.ExportSnapshot()
	if err != nil {
		return false, &core.SyncError{Op: "snapshot", Err: err}
	}
	if err := writeTo(ctx, m.handle, data); err != nil {
		return false, &core.SyncError{Op: "write " + m.handle.Name(), Err: err}
	}

	m.logger.DebugContext(ctx, "Mirror written", log.FieldHandle, m.handle.Name(), log.FieldBytes, len(data))
	return true, nil
}

// writeTo always releases the write scope: aborted on failure when the scope
// supports it, closed otherwise.
func writeTo(ctx context.Context, h Handle, data []byte) (err error) {
	w, err := h.Open(ctx)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if err == nil {
			if cerr := w.Close(); cerr != nil {
				err = fmt.Errorf("close: %w", cerr)
			}
			return
		}
		if a, ok := w.(Aborter); ok {
			err = errors.Join(err, a.Abort())
			return
		}
		err = errors.Join(err, w.Close())
	}()

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// AutoSync writes the mirror if connected. Failures are logged and reported
// through the outcome only.
func (m *Mirror) AutoSync(ctx context.Context) SyncOutcome {
	ok, err := m.Write(ctx)
	switch {
	case err != nil:
		m.logger.WarnContext(ctx, "Mirror sync failed", log.NewFields().
			WithOperation(log.OpSync).WithError(err).ToSlice()...)
		return SyncFailed
	case ok:
		return SyncWritten
	default:
		return SyncSkipped
	}
}
