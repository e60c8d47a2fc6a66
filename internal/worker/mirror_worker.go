// Package worker keeps the mirror file in step with primary storage outside
// the interactive process.
package worker

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/log"
	"contas/internal/mirror"
	"contas/internal/storage"
)

// MirrorWorker rewrites the mirror file from the entries slot. It reads the
// slot itself on every sync; notifications only tell it when to look.
type MirrorWorker struct {
	kv      storage.KV
	records *ledger.RecordStore
	mirror  *mirror.Mirror
	logger  *log.Logger

	mu     sync.Mutex
	digest [sha256.Size]byte
	stamp  time.Time
	synced bool
}

// NewMirrorWorker wires a worker. The mirror must write snapshots of records.
func NewMirrorWorker(kv storage.KV, records *ledger.RecordStore, m *mirror.Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &MirrorWorker{
		kv:      kv,
		records: records,
		mirror:  m,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerChanged processes a single change notification. Messages for
// other slots are acknowledged and ignored.
func (w *MirrorWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg.Slot != w.records.Key() {
		w.logger.DebugContext(ctx, "Ignoring change for another slot", log.FieldKey, msg.Slot)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldKey, msg.Slot,
		log.FieldCount, msg.Count,
		"timestamp", msg.Timestamp)

	if _, err := w.sync(ctx, true); err != nil {
		return fmt.Errorf("sync mirror: %w", err)
	}
	return nil
}

// Sync rewrites the mirror when the slot changed since the last write. It is
// the backup path for lost notifications.
func (w *MirrorWorker) Sync(ctx context.Context) (bool, error) {
	return w.sync(ctx, false)
}

// StartupSync writes the mirror once regardless of previous state.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	written, err := w.sync(ctx, true)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	if !written {
		w.logger.InfoContext(ctx, "Nothing to mirror on startup", log.FieldKey, w.records.Key())
	}
	return nil
}

func (w *MirrorWorker) sync(ctx context.Context, force bool) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := w.records.Key()
	stamp, stamped := w.slotStamp(ctx)
	if !force && w.synced && stamped && stamp.Equal(w.stamp) {
		return false, nil
	}

	raw, err := w.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &core.PersistenceError{Op: "read", Key: key, Err: err}
	}

	digest := sha256.Sum256(raw)
	if !force && w.synced && digest == w.digest {
		w.stamp = stamp
		return false, nil
	}

	reassigned, err := w.records.Refresh(raw)
	if err != nil {
		// A malformed slot will not fix itself on retry.
		w.logger.ErrorContext(ctx, "Slot does not hold an entries document",
			log.FieldKey, key, log.FieldError, err)
		w.digest, w.stamp, w.synced = digest, stamp, true
		return false, nil
	}

	settled := true
	if reassigned > 0 {
		// Without a write-back the mirror would get new ids on every sync.
		if err := w.records.Persist(ctx); err != nil {
			w.logger.WarnContext(ctx, "Failed to store assigned ids",
				log.FieldKey, key, log.FieldCount, reassigned, log.FieldError, err)
			settled = false
		} else if stored, err := w.kv.Get(ctx, key); err == nil {
			digest = sha256.Sum256(stored)
			stamp, _ = w.slotStamp(ctx)
		}
	}

	written, err := w.mirror.Write(ctx)
	if err != nil {
		return false, err
	}
	if !written {
		return false, fmt.Errorf("%w: no mirror file connected", core.ErrSync)
	}
	if settled {
		w.digest, w.stamp, w.synced = digest, stamp, true
	}

	w.logger.InfoContext(ctx, "Mirror file updated",
		log.FieldHandle, w.mirror.HandleName(),
		log.FieldCount, w.records.Len())
	return true, nil
}

// slotStamp asks storage when the slot was last written. The second result is
// false when storage keeps no stamps or cannot tell.
func (w *MirrorWorker) slotStamp(ctx context.Context) (time.Time, bool) {
	st, ok := w.kv.(storage.Stamper)
	if !ok {
		return time.Time{}, false
	}
	ts, err := st.UpdatedAt(ctx, w.records.Key())
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
