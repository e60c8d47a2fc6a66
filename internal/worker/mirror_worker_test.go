package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/log"
	"contas/internal/mirror"
	"contas/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	kv     *storage.Memory
	worker *MirrorWorker
	target string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	kv := storage.NewMemory()
	records := ledger.NewRecordStore(kv, ledger.RecordOptions{Logger: log.Discard()})
	target := filepath.Join(t.TempDir(), "contas.json")
	m := mirror.New(mirror.StaticPicker{Path: target}, records, log.Discard())
	res, err := m.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, mirror.Connected, res)

	return fixture{
		kv:     kv,
		worker: NewMirrorWorker(kv, records, m, log.Discard()),
		target: target,
	}
}

func (f fixture) mirrored(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.target)
	require.NoError(t, err)
	return string(data)
}

func TestHandleLedgerChangedWritesMirror(t *testing.T) {
	f := newFixture(t)
	f.kv.Seed(ledger.DefaultEntriesKey, []byte(`[{"id":"a","date":"2024-01-02","amount":3}]`))

	err := f.worker.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage(ledger.DefaultEntriesKey, 1))
	require.NoError(t, err)

	var got []core.Entry
	require.NoError(t, json.Unmarshal([]byte(f.mirrored(t)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 3.0, got[0].Amount)
}

func TestHandleLedgerChangedIgnoresOtherSlots(t *testing.T) {
	f := newFixture(t)
	f.kv.Seed(ledger.DefaultEntriesKey, []byte(`[]`))

	err := f.worker.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage(ledger.DefaultCategoriesKey, 4))
	require.NoError(t, err)

	_, err = os.Stat(f.target)
	assert.True(t, os.IsNotExist(err))
}

func TestSyncSkipsUnchangedSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.kv.Seed(ledger.DefaultEntriesKey, []byte(`[{"id":"a"}]`))

	written, err := f.worker.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = f.worker.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, written)

	f.kv.Seed(ledger.DefaultEntriesKey, []byte(`[{"id":"a"},{"id":"b"}]`))
	written, err = f.worker.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Contains(t, f.mirrored(t), `"id": "b"`)
}

func TestSyncWithEmptySlot(t *testing.T) {
	f := newFixture(t)

	written, err := f.worker.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, written)
	require.NoError(t, f.worker.StartupSync(context.Background()))
}

func TestSyncReadFailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.kv.FailReads(errors.New("database is locked"))

	err := f.worker.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage(ledger.DefaultEntriesKey, 0))
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestSyncMalformedSlotIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.kv.Seed(ledger.DefaultEntriesKey, []byte(`{"not":"an array"}`))

	err := f.worker.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage(ledger.DefaultEntriesKey, 0))
	require.NoError(t, err)

	_, err = os.Stat(f.target)
	assert.True(t, os.IsNotExist(err))
}

func TestSyncWithoutConnectedMirror(t *testing.T) {
	kv := storage.NewMemory()
	kv.Seed(ledger.DefaultEntriesKey, []byte(`[]`))
	records := ledger.NewRecordStore(kv, ledger.RecordOptions{Logger: log.Discard()})
	w := NewMirrorWorker(kv, records, mirror.New(nil, records, log.Discard()), log.Discard())

	_, err := w.Sync(context.Background())
	assert.ErrorIs(t, err, core.ErrSync)
}

// countingKV counts full slot reads.
type countingKV struct {
	*storage.Memory
	gets int
}

func (c *countingKV) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets++
	return c.Memory.Get(ctx, key)
}

func TestSyncSkipsReadWhenStampUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{Memory: storage.NewMemory()}
	kv.Seed(ledger.DefaultEntriesKey, []byte(`[{"id":"a"}]`))
	records := ledger.NewRecordStore(kv, ledger.RecordOptions{Logger: log.Discard()})
	m := mirror.New(mirror.StaticPicker{Path: filepath.Join(t.TempDir(), "contas.json")}, records, log.Discard())
	_, err := m.Connect(ctx)
	require.NoError(t, err)
	w := NewMirrorWorker(kv, records, m, log.Discard())

	written, err := w.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 1, kv.gets)

	written, err = w.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, 1, kv.gets, "an unchanged stamp must not load the slot")

	kv.Seed(ledger.DefaultEntriesKey, []byte(`[{"id":"a"},{"id":"b"}]`))
	written, err = w.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 2, kv.gets)
}

func TestSyncStoresAssignedIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.kv.Seed(ledger.DefaultEntriesKey, []byte(`[{"data":"2024-01-05","descricao":"Pão"}]`))

	written, err := f.worker.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, written)

	var first []core.Entry
	require.NoError(t, json.Unmarshal([]byte(f.mirrored(t)), &first))
	require.Len(t, first, 1)
	require.NotEmpty(t, first[0].ID)

	stored, err := f.kv.Get(ctx, ledger.DefaultEntriesKey)
	require.NoError(t, err)
	assert.Contains(t, string(stored), first[0].ID)

	written, err = f.worker.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, written, "writing the ids back is not a change")

	require.NoError(t, f.worker.StartupSync(ctx))
	var again []core.Entry
	require.NoError(t, json.Unmarshal([]byte(f.mirrored(t)), &again))
	assert.Equal(t, first[0].ID, again[0].ID)
}
