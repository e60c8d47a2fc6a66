// Package backend assembles the ledger from configuration: primary storage,
// bootstrap sources, the file mirror and change notifications.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"contas/internal/amqp"
	"contas/internal/bootstrap"
	"contas/internal/ledger"
	"contas/internal/log"
	"contas/internal/mirror"
	"contas/internal/services"
	"contas/internal/storage"
	"contas/internal/worker"
)

// ErrMirrorNotConfigured is returned when a mirror is required but no target
// file is configured.
var ErrMirrorNotConfigured = errors.New("mirror file not configured (set MIRROR_FILE)")

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StorageResult contains the storage instance and optional cleanup function
type StorageResult struct {
	KV      storage.KV
	Cleanup CleanupFunc
}

func (r *StorageResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory builds the pieces of the ledger
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default(log.ComponentApp)
	}
	return &Factory{logger: logger}
}

// CreateStorage opens the primary key-value storage
func (f *Factory) CreateStorage(config Config) (*StorageResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		db, err := storage.NewSQLite(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		f.logger.Info("Initialized SQLite storage", "db_path", config.SQLiteDBPath)
		return &StorageResult{KV: db, Cleanup: db.Close}, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory storage, data will not survive the process")
		return &StorageResult{KV: storage.NewMemory()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateBootstrap chains the configured seed sources: directory first, then
// URL, then Google Sheets. A Sheets source that cannot be built is skipped.
func (f *Factory) CreateBootstrap(ctx context.Context, config Config) bootstrap.Source {
	var chain bootstrap.Chain
	if config.BootstrapDir != "" {
		chain = append(chain, bootstrap.NewDirSource(config.BootstrapDir))
	}
	if config.BootstrapURL != "" {
		chain = append(chain, bootstrap.NewHTTPSource(config.BootstrapURL, config.HTTPTimeout))
	}
	if config.GoogleSpreadsheetID != "" {
		src, err := bootstrap.NewSheetsSource(ctx, bootstrap.SheetsConfig{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			EntriesSheet:    config.GoogleEntriesSheet,
			CategoriesSheet: config.GoogleCategoriesSheet,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			f.logger.Warn("Google Sheets bootstrap unavailable", log.FieldError, err)
		} else {
			chain = append(chain, src)
		}
	}

	f.logger.Info("Bootstrap sources configured", "count", len(chain))
	return chain
}

// CreatePublisher connects to the broker when notifications are configured.
// It returns nil without error when they are not, and nil with a logged
// warning when the broker is unreachable.
func (f *Factory) CreatePublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		log.FieldQueue, config.AMQPQueue)
	return client
}

// CreateStores builds the two stores over kv
func (f *Factory) CreateStores(config Config, kv storage.KV, seed bootstrap.Source) (*ledger.RecordStore, *ledger.CategoryStore) {
	records := ledger.NewRecordStore(kv, ledger.RecordOptions{
		Key:       config.EntriesKey,
		Bootstrap: seed,
		Logger:    f.logger,
	})
	categories := ledger.NewCategoryStore(kv, ledger.CategoryOptions{
		Key:       config.CategoriesKey,
		Bootstrap: seed,
		Logger:    f.logger,
	})
	return records, categories
}

// CreateService assembles a LedgerService. The picker decides how the mirror
// file is chosen; nil selects the configured MIRROR_FILE.
func (f *Factory) CreateService(ctx context.Context, config Config, picker mirror.Picker) (*services.LedgerService, error) {
	store, err := f.CreateStorage(config)
	if err != nil {
		return nil, err
	}

	records, categories := f.CreateStores(config, store.KV, f.CreateBootstrap(ctx, config))
	if picker == nil {
		picker = mirror.StaticPicker{Path: config.MirrorFile}
	}
	m := mirror.New(picker, records, f.logger)

	closers := []io.Closer{store}
	opts := services.Options{Mirror: m, Logger: f.logger}
	if client := f.CreatePublisher(config); client != nil {
		opts.Publisher = client
		closers = append(closers, client)
	}
	opts.Closers = closers

	return services.NewLedgerService(records, categories, opts), nil
}

// CreateMirrorWorker builds a worker that rewrites MIRROR_FILE from storage.
// The worker reads the slot without bootstrapping it; seeding is left to the
// interactive process. The returned storage must be closed by the caller.
func (f *Factory) CreateMirrorWorker(ctx context.Context, config Config) (*worker.MirrorWorker, *StorageResult, error) {
	if config.MirrorFile == "" {
		return nil, nil, ErrMirrorNotConfigured
	}
	store, err := f.CreateStorage(config)
	if err != nil {
		return nil, nil, err
	}

	records, _ := f.CreateStores(config, store.KV, nil)
	m := mirror.New(mirror.StaticPicker{Path: config.MirrorFile}, records, f.logger)
	if _, err := m.Connect(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("connect mirror: %w", err)
	}

	return worker.NewMirrorWorker(store.KV, records, m, f.logger), store, nil
}
