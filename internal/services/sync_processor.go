package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"contas/internal/log"
)

// Syncer rewrites the mirror when primary storage changed. It reports whether
// anything was written.
type Syncer interface {
	Sync(ctx context.Context) (bool, error)
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check the slot for changes (default: 30s)
	PollInterval time.Duration

	// MaxRetries is how many consecutive failures are logged as warnings
	// before they escalate to errors (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		MaxRetries:   3,
	}
}

// SyncProcessor polls a Syncer. It backs up change notifications that were
// lost while the worker was down or the broker unreachable.
type SyncProcessor struct {
	syncer Syncer
	config SyncProcessorConfig
	logger *log.Logger

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	failures int
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(syncer Syncer, config SyncProcessorConfig, logger *log.Logger) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SyncProcessor{
		syncer: syncer,
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	// Signal stop
	close(stopCh)

	// Wait for completion or context cancellation
	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main processing loop
func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs a single sync and tracks consecutive failures
func (p *SyncProcessor) poll(ctx context.Context) {
	written, err := p.syncer.Sync(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.failures++
		if p.failures >= p.config.MaxRetries {
			p.logger.ErrorContext(ctx, "Mirror sync keeps failing",
				"attempts", p.failures, log.FieldError, err)
		} else {
			p.logger.WarnContext(ctx, "Mirror sync failed",
				"attempt", p.failures, log.FieldError, err)
		}
		return
	}
	p.failures = 0
	if written {
		p.logger.DebugContext(ctx, "Mirror refreshed by poll")
	}
}

// Failures returns the number of consecutive failed polls
func (p *SyncProcessor) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}
