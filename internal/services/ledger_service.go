package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/log"
	"contas/internal/mirror"

	"golang.org/x/sync/errgroup"
)

// Publisher announces that a storage slot was rewritten.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, slot string, count int) error
}

// EntryInput carries the raw values of the entry form.
type EntryInput struct {
	Date          string
	Description   string
	Location      string
	Category      string
	OtherCategory string
	Payer         string
	PaymentMethod string
	Amount        string
}

// OpenResult reports where each store's data came from.
type OpenResult struct {
	Records    ledger.InitResult
	Categories ledger.InitResult
}

// SaveResult describes a successful save. The mirror outcome is informative
// only; a failed sync does not fail the save.
type SaveResult struct {
	Entry           core.Entry
	CategoryCreated bool
	Mirror          mirror.SyncOutcome
}

// LedgerService orchestrates the stores, the file mirror and change
// notifications.
type LedgerService struct {
	records    *ledger.RecordStore
	categories *ledger.CategoryStore
	mirror     *mirror.Mirror
	publisher  Publisher
	closers    []io.Closer
	logger     *log.Logger
}

// Options holds the optional collaborators of a LedgerService.
type Options struct {
	Mirror    *mirror.Mirror
	Publisher Publisher
	// Closers are released by Close in order, e.g. the storage and AMQP client.
	Closers []io.Closer
	Logger  *log.Logger
}

func NewLedgerService(records *ledger.RecordStore, categories *ledger.CategoryStore, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentApp)
	}
	return &LedgerService{
		records:    records,
		categories: categories,
		mirror:     opts.Mirror,
		publisher:  opts.Publisher,
		closers:    opts.Closers,
		logger:     logger.WithComponent(log.ComponentApp),
	}
}

func (s *LedgerService) Records() *ledger.RecordStore { return s.records }

func (s *LedgerService) Categories() *ledger.CategoryStore { return s.categories }

func (s *LedgerService) Mirror() *mirror.Mirror { return s.mirror }

// Open initializes both stores concurrently. They own disjoint slots.
func (s *LedgerService) Open(ctx context.Context) (OpenResult, error) {
	var res OpenResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.records.Init(gctx)
		res.Records = r
		if err != nil {
			return fmt.Errorf("init entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		r, err := s.categories.Init(gctx)
		res.Categories = r
		if err != nil {
			return fmt.Errorf("init categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	// Ids assigned to a stored slot are new on every load until written back.
	if res.Records.Status == ledger.LoadedFromStorage && res.Records.Reassigned > 0 {
		if err := s.records.Persist(ctx); err != nil {
			s.logger.WarnContext(ctx, "Failed to store assigned ids, they will change on next load",
				log.FieldCount, res.Records.Reassigned, log.FieldError, err)
		} else {
			s.logger.InfoContext(ctx, "Stored assigned ids", log.FieldCount, res.Records.Reassigned)
		}
	}
	return res, nil
}

// ParseEntry turns form input into a candidate entry. Category resolution
// follows the "other" choice; validation is left to the store.
func ParseEntry(in EntryInput) (core.Entry, error) {
	e := core.Entry{
		Description:   in.Description,
		Location:      in.Location,
		Category:      core.ResolveCategory(in.Category, in.OtherCategory),
		Payer:         in.Payer,
		PaymentMethod: in.PaymentMethod,
	}
	var bad []string
	if in.Date != "" {
		d, err := core.ParseDate(in.Date)
		if err != nil {
			bad = append(bad, "date")
		}
		e.Date = d
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		bad = append(bad, "amount")
	}
	e.Amount = amount

	if err := e.Validate(); err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			bad = mergeFields(verr.Fields, bad)
		}
	}
	if len(bad) > 0 {
		return core.Entry{}, &core.ValidationError{Fields: bad}
	}
	return e, nil
}

// mergeFields returns a followed by the fields of b it does not hold.
func mergeFields(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, f := range b {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// AddEntry runs the save path: the entry is added and persisted, a free-text
// category is remembered, then the mirror and subscribers are notified on a
// best-effort basis. When persisting fails the entry stays in memory and the
// returned result still carries it; the category is only stored once the
// entry is.
func (s *LedgerService) AddEntry(ctx context.Context, in EntryInput) (SaveResult, error) {
	candidate, err := ParseEntry(in)
	if err != nil {
		return SaveResult{}, err
	}

	added, err := s.records.Add(candidate)
	if err != nil {
		return SaveResult{}, err
	}
	res := SaveResult{Entry: added}

	if err := s.records.Persist(ctx); err != nil {
		return res, fmt.Errorf("save entry: %w", err)
	}

	if strings.TrimSpace(in.Category) == core.OtherCategory {
		created, err := s.categories.AddIfNotExists(ctx, added.Category)
		if err != nil {
			s.logger.WarnContext(ctx, "Entry saved but its category was not stored",
				log.FieldOperation, log.OpAdd, log.FieldCategory, added.Category, log.FieldError, err)
		}
		res.CategoryCreated = created
	}
	res.Mirror = s.afterPersist(ctx)

	s.logger.InfoContext(ctx, "Entry saved", log.NewFields().WithOperation(log.OpAdd).
		WithEntry(added.ID, added.Category, added.Amount).ToSlice()...)
	return res, nil
}

// RemoveEntry deletes an entry and persists the collection.
func (s *LedgerService) RemoveEntry(ctx context.Context, id string) (mirror.SyncOutcome, error) {
	if err := s.records.RemoveByID(id); err != nil {
		return mirror.SyncSkipped, err
	}
	if err := s.records.Persist(ctx); err != nil {
		return mirror.SyncSkipped, fmt.Errorf("remove entry: %w", err)
	}
	s.logger.InfoContext(ctx, "Entry removed", log.FieldOperation, log.OpRemove, log.FieldEntryID, id)
	return s.afterPersist(ctx), nil
}

// Import replaces every entry with the contents of a JSON document.
func (s *LedgerService) Import(ctx context.Context, data []byte) (int, error) {
	if err := s.records.Import(data); err != nil {
		return 0, fmt.Errorf("import entries: %w", err)
	}
	if err := s.records.Persist(ctx); err != nil {
		return 0, fmt.Errorf("import entries: %w", err)
	}
	n := s.records.Len()
	s.afterPersist(ctx)
	s.logger.InfoContext(ctx, "Entries imported", log.FieldOperation, log.OpImport, log.FieldCount, n)
	return n, nil
}

// Export returns the pretty-printed entries document.
func (s *LedgerService) Export() ([]byte, error) {
	return s.records.ExportSnapshot()
}

// AddCategory stores a new category name.
func (s *LedgerService) AddCategory(ctx context.Context, name string) (bool, error) {
	return s.categories.AddIfNotExists(ctx, name)
}

// List returns the entries that match f.
func (s *LedgerService) List(f core.Filter) []core.Entry {
	return core.Apply(s.records.List(), f)
}

// Total sums the entries that match f.
func (s *LedgerService) Total(f core.Filter) float64 {
	return core.AggregateTotal(s.records.List(), f)
}

// Summary totals the entries that match f per category.
func (s *LedgerService) Summary(f core.Filter) core.Summary {
	return core.SummarizeByCategory(s.records.List(), f)
}

// ConnectMirror asks for a mirror file and, once connected, writes it.
func (s *LedgerService) ConnectMirror(ctx context.Context) (mirror.ConnectResult, error) {
	if s.mirror == nil {
		return mirror.Unsupported, nil
	}
	res, err := s.mirror.Connect(ctx)
	if err != nil || res != mirror.Connected {
		return res, err
	}
	if _, err := s.mirror.Write(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func (s *LedgerService) afterPersist(ctx context.Context) mirror.SyncOutcome {
	outcome := mirror.SyncSkipped
	if s.mirror != nil {
		outcome = s.mirror.AutoSync(ctx)
	}
	s.publish(ctx)
	return outcome
}

func (s *LedgerService) publish(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, s.records.Key(), s.records.Len()); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, log.OpPublish, log.FieldError, err)
	}
}

// Close releases storage and messaging connections.
func (s *LedgerService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
