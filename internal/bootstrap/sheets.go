package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"contas/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// entryColumns are the header names recognised in the entries sheet, keyed by
// their JSON field. Matching is case-insensitive; Portuguese headers are accepted.
var entryColumns = map[string][]string{
	"id":            {"id"},
	"date":          {"date", "data"},
	"description":   {"description", "descricao", "descrição"},
	"location":      {"location", "local"},
	"category":      {"category", "categoria"},
	"payer":         {"payer", "quempagou", "quem pagou"},
	"paymentMethod": {"paymentmethod", "payment method", "metodopagamento", "método de pagamento"},
	"amount":        {"amount", "valor"},
}

// ValuesReader reads a range of cell values from a spreadsheet.
type ValuesReader interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type sheetsValues struct {
	svc *gsheet.Service
}

func (v sheetsValues) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// SheetsConfig selects the spreadsheet and tabs holding the seed data.
type SheetsConfig struct {
	SpreadsheetID   string
	EntriesSheet    string
	CategoriesSheet string
	CredentialsJSON string
	CredentialsFile string
}

// SheetsSource re-encodes spreadsheet tabs as the JSON seed documents. The
// entries tab has a header row; the categories tab lists names in column A
// below a header cell.
type SheetsSource struct {
	reader          ValuesReader
	spreadsheetID   string
	entriesSheet    string
	categoriesSheet string
}

// NewSheetsSource connects to the Sheets API with service-account credentials.
func NewSheetsSource(ctx context.Context, cfg SheetsConfig) (*SheetsSource, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewSheetsSourceWithReader(sheetsValues{svc: svc}, cfg), nil
}

// NewSheetsSourceWithReader builds a source over any ValuesReader.
func NewSheetsSourceWithReader(reader ValuesReader, cfg SheetsConfig) *SheetsSource {
	entries := strings.TrimSpace(cfg.EntriesSheet)
	if entries == "" {
		entries = "Contas"
	}
	cats := strings.TrimSpace(cfg.CategoriesSheet)
	if cats == "" {
		cats = "Categorias"
	}
	return &SheetsSource{
		reader:          reader,
		spreadsheetID:   strings.TrimSpace(cfg.SpreadsheetID),
		entriesSheet:    entries,
		categoriesSheet: cats,
	}
}

func newSheetsService(ctx context.Context, cfg SheetsConfig) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service",
		"component", "bootstrap",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (s *SheetsSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	switch name {
	case EntriesResource:
		values, err := s.reader.ReadRange(ctx, s.spreadsheetID, s.entriesSheet+"!A:H")
		if err != nil {
			return nil, err
		}
		return json.Marshal(entriesFromValues(values))
	case CategoriesResource:
		values, err := s.reader.ReadRange(ctx, s.spreadsheetID, s.categoriesSheet+"!A:A")
		if err != nil {
			return nil, err
		}
		return json.Marshal(categoriesFromValues(values))
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
}

func entriesFromValues(values [][]interface{}) []map[string]any {
	out := make([]map[string]any, 0)
	if len(values) == 0 {
		return out
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	for field, names := range entryColumns {
		for _, n := range names {
			if i := indexOf(headers, n); i >= 0 {
				cols[field] = i
				break
			}
		}
	}
	for _, row := range values[1:] {
		cells := toStrings(row)
		if allBlank(cells) {
			continue
		}
		obj := map[string]any{}
		for field, i := range cols {
			v := safeGet(cells, i)
			if v == "" {
				continue
			}
			if field == "amount" {
				if amount, ok := parseSheetAmount(v); ok {
					obj[field] = amount
					continue
				}
			}
			obj[field] = v
		}
		out = append(out, obj)
	}
	return out
}

// parseSheetAmount reads "1.234,56", "R$ 10,00" or "12.5". Unparseable cells
// are kept as text and left to the lenient import.
func parseSheetAmount(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "R$"))
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
	}
	amount, err := core.ParseAmount(v)
	return amount, err == nil
}

func categoriesFromValues(values [][]interface{}) []string {
	out := make([]string, 0, len(values))
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		out = append(out, v)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
