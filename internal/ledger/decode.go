package ledger

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"contas/internal/core"
)

// fieldAliases lists the accepted keys per entry field, preferred first. The
// Portuguese keys are those written by the earlier browser version.
var fieldAliases = struct {
	id, date, description, location, category, payer, paymentMethod, amount []string
}{
	id:            []string{"id"},
	date:          []string{"date", "data"},
	description:   []string{"description", "descricao"},
	location:      []string{"location", "local"},
	category:      []string{"category", "categoria"},
	payer:         []string{"payer", "quemPagou"},
	paymentMethod: []string{"paymentMethod", "metodoPagamento"},
	amount:        []string{"amount", "valor"},
}

// decodeEntries decodes a JSON array of entry-like objects. Only the shape of
// the document is enforced: wrong-typed fields fall back to their zero value
// and elements that are not objects become empty entries.
func decodeEntries(data []byte) ([]core.Entry, error) {
	items, err := decodeArray(data)
	if err != nil {
		return nil, err
	}
	entries := make([]core.Entry, 0, len(items))
	for _, raw := range items {
		entries = append(entries, decodeEntry(raw))
	}
	return entries, nil
}

func decodeEntry(raw json.RawMessage) core.Entry {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return core.Entry{}
	}
	pick := func(keys []string) json.RawMessage {
		for _, k := range keys {
			if v, ok := fields[k]; ok {
				return v
			}
		}
		return nil
	}

	e := core.Entry{
		ID:            textValue(pick(fieldAliases.id)),
		Description:   textValue(pick(fieldAliases.description)),
		Location:      textValue(pick(fieldAliases.location)),
		Category:      textValue(pick(fieldAliases.category)),
		Payer:         textValue(pick(fieldAliases.payer)),
		PaymentMethod: textValue(pick(fieldAliases.paymentMethod)),
		Amount:        numberValue(pick(fieldAliases.amount)),
	}
	if d, err := core.ParseDate(textValue(pick(fieldAliases.date))); err == nil {
		e.Date = d
	}
	return e
}

// textValue returns strings as-is and the literal text of numbers and
// booleans. Null, objects and arrays yield "".
func textValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// numberValue accepts JSON numbers and numeric strings; anything else is 0.
func numberValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// decodeNames decodes a JSON array of category names, keeping trimmed
// non-blank strings and dropping case-insensitive duplicates.
func decodeNames(data []byte) ([]string, error) {
	items, err := decodeArray(data)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, raw := range items {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := foldName(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
