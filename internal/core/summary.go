package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount float64
	Count  int
}

// Summary is the totals view over a filtered set of entries.
type Summary struct {
	Total      float64
	Count      int
	ByCategory []CategoryAmount
}

// SummarizeByCategory totals the entries matching f, overall and per category.
// Categories appear in the order they are first met in entries.
func SummarizeByCategory(entries []Entry, f Filter) Summary {
	var s Summary
	index := map[string]int{}
	for _, e := range entries {
		if !f.Match(e) {
			continue
		}
		amount := finite(e.Amount)
		s.Total += amount
		s.Count++
		i, ok := index[e.Category]
		if !ok {
			i = len(s.ByCategory)
			index[e.Category] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{Name: e.Category})
		}
		s.ByCategory[i].Amount += amount
		s.ByCategory[i].Count++
	}
	return s
}
