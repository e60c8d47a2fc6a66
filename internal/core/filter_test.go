package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func entryOn(date string, amount float64) Entry {
	e := validEntry()
	e.Date = MustDate(date)
	e.Amount = amount
	return e
}

func TestFilterDateBoundsAreInclusive(t *testing.T) {
	entries := []Entry{
		entryOn("2024-01-04", 1),
		entryOn("2024-01-05", 2),
		entryOn("2024-01-06", 3),
	}
	day := MustDate("2024-01-05")

	got := Apply(entries, Filter{DateFrom: &day, DateTo: &day})

	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-05", got[0].Date.String())
}

func TestFilterOpenEndedDateRange(t *testing.T) {
	entries := []Entry{
		entryOn("2024-01-04", 1),
		entryOn("2024-01-05", 2),
		entryOn("2024-01-06", 3),
	}

	from := Apply(entries, Filter{DateFrom: ptr(MustDate("2024-01-05"))})
	to := Apply(entries, Filter{DateTo: ptr(MustDate("2024-01-05"))})

	assert.Len(t, from, 2)
	assert.Len(t, to, 2)
}

func TestFilterUndatedEntryFailsActiveDateBound(t *testing.T) {
	undated := validEntry()
	undated.Date = Date{}

	assert.True(t, Filter{}.Match(undated))
	assert.False(t, Filter{DateFrom: ptr(MustDate("2000-01-01"))}.Match(undated))
}

func TestAggregateTotal(t *testing.T) {
	entries := []Entry{
		entryOn("2024-01-01", 10),
		entryOn("2024-01-02", 20.5),
		entryOn("2024-01-03", 0),
	}

	assert.Equal(t, 30.5, AggregateTotal(entries, Filter{}))
	assert.Equal(t, 20.5, AggregateTotal(entries, Filter{AmountMin: ptr(15.0)}))
	assert.Equal(t, 30.5, AggregateTotal(entries, Filter{AmountMin: ptr(0.0)}))
	assert.Equal(t, 10.0, AggregateTotal(entries, Filter{AmountMin: ptr(10.0), AmountMax: ptr(10.0)}))
}

func TestAggregateTotalIgnoresNonFiniteAmounts(t *testing.T) {
	entries := []Entry{
		entryOn("2024-01-01", 5),
		entryOn("2024-01-02", math.NaN()),
		entryOn("2024-01-03", math.Inf(1)),
	}

	assert.Equal(t, 5.0, AggregateTotal(entries, Filter{}))
}

func TestFilterExactMatchFields(t *testing.T) {
	a := validEntry()
	a.Payer, a.PaymentMethod = "Ana", "Pix"
	b := validEntry()
	b.Payer, b.PaymentMethod = "Bruno", "Pix"
	c := validEntry()
	c.Payer, c.PaymentMethod = "ana", "Crédito"
	entries := []Entry{a, b, c}

	assert.Len(t, Apply(entries, Filter{Payer: ptr("Ana")}), 1)
	assert.Len(t, Apply(entries, Filter{PaymentMethod: ptr("Pix")}), 2)
	assert.Len(t, Apply(entries, Filter{Payer: ptr("Bruno"), PaymentMethod: ptr("Crédito")}), 0)
}

func TestApplyDoesNotTouchInput(t *testing.T) {
	entries := []Entry{entryOn("2024-01-02", 2), entryOn("2024-01-01", 1)}
	snapshot := append([]Entry(nil), entries...)
	f := Filter{AmountMax: ptr(1.0)}

	first := Apply(entries, f)
	second := Apply(entries, f)

	assert.Equal(t, snapshot, entries)
	assert.Equal(t, first, second)
	first[0].Description = "changed"
	assert.Equal(t, snapshot, entries)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(FilterInput{
		DateFrom:  "2024-01-01",
		AmountMin: "15,00",
		Payer:     "Ana",
	})
	require.NoError(t, err)
	require.NotNil(t, f.DateFrom)
	require.NotNil(t, f.AmountMin)
	require.NotNil(t, f.Payer)
	assert.Nil(t, f.DateTo)
	assert.Nil(t, f.AmountMax)
	assert.Nil(t, f.PaymentMethod)
	assert.Equal(t, 15.0, *f.AmountMin)

	empty, err := ParseFilter(FilterInput{})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = ParseFilter(FilterInput{DateTo: "31/12/2024", AmountMax: "x"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"dateTo", "amountMax"}, verr.Fields)
}

func TestSummarizeByCategory(t *testing.T) {
	food := entryOn("2024-01-01", 10)
	food.Category = "Alimentação"
	fuel := entryOn("2024-01-02", 50)
	fuel.Category = "Transporte"
	more := entryOn("2024-01-03", 5.5)
	more.Category = "Alimentação"

	s := SummarizeByCategory([]Entry{food, fuel, more}, Filter{})

	assert.Equal(t, 65.5, s.Total)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, []CategoryAmount{
		{Name: "Alimentação", Amount: 15.5, Count: 2},
		{Name: "Transporte", Amount: 50, Count: 1},
	}, s.ByCategory)
}
