package analytics

import (
	"testing"
	"time"

	"github.com/ecomdash/order-analytics/internal/models"
)

func TestFilterZeroValueMatchesEverything(t *testing.T) {
	orders := sampleOrders()

	got := Apply(orders, Filter{})

	if len(got) != len(orders) {
		t.Fatalf("zero filter kept %d of %d orders", len(got), len(orders))
	}
}

func TestFilterLast30Days(t *testing.T) {
	now := time.Now()
	recent := models.Order{OrderDate: now.AddDate(0, 0, -5), Source: models.SourceA}
	old := models.Order{OrderDate: now.AddDate(0, 0, -45), Source: models.SourceA}

	got := Apply([]models.Order{recent, old}, Filter{Dates: Last30Days{}})

	if len(got) != 1 {
		t.Fatalf("kept %d orders, want 1", len(got))
	}
	if !got[0].OrderDate.Equal(recent.OrderDate) {
		t.Error("wrong order survived the 30-day window")
	}
}

func TestFilterExcludesInvalidDates(t *testing.T) {
	invalid := models.Order{Source: models.SourceA} // zero OrderDate

	if len(Apply([]models.Order{invalid}, Filter{Dates: Last30Days{}})) != 0 {
		t.Error("zero date must not pass Last30Days")
	}

	custom := CustomRange{Start: day("2024-01-01"), End: day("2024-12-31")}
	if len(Apply([]models.Order{invalid}, Filter{Dates: custom})) != 0 {
		t.Error("zero date must not pass a bounded custom range")
	}

	if len(Apply([]models.Order{invalid}, Filter{Dates: AllTime{}})) != 1 {
		t.Error("all-time must include orders regardless of date validity")
	}
}

func TestCustomRangeInclusiveBounds(t *testing.T) {
	f := Filter{Dates: CustomRange{Start: day("2024-01-01"), End: day("2024-01-02")}}

	got := Apply(sampleOrders(), f)

	if len(got) != 3 {
		t.Fatalf("inclusive bounds kept %d orders, want 3", len(got))
	}
}

func TestCustomRangeMissingBoundDegeneratesToAll(t *testing.T) {
	f := Filter{Dates: CustomRange{Start: day("2024-01-01")}} // no End

	got := Apply(sampleOrders(), f)

	if len(got) != 3 {
		t.Fatalf("open-ended custom range kept %d orders, want all 3", len(got))
	}
}

func TestFilterSourceAllEqualsUnionOfSources(t *testing.T) {
	orders := sampleOrders()

	all := Apply(orders, Filter{})
	a := Apply(orders, Filter{Source: models.SourceA})
	b := Apply(orders, Filter{Source: models.SourceB})

	if len(all) != len(a)+len(b) {
		t.Fatalf("union mismatch: all=%d a=%d b=%d", len(all), len(a), len(b))
	}

	seen := make(map[string]bool)
	for _, o := range append(a, b...) {
		if seen[o.ID] {
			t.Fatalf("order %s appears in both per-source results", o.ID)
		}
		seen[o.ID] = true
	}
	for _, o := range all {
		if !seen[o.ID] {
			t.Fatalf("order %s missing from the per-source union", o.ID)
		}
	}
}

func TestFilterCategory(t *testing.T) {
	a := order(models.SourceA, "2024-01-01", 1)
	a.ProductCategory = "Books"
	b := order(models.SourceA, "2024-01-01", 2)

	got := Apply([]models.Order{a, b}, Filter{Category: "Books"})

	if len(got) != 1 || got[0].ProductCategory != "Books" {
		t.Fatalf("category filter kept %v", got)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	orders := sampleOrders()
	before := make([]models.Order, len(orders))
	copy(before, orders)

	Apply(orders, Filter{Source: models.SourceA})

	for i := range orders {
		if orders[i] != before[i] {
			t.Fatal("Apply mutated its input")
		}
	}
}

func TestFilterKeyDistinguishesConfigurations(t *testing.T) {
	keys := map[string]bool{
		Filter{}.Key():                          true,
		Filter{Dates: Last30Days{}}.Key():       true,
		Filter{Source: models.SourceA}.Key():    true,
		Filter{Category: "Books"}.Key():         true,
		Filter{Dates: CustomRange{Start: day("2024-01-01"), End: day("2024-02-01")}}.Key(): true,
	}

	if len(keys) != 5 {
		t.Fatalf("filter keys collide: %v", keys)
	}
}
