package analytics

import (
	"testing"

	"github.com/ecomdash/order-analytics/internal/models"
)

func sortableOrders() []models.Order {
	a := order(models.SourceA, "2024-01-03", 30)
	a.ProductName = "banana stand"
	a.Quantity = 1
	b := order(models.SourceB, "2024-01-01", 10)
	b.ProductName = "Apple crate"
	b.Quantity = 3
	c := order(models.SourceA, "2024-01-02", 20)
	c.ProductName = "cherry box"
	c.Quantity = 2
	return []models.Order{a, b, c}
}

func TestSortOrdersByNumericField(t *testing.T) {
	got := SortOrders(sortableOrders(), "total_amount", Ascending)

	if got[0].TotalAmount != 10 || got[2].TotalAmount != 30 {
		t.Errorf("ascending amounts = %v %v %v", got[0].TotalAmount, got[1].TotalAmount, got[2].TotalAmount)
	}
}

func TestSortOrdersByDate(t *testing.T) {
	got := SortOrders(sortableOrders(), "order_date", Descending)

	for i := 1; i < len(got); i++ {
		if got[i].OrderDate.After(got[i-1].OrderDate) {
			t.Fatal("descending date sort out of order")
		}
	}
}

func TestSortOrdersStringIsCaseInsensitive(t *testing.T) {
	got := SortOrders(sortableOrders(), "product_name", Ascending)

	// Locale-aware collation puts "Apple crate" before "banana stand"
	// despite the uppercase A.
	if got[0].ProductName != "Apple crate" {
		t.Errorf("first product = %q, want Apple crate", got[0].ProductName)
	}
}

func TestSortOrdersOppositeDirectionsReverse(t *testing.T) {
	orders := sortableOrders()
	asc := SortOrders(orders, "quantity", Ascending)
	desc := SortOrders(orders, "quantity", Descending)

	for i := range asc {
		if asc[i].ID != desc[len(desc)-1-i].ID {
			t.Fatalf("desc is not the reverse of asc at %d", i)
		}
	}
}

func TestSortOrdersUnknownFieldIsStablePassthrough(t *testing.T) {
	orders := sortableOrders()
	got := SortOrders(orders, "status", Ascending)

	for i := range orders {
		if got[i].ID != orders[i].ID {
			t.Fatalf("unknown field reordered input at %d", i)
		}
	}
}

func TestSortOrdersDoesNotMutateInput(t *testing.T) {
	orders := sortableOrders()
	firstID := orders[0].ID

	SortOrders(orders, "total_amount", Ascending)

	if orders[0].ID != firstID {
		t.Fatal("SortOrders mutated its input")
	}
}
