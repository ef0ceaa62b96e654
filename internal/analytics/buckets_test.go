package analytics

import (
	"math"
	"testing"

	"github.com/ecomdash/order-analytics/internal/models"
)

func categorizedOrders() []models.Order {
	a := order(models.SourceA, "2024-01-01", 30)
	a.ProductCategory = "Electronics"
	b := order(models.SourceB, "2024-01-01", 20)
	b.ProductCategory = "Books"
	c := order(models.SourceA, "2024-01-02", 10)
	c.ProductCategory = "Books"
	return []models.Order{a, b, c}
}

func TestCategoryBucketsConserveTotal(t *testing.T) {
	orders := categorizedOrders()
	buckets := CategoryBuckets(orders, "", MetricAmount)

	var bucketSum, orderSum float64
	for _, b := range buckets {
		bucketSum += b.Amount
	}
	for _, o := range orders {
		orderSum += o.TotalAmount
	}

	if math.Abs(bucketSum-orderSum) > 1e-9 {
		t.Fatalf("bucketed sum %v != order sum %v", bucketSum, orderSum)
	}
}

func TestCategoryBucketsSortByMetric(t *testing.T) {
	buckets := CategoryBuckets(categorizedOrders(), "", MetricAmount)

	if buckets[0].Category != "Books" || buckets[0].Amount != 30 {
		t.Errorf("by amount: first bucket = %+v", buckets[0])
	}

	buckets = CategoryBuckets(categorizedOrders(), "", MetricCount)

	if buckets[0].Category != "Books" || buckets[0].Count != 2 {
		t.Errorf("by count: first bucket = %+v", buckets[0])
	}
}

func TestCategoryBucketsKeepZeroBarsUnderSourceFilter(t *testing.T) {
	buckets := CategoryBuckets(categorizedOrders(), models.SourceB, MetricAmount)

	// Electronics only has source_a orders; it must still appear, zeroed.
	var found *CategoryBucket
	for i := range buckets {
		if buckets[i].Category == "Electronics" {
			found = &buckets[i]
		}
	}

	if found == nil {
		t.Fatal("Electronics bucket missing under source filter")
	}
	if found.Amount != 0 || found.Count != 0 {
		t.Errorf("Electronics bucket should be zero under source_b filter, got %+v", found)
	}
}

func TestDistributionMetrics(t *testing.T) {
	byCount := Distribution(categorizedOrders(), "", MetricCount)

	counts := map[string]float64{}
	for _, s := range byCount {
		counts[s.Category] = s.Value
	}
	if counts["Books"] != 2 || counts["Electronics"] != 1 {
		t.Errorf("count distribution = %v", counts)
	}

	byAmount := Distribution(categorizedOrders(), "", MetricAmount)

	amounts := map[string]float64{}
	for _, s := range byAmount {
		amounts[s.Category] = s.Value
	}
	if amounts["Books"] != 30 || amounts["Electronics"] != 30 {
		t.Errorf("amount distribution = %v", amounts)
	}
}

func TestSourceRollup(t *testing.T) {
	rollup := SourceRollup(sampleOrders())

	if len(rollup) != 2 {
		t.Fatalf("rollup length = %d, want 2", len(rollup))
	}

	a, b := rollup[0], rollup[1]

	if a.Source != models.SourceA || a.TotalAmount != 17 || a.OrderCount != 2 {
		t.Errorf("source_a rollup = %+v", a)
	}
	if math.Abs(a.AverageOrderValue-8.5) > 1e-9 {
		t.Errorf("source_a average = %v, want 8.5", a.AverageOrderValue)
	}
	if b.Source != models.SourceB || b.TotalAmount != 5 || b.OrderCount != 1 || b.AverageOrderValue != 5 {
		t.Errorf("source_b rollup = %+v", b)
	}
}

func TestSourceRollupEmptySourceIsZero(t *testing.T) {
	rollup := SourceRollup([]models.Order{order(models.SourceA, "2024-01-01", 4)})

	if rollup[1].OrderCount != 0 || rollup[1].AverageOrderValue != 0 {
		t.Errorf("absent source should be zero-valued: %+v", rollup[1])
	}
}
