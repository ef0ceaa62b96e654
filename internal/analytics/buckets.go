package analytics

import (
	"sort"

	"github.com/ecomdash/order-analytics/internal/models"
)

// Metric selects which value a category chart is ranked or sized by.
type Metric string

const (
	MetricAmount Metric = "amount"
	MetricCount  Metric = "count"
)

// CategoryBucket is one bar of the per-category chart.
type CategoryBucket struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// CategoryBuckets groups orders by product category, summing amounts and
// counting orders, optionally narrowed to one source. Every category present
// in the input appears in the output, so narrowing to a source keeps
// zero-valued bars for categories the other source owns. Sorted descending
// by the chosen metric, ties stable.
func CategoryBuckets(orders []models.Order, source models.Source, sortBy Metric) []CategoryBucket {
	byCategory := make(map[string]*CategoryBucket)
	var order []string

	for _, o := range orders {
		bucket, ok := byCategory[o.ProductCategory]

		if !ok {
			bucket = &CategoryBucket{Category: o.ProductCategory}
			byCategory[o.ProductCategory] = bucket
			order = append(order, o.ProductCategory)
		}

		if source != "" && o.Source != source {
			continue
		}

		bucket.Amount += o.TotalAmount
		bucket.Count++
	}

	buckets := make([]CategoryBucket, 0, len(order))

	for _, category := range order {
		buckets = append(buckets, *byCategory[category])
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if sortBy == MetricCount {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Amount > buckets[j].Amount
	})

	return buckets
}

// DistributionSlice is one slice of the category proportion chart.
type DistributionSlice struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// Distribution groups orders by category only, producing either the order
// count or the summed amount per category for a proportion chart. Slices
// keep first-seen category order.
func Distribution(orders []models.Order, source models.Source, metric Metric) []DistributionSlice {
	byCategory := make(map[string]*DistributionSlice)
	var order []string

	for _, o := range orders {
		slice, ok := byCategory[o.ProductCategory]

		if !ok {
			slice = &DistributionSlice{Category: o.ProductCategory}
			byCategory[o.ProductCategory] = slice
			order = append(order, o.ProductCategory)
		}

		if source != "" && o.Source != source {
			continue
		}

		if metric == MetricCount {
			slice.Value++
		} else {
			slice.Value += o.TotalAmount
		}
	}

	slices := make([]DistributionSlice, 0, len(order))

	for _, category := range order {
		slices = append(slices, *byCategory[category])
	}

	return slices
}

// SourcePerformance is the rollup of one upstream platform.
type SourcePerformance struct {
	Source            models.Source `json:"source"`
	TotalAmount       float64       `json:"total_amount"`
	OrderCount        int           `json:"order_count"`
	AverageOrderValue float64       `json:"average_order_value"`
}

// SourceRollup groups orders by source, computing total sales, order count
// and average order value per platform. Both fixed sources always appear,
// zero-valued when absent from the input.
func SourceRollup(orders []models.Order) []SourcePerformance {
	rollup := make([]SourcePerformance, len(models.Sources))

	for i, s := range models.Sources {
		rollup[i].Source = s
	}

	index := map[models.Source]int{models.SourceA: 0, models.SourceB: 1}

	for _, o := range orders {
		i, ok := index[o.Source]

		if !ok {
			continue
		}

		rollup[i].TotalAmount += o.TotalAmount
		rollup[i].OrderCount++
		rollup[i].AverageOrderValue = rollup[i].TotalAmount / float64(rollup[i].OrderCount)
	}

	return rollup
}
