package analytics

import (
	"sort"
	"time"

	"github.com/ecomdash/order-analytics/internal/models"
)

const dateOnly = "2006-01-02"

// topN limits the category and country rankings.
const topN = 5

// CategoryTotal is one row of the top-categories ranking.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// CountryTotal is one row of the top-countries ranking.
type CountryTotal struct {
	Country string  `json:"country"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
}

// DateSpan is the min/max order date across the input, formatted date-only.
// Both fields are "N/A" when no order carries a valid date.
type DateSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DashboardStats is the summary block at the top of the dashboard.
type DashboardStats struct {
	TotalSales        float64         `json:"total_sales"`
	TotalOrders       int             `json:"total_orders"`
	SourceAOrders     int             `json:"source_a_orders"`
	SourceBOrders     int             `json:"source_b_orders"`
	TotalSourceA      float64         `json:"total_source_a"`
	TotalSourceB      float64         `json:"total_source_b"`
	AverageOrderValue float64         `json:"average_order_value"`
	TopCategories     []CategoryTotal `json:"top_categories"`
	TopCountries      []CountryTotal  `json:"top_countries"`
	DateRange         DateSpan        `json:"date_range"`
}

// ComputeStats derives the dashboard summary from the given orders. Sums are
// plain float64 accumulation; rounding happens at render time, not here.
func ComputeStats(orders []models.Order) DashboardStats {
	stats := DashboardStats{
		TopCategories: []CategoryTotal{},
		TopCountries:  []CountryTotal{},
		DateRange:     DateSpan{Start: "N/A", End: "N/A"},
	}

	type totals struct {
		total float64
		count int
	}

	categoryTotals := make(map[string]*totals)
	countryTotals := make(map[string]*totals)
	var categoryOrder, countryOrder []string

	var minDate, maxDate time.Time

	for _, o := range orders {
		stats.TotalSales += o.TotalAmount
		stats.TotalOrders++

		switch o.Source {
		case models.SourceA:
			stats.SourceAOrders++
			stats.TotalSourceA += o.TotalAmount
		case models.SourceB:
			stats.SourceBOrders++
			stats.TotalSourceB += o.TotalAmount
		}

		if ct, ok := categoryTotals[o.ProductCategory]; ok {
			ct.total += o.TotalAmount
			ct.count++
		} else {
			categoryTotals[o.ProductCategory] = &totals{total: o.TotalAmount, count: 1}
			categoryOrder = append(categoryOrder, o.ProductCategory)
		}

		if ct, ok := countryTotals[o.CustomerCountry]; ok {
			ct.total += o.TotalAmount
			ct.count++
		} else {
			countryTotals[o.CustomerCountry] = &totals{total: o.TotalAmount, count: 1}
			countryOrder = append(countryOrder, o.CustomerCountry)
		}

		if !o.OrderDate.IsZero() {
			if minDate.IsZero() || o.OrderDate.Before(minDate) {
				minDate = o.OrderDate
			}
			if maxDate.IsZero() || o.OrderDate.After(maxDate) {
				maxDate = o.OrderDate
			}
		}
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalSales / float64(stats.TotalOrders)
	}

	if !minDate.IsZero() {
		stats.DateRange = DateSpan{
			Start: minDate.Format(dateOnly),
			End:   maxDate.Format(dateOnly),
		}
	}

	// Rankings are stable: ties keep first-seen input order.
	for _, category := range categoryOrder {
		t := categoryTotals[category]
		stats.TopCategories = append(stats.TopCategories, CategoryTotal{
			Category: category,
			Total:    t.total,
			Count:    t.count,
		})
	}

	sort.SliceStable(stats.TopCategories, func(i, j int) bool {
		return stats.TopCategories[i].Total > stats.TopCategories[j].Total
	})

	if len(stats.TopCategories) > topN {
		stats.TopCategories = stats.TopCategories[:topN]
	}

	for _, country := range countryOrder {
		t := countryTotals[country]
		stats.TopCountries = append(stats.TopCountries, CountryTotal{
			Country: country,
			Total:   t.total,
			Count:   t.count,
		})
	}

	sort.SliceStable(stats.TopCountries, func(i, j int) bool {
		return stats.TopCountries[i].Total > stats.TopCountries[j].Total
	})

	if len(stats.TopCountries) > topN {
		stats.TopCountries = stats.TopCountries[:topN]
	}

	return stats
}
