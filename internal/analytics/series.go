package analytics

import (
	"sort"

	"github.com/ecomdash/order-analytics/internal/models"
)

// TimePoint is one calendar day of the time-series chart, with each source's
// sales summed independently. A source with no orders that day reports 0.
type TimePoint struct {
	Date    string  `json:"date"`
	SourceA float64 `json:"source_a"`
	SourceB float64 `json:"source_b"`
}

// TimeSeries buckets orders by calendar day, summing total_amount per
// (day, source) cell. source narrows the input to one platform; empty means
// both. Orders without a valid date are skipped. Output ascends by day.
func TimeSeries(orders []models.Order, source models.Source) []TimePoint {
	byDate := make(map[string]*TimePoint)

	for _, o := range orders {
		if source != "" && o.Source != source {
			continue
		}
		if o.OrderDate.IsZero() {
			continue
		}

		day := o.OrderDate.Format(dateOnly)
		point, ok := byDate[day]

		if !ok {
			point = &TimePoint{Date: day}
			byDate[day] = point
		}

		switch o.Source {
		case models.SourceA:
			point.SourceA += o.TotalAmount
		case models.SourceB:
			point.SourceB += o.TotalAmount
		}
	}

	series := make([]TimePoint, 0, len(byDate))

	for _, point := range byDate {
		series = append(series, *point)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})

	return series
}
