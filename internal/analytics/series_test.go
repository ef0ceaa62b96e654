package analytics

import (
	"testing"

	"github.com/ecomdash/order-analytics/internal/models"
)

func TestTimeSeriesBucketsPerDayAndSource(t *testing.T) {
	series := TimeSeries(sampleOrders(), "")

	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}

	first := series[0]
	if first.Date != "2024-01-01" || first.SourceA != 10 || first.SourceB != 5 {
		t.Errorf("first point = %+v, want {2024-01-01 10 5}", first)
	}

	second := series[1]
	if second.Date != "2024-01-02" || second.SourceA != 7 || second.SourceB != 0 {
		t.Errorf("second point = %+v, want {2024-01-02 7 0}", second)
	}
}

func TestTimeSeriesNoCrossContamination(t *testing.T) {
	orders := []models.Order{
		order(models.SourceA, "2024-03-01", 11),
		order(models.SourceB, "2024-03-01", 13),
	}

	series := TimeSeries(orders, "")

	if len(series) != 1 {
		t.Fatalf("series length = %d, want 1", len(series))
	}
	if series[0].SourceA != 11 || series[0].SourceB != 13 {
		t.Errorf("sums crossed sources: %+v", series[0])
	}
}

func TestTimeSeriesSourceFilter(t *testing.T) {
	series := TimeSeries(sampleOrders(), models.SourceA)

	for _, p := range series {
		if p.SourceB != 0 {
			t.Errorf("source_b leaked into filtered series: %+v", p)
		}
	}
}

func TestTimeSeriesSkipsInvalidDates(t *testing.T) {
	orders := []models.Order{
		{Source: models.SourceA, TotalAmount: 9}, // zero date
		order(models.SourceA, "2024-03-02", 1),
	}

	series := TimeSeries(orders, "")

	if len(series) != 1 || series[0].Date != "2024-03-02" {
		t.Fatalf("series = %+v, want only the dated order", series)
	}
}

func TestTimeSeriesAscending(t *testing.T) {
	orders := []models.Order{
		order(models.SourceA, "2024-03-05", 1),
		order(models.SourceA, "2024-03-01", 1),
		order(models.SourceA, "2024-03-03", 1),
	}

	series := TimeSeries(orders, "")

	for i := 1; i < len(series); i++ {
		if series[i].Date < series[i-1].Date {
			t.Fatalf("series not ascending: %+v", series)
		}
	}
}
