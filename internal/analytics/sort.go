package analytics

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ecomdash/order-analytics/internal/models"
)

// Direction selects ascending or descending table order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindDate
)

type sortField struct {
	kind fieldKind
	str  func(models.Order) string
	num  func(models.Order) float64
}

// sortFields is the exhaustive field table: every sortable column maps to a
// kind and an accessor. Fields absent here produce a documented stable
// passthrough instead of silently comparing mismatched types.
var sortFields = map[string]sortField{
	"order_id":         {kind: kindString, str: func(o models.Order) string { return o.OrderID }},
	"product_name":     {kind: kindString, str: func(o models.Order) string { return o.ProductName }},
	"product_category": {kind: kindString, str: func(o models.Order) string { return o.ProductCategory }},
	"customer_id":      {kind: kindString, str: func(o models.Order) string { return o.CustomerID }},
	"customer_country": {kind: kindString, str: func(o models.Order) string { return o.CustomerCountry }},
	"source":           {kind: kindString, str: func(o models.Order) string { return string(o.Source) }},
	"quantity":         {kind: kindNumber, num: func(o models.Order) float64 { return float64(o.Quantity) }},
	"unit_price":       {kind: kindNumber, num: func(o models.Order) float64 { return o.UnitPrice }},
	"total_amount":     {kind: kindNumber, num: func(o models.Order) float64 { return o.TotalAmount }},
	"order_date":       {kind: kindDate},
}

// SortOrders returns a copy of orders sorted by the named field. String
// fields compare locale-aware, numeric fields by value, order_date by
// timestamp. An unknown field returns the input order unchanged.
func SortOrders(orders []models.Order, field string, dir Direction) []models.Order {
	out := make([]models.Order, len(orders))
	copy(out, orders)

	f, ok := sortFields[field]

	if !ok {
		return out
	}

	var less func(a, b models.Order) bool

	switch f.kind {
	case kindString:
		c := collate.New(language.English)
		less = func(a, b models.Order) bool {
			return c.CompareString(f.str(a), f.str(b)) < 0
		}
	case kindNumber:
		less = func(a, b models.Order) bool {
			return f.num(a) < f.num(b)
		}
	case kindDate:
		less = func(a, b models.Order) bool {
			return a.OrderDate.Before(b.OrderDate)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if dir == Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	return out
}

// SortableFields lists the supported sort columns.
func SortableFields() []string {
	fields := make([]string, 0, len(sortFields))
	for name := range sortFields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
