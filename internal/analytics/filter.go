// Package analytics contains the pure aggregation pipeline over imported
// orders: filtering, dashboard stats, time-series and category bucketing,
// source rollups, and table sorting. Nothing here touches storage or mutates
// its input.
package analytics

import (
	"fmt"
	"time"

	"github.com/ecomdash/order-analytics/internal/models"
)

// DateRange is one variant of the date filter dimension.
type DateRange interface {
	// Includes reports whether an order timestamp falls inside the range.
	// now is passed in so one filtering pass sees a single boundary.
	Includes(t time.Time, now time.Time) bool
	// Key returns a stable identifier used for cache keys.
	Key() string
}

// AllTime includes every order regardless of date, valid or not.
type AllTime struct{}

func (AllTime) Includes(time.Time, time.Time) bool { return true }
func (AllTime) Key() string                        { return "all" }

// Last30Days includes orders dated within the 30 days before now. Orders
// with a zero (unparseable upstream) timestamp are excluded.
type Last30Days struct{}

func (Last30Days) Includes(t time.Time, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(now.AddDate(0, 0, -30))
}

func (Last30Days) Key() string { return "30days" }

// CustomRange includes orders between Start and End inclusive. When either
// bound is zero the range degenerates to AllTime.
type CustomRange struct {
	Start time.Time
	End   time.Time
}

func (r CustomRange) Includes(t time.Time, _ time.Time) bool {
	if r.Start.IsZero() || r.End.IsZero() {
		return true
	}
	if t.IsZero() {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r CustomRange) Key() string {
	return fmt.Sprintf("custom:%d:%d", r.Start.Unix(), r.End.Unix())
}

// Filter selects a subset of orders. The zero value matches everything:
// a nil Dates means AllTime, an empty Source or Category means "all".
type Filter struct {
	Dates    DateRange
	Source   models.Source
	Category string
}

// Match reports whether an order passes all three filter dimensions.
func (f Filter) Match(o models.Order, now time.Time) bool {
	dates := f.Dates
	if dates == nil {
		dates = AllTime{}
	}

	if !dates.Includes(o.OrderDate, now) {
		return false
	}

	if f.Source != "" && o.Source != f.Source {
		return false
	}

	if f.Category != "" && o.ProductCategory != f.Category {
		return false
	}

	return true
}

// Key returns a stable identifier for the filter, used for cache keys.
func (f Filter) Key() string {
	dates := f.Dates
	if dates == nil {
		dates = AllTime{}
	}
	return fmt.Sprintf("%s|%s|%s", dates.Key(), f.Source, f.Category)
}

// Apply returns the orders matching the filter, preserving input order.
// The boundary for relative ranges is computed once for the whole pass.
func Apply(orders []models.Order, f Filter) []models.Order {
	now := time.Now()
	out := make([]models.Order, 0, len(orders))

	for _, o := range orders {
		if f.Match(o, now) {
			out = append(out, o)
		}
	}

	return out
}
