package models

import (
	"time"
)

// Source identifies the upstream platform an order was imported from.
type Source string

const (
	SourceA Source = "source_a"
	SourceB Source = "source_b"
)

// Sources lists the fixed set of upstream platforms.
var Sources = []Source{SourceA, SourceB}

// Order represents one imported sales line item. Orders are immutable once
// imported; the analytics layer only reads them.
type Order struct {
	ID                 string    `db:"id" json:"id"`
	TaskID             string    `db:"task_id" json:"task_id"`
	OrderID            string    `db:"order_id" json:"order_id"`
	Source             Source    `db:"source" json:"source"`
	ProductName        string    `db:"product_name" json:"product_name"`
	ProductCategory    string    `db:"product_category" json:"product_category"`
	Quantity           int       `db:"quantity" json:"quantity"`
	UnitPrice          float64   `db:"unit_price" json:"unit_price"`
	TotalAmount        float64   `db:"total_amount" json:"total_amount"`
	OrderDate          time.Time `db:"order_date" json:"order_date"`
	CustomerID         string    `db:"customer_id" json:"customer_id"`
	CustomerCountry    string    `db:"customer_country" json:"customer_country"`
	SourceSpecificData string    `db:"source_specific_data" json:"source_specific_data"`
}

// NewOrder creates an order record for a task from fields parsed out of an
// upstream payload. TotalAmount is trusted as given by the source and is not
// re-derived from Quantity*UnitPrice.
func NewOrder(taskID string, source Source, orderID string) *Order {
	return &Order{
		ID:      GenerateID("ord"),
		TaskID:  taskID,
		Source:  source,
		OrderID: orderID,
	}
}
