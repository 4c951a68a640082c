package model

import "github.com/shopspring/decimal"

const (
	OrderProcessing = "processing"
	OrderCompleted  = "completed"

	PurchaseOrderPending  = "pending"
	PurchaseOrderReceived = "received"
)

// SalesAggregate is the quantity and money sold for one product inside a date window.
type SalesAggregate struct {
	ProductID int64           `db:"product_id" json:"product_id"`
	Qty       float64         `db:"qty" json:"qty"`
	Total     decimal.Decimal `db:"total" json:"total"`
}

// InboundAggregate is the quantity still pending on purchase orders for one product.
type InboundAggregate struct {
	ProductID int64   `db:"product_id" json:"product_id"`
	Qty       float64 `db:"qty" json:"qty"`
}
