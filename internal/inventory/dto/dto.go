package dto

import "time"

type MovementFilters struct {
	ProductID    int64
	MovementType string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

// SetStockInput overwrites the quantity of a product.
type SetStockInput struct {
	ProductID     int64
	Quantity      float64
	Reason        string
	ReferenceID   string
	ReferenceType string
	UserID        string
}

// AdjustStockInput moves the quantity of a product by QuantityChange.
type AdjustStockInput struct {
	ProductID      int64
	QuantityChange float64
	MovementType   string // adjustment, sale, receipt
	Reason         string
	ReferenceID    string
	ReferenceType  string
	UserID         string
}
