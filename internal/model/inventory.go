package model

import "time"

const (
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
	MovementReceipt    = "receipt"
)

type InventoryMovement struct {
	ID             string    `db:"id"`
	ProductID      int64     `db:"product_id"`
	MovementType   string    `db:"movement_type"`
	QuantityChange float64   `db:"quantity_change"`
	QuantityBefore *float64  `db:"quantity_before"`
	QuantityAfter  float64   `db:"quantity_after"`
	ReferenceType  *string   `db:"reference_type"`
	ReferenceID    *string   `db:"reference_id"`
	Notes          string    `db:"notes"`
	CreatedBy      *string   `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
}

// StockUpdate is the stock state written back to a product after a mutation.
type StockUpdate struct {
	ProductID    int64       `db:"id"`
	Stock        float64     `db:"stock"`
	StockStatus  StockStatus `db:"stock_status"`
	OutStockDate *time.Time  `db:"out_stock_date"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

// StockChangedEvent is published after every committed stock mutation.
type StockChangedEvent struct {
	EventID     string      `json:"event_id"`
	EventType   string      `json:"event_type"`
	ProductID   int64       `json:"product_id"`
	Before      *float64    `json:"before"`
	After       float64     `json:"after"`
	StockStatus StockStatus `json:"stock_status"`
	Timestamp   time.Time   `json:"timestamp"`
}
