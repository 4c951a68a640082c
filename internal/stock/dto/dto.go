package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/shopspring/decimal"
)

type View string

const (
	ViewAll       View = ""
	ViewInStock   View = "in_stock"
	ViewLowStock  View = "low_stock"
	ViewOutStock  View = "out_stock"
	ViewUnmanaged View = "unmanaged"
)

func (v View) Valid() bool {
	switch v {
	case ViewAll, ViewInStock, ViewLowStock, ViewOutStock, ViewUnmanaged:
		return true
	}
	return false
}

// Type filter values beyond the product types themselves.
const (
	TypeDownloadable = "downloadable"
	TypeVirtual      = "virtual"
)

// Criteria is everything a listing request can filter on. It is built once at the
// transport boundary and never read from anywhere else.
type Criteria struct {
	View        View   `json:"view,omitempty"`
	ProductType string `json:"product_type,omitempty"`
	Category    string `json:"category,omitempty"`
	SupplierID  *int64 `json:"supplier_id,omitempty"`
	Search      string `json:"search,omitempty"`
	// Uncontrolled lists the products outside inventory control. No stock
	// classification is done for them.
	Uncontrolled   bool    `json:"uncontrolled,omitempty"`
	IncludePrivate bool    `json:"include_private,omitempty"`
	Exclude        []int64 `json:"exclude,omitempty"`
	OrderBy        string  `json:"order_by,omitempty"`
	Order          string  `json:"order,omitempty"`
	Page           int     `json:"page,omitempty"`
	PerPage        int     `json:"per_page,omitempty"`
}

// Filtering reports whether the catalog is narrowed by anything but the view.
func (c *Criteria) Filtering() bool {
	return c.Search != "" || c.Category != "" || c.SupplierID != nil || c.ProductType != ""
}

type ViewCounts struct {
	All        int `json:"count_all"`
	InStock    int `json:"count_in_stock"`
	LowStock   int `json:"count_low_stock"`
	OutOfStock int `json:"count_out_stock"`
	Unmanaged  int `json:"count_unmanaged"`
}

// Classification is the partition of the candidate products into stock states.
// InStock, OutOfStock and Unmanaged are disjoint and cover every candidate;
// LowStock is a subset of InStock.
type Classification struct {
	Candidates []int64    `json:"candidates"`
	InStock    []int64    `json:"in_stock"`
	LowStock   []int64    `json:"low_stock"`
	OutOfStock []int64    `json:"out_stock"`
	Unmanaged  []int64    `json:"unmanaged"`
	Counts     ViewCounts `json:"counts"`
	Expansion  *Expansion `json:"expansion,omitempty"`
}

// IDs returns the products of a view, nil for the "all" view.
func (c *Classification) IDs(v View) []int64 {
	switch v {
	case ViewInStock:
		return c.InStock
	case ViewLowStock:
		return c.LowStock
	case ViewOutStock:
		return c.OutOfStock
	case ViewUnmanaged:
		return c.Unmanaged
	}
	return nil
}

func (c *Classification) Count(v View) int {
	switch v {
	case ViewInStock:
		return c.Counts.InStock
	case ViewLowStock:
		return c.Counts.LowStock
	case ViewOutStock:
		return c.Counts.OutOfStock
	case ViewUnmanaged:
		return c.Counts.Unmanaged
	}
	return c.Counts.All
}

// Expansion records how containers resolved to their children.
type Expansion struct {
	// AllContainers holds every container found per type, WithChildren those
	// with at least one child matching the control-filter.
	AllContainers map[model.ProductType][]int64 `json:"all_containers"`
	WithChildren  map[model.ProductType][]int64 `json:"with_children"`
	// Children maps a container to its matching children.
	Children map[int64][]int64 `json:"children"`
	// Excluded containers have no matching child and never show up.
	Excluded []int64 `json:"excluded"`
}

func NewExpansion() *Expansion {
	return &Expansion{
		AllContainers: map[model.ProductType][]int64{},
		WithChildren:  map[model.ProductType][]int64{},
		Children:      map[int64][]int64{},
	}
}

// HasContainers reports whether any container kept at least one child.
func (e *Expansion) HasContainers() bool {
	for _, ids := range e.WithChildren {
		if len(ids) > 0 {
			return true
		}
	}
	return false
}

type Indicator string

const (
	IndicatorInStock             Indicator = "in_stock"
	IndicatorLowStock            Indicator = "low_stock"
	IndicatorOutOfStock          Indicator = "out_stock"
	IndicatorOutOfStockBackorder Indicator = "out_stock_backorders"
	IndicatorUnmanagedInStock    Indicator = "unmanaged_in_stock"
	IndicatorUnmanagedOutOfStock Indicator = "unmanaged_out_stock"
	IndicatorUnmanagedBackorder  Indicator = "unmanaged_backorder"
	IndicatorContainer           Indicator = "container"
)

type StockRow struct {
	ID            int64               `json:"id"`
	ParentID      *int64              `json:"parent_id,omitempty"`
	Type          model.ProductType   `json:"type"`
	Name          string              `json:"name"`
	SKU           *string             `json:"sku,omitempty"`
	SupplierID    *int64              `json:"supplier_id,omitempty"`
	Stock         *float64            `json:"stock,omitempty"`
	StockStatus   model.StockStatus   `json:"stock_status"`
	Managed       bool                `json:"managed"`
	PurchasePrice decimal.NullDecimal `json:"purchase_price"`
	RegularPrice  decimal.NullDecimal `json:"regular_price"`
	Indicator     Indicator           `json:"indicator"`
	Inbound       float64             `json:"inbound"`
	SoldLastDays  float64             `json:"sold_last_days"`
	// LostSales and OutOfStockDays are absent when the product never ran out.
	LostSales      *decimal.Decimal `json:"lost_sales,omitempty"`
	OutOfStockDays *int             `json:"out_of_stock_days,omitempty"`
	Children       []StockRow       `json:"children,omitempty"`
}

type Pagination struct {
	TotalItems int    `json:"total_items"`
	PerPage    int    `json:"per_page"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page"`
	OrderBy    string `json:"order_by"`
	Order      string `json:"order"`
}

type Totals struct {
	Stock   float64 `json:"stock"`
	Inbound float64 `json:"inbound"`
}

type StockList struct {
	Rows       []StockRow `json:"rows"`
	Counts     ViewCounts `json:"counts"`
	Pagination Pagination `json:"pagination"`
	Totals     Totals     `json:"totals"`
}

// StockControl is the dashboard summary for the whole controlled catalog.
type StockControl struct {
	Counts ViewCounts `json:"counts"`
	// UnmanagedByStatus splits the unmanaged products by their stored stock status.
	UnmanagedByStatus map[model.StockStatus]int `json:"unmanaged_by_status"`
}

// Sold is the per-product outcome of a sales aggregation.
type Sold struct {
	Qty   float64         `json:"qty"`
	Total decimal.Decimal `json:"total"`
}

type SoldQuery struct {
	IDs   []int64    `json:"ids"`
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}
