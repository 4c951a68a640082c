package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	TypeSimple      ProductType = "simple"
	TypeVariable    ProductType = "variable"
	TypeGrouped     ProductType = "grouped"
	TypeVariation   ProductType = "variation"
	TypeGroupedItem ProductType = "grouped-item"
)

// ContainerTypes never carry stock themselves; only their children do.
var ContainerTypes = []ProductType{TypeVariable, TypeGrouped}

func (t ProductType) IsContainer() bool {
	return t == TypeVariable || t == TypeGrouped
}

func (t ProductType) IsChild() bool {
	return t == TypeVariation || t == TypeGroupedItem
}

// ChildType is the product type of the children a container expands to.
func (t ProductType) ChildType() ProductType {
	switch t {
	case TypeVariable:
		return TypeVariation
	case TypeGrouped:
		return TypeGroupedItem
	}
	return ""
}

// ManageFlag is the tri-state "stock is tracked" switch of a product.
type ManageFlag string

const (
	ManageYes    ManageFlag = "yes"
	ManageNo     ManageFlag = "no"
	ManageParent ManageFlag = "parent"
)

type StockStatus string

const (
	StatusInStock     StockStatus = "instock"
	StatusOutOfStock  StockStatus = "outofstock"
	StatusOnBackorder StockStatus = "onbackorder"
)

type PublishStatus string

const (
	StatusPublish PublishStatus = "publish"
	StatusPrivate PublishStatus = "private"
)

type Product struct {
	ID             int64               `db:"id" json:"id"`
	ParentID       *int64              `db:"parent_id" json:"parent_id"`
	Type           ProductType         `db:"type" json:"type"`
	Status         PublishStatus       `db:"status" json:"status"`
	Name           string              `db:"name" json:"name"`
	SKU            *string             `db:"sku" json:"sku"`
	Controlled     bool                `db:"controlled" json:"controlled"`
	ManageStock    *ManageFlag         `db:"manage_stock" json:"manage_stock"`
	Stock          *float64            `db:"stock" json:"stock"`
	StockStatus    StockStatus         `db:"stock_status" json:"stock_status"`
	Backorders     bool                `db:"backorders" json:"backorders"`
	OutStockDate   *time.Time          `db:"out_stock_date" json:"out_stock_date"`
	RegularPrice   decimal.NullDecimal `db:"regular_price" json:"regular_price"`
	PurchasePrice  decimal.NullDecimal `db:"purchase_price" json:"purchase_price"`
	SupplierID     *int64              `db:"supplier_id" json:"supplier_id"`
	IsDownloadable bool                `db:"is_downloadable" json:"is_downloadable"`
	IsVirtual      bool                `db:"is_virtual" json:"is_virtual"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// ManagingStock reports whether stock is tracked for p. A "parent" flag inherits the
// parent's own flag; a missing flag means not managed.
func (p *Product) ManagingStock(parent *Product) bool {
	if p.ManageStock == nil {
		return false
	}
	switch *p.ManageStock {
	case ManageYes:
		return true
	case ManageParent:
		return parent != nil && parent.ManageStock != nil && *parent.ManageStock == ManageYes
	}
	return false
}

func (p *Product) StockQuantity() float64 {
	if p.Stock == nil {
		return 0
	}
	return *p.Stock
}

// StockLevel is the current quantity of a product with stock above zero.
type StockLevel struct {
	ID    int64   `db:"id"`
	Stock float64 `db:"stock"`
}

// ChildLink ties a variation or grouped item to the container it was resolved from.
type ChildLink struct {
	ID       int64 `db:"id"`
	ParentID int64 `db:"parent_id"`
}

// UnmanagedProduct carries the stored stock status of a product whose stock is not tracked.
type UnmanagedProduct struct {
	ID          int64       `db:"id"`
	StockStatus StockStatus `db:"stock_status"`
}
