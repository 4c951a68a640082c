package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

// ProductFilters selects top-level catalog rows (everything except variations).
type ProductFilters struct {
	Types    []model.ProductType
	Statuses []model.PublishStatus
	// Controlled applies the control-filter when set. Containers always pass it,
	// their membership is decided by their children.
	Controlled   *bool
	CategorySlug string
	SupplierID   *int64
	Downloadable bool
	Virtual      bool
	SearchQuery  string
	// IDs restricts the result when non-nil; a non-nil empty slice matches nothing.
	IDs        []int64
	ExcludeIDs []int64
	SortBy     string // name, sku, stock, purchase_price, regular_price, id, date
	SortOrder  string // asc, desc
	Page       int
	PageSize   int // <= 0 disables paging
}

// ChildFilters selects the children of a set of containers.
type ChildFilters struct {
	ParentType model.ProductType
	ParentIDs  []int64
	Statuses   []model.PublishStatus
	Controlled bool
	SupplierID *int64
}
