package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// Catalog queries
	FindIDs(ctx context.Context, filters *dto.ProductFilters) ([]int64, error)
	FindPage(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)

	// Hierarchy
	FindChildren(ctx context.Context, filters *dto.ChildFilters) ([]model.ChildLink, error)
	FindParents(ctx context.Context, childIDs []int64) ([]model.ChildLink, error)

	// Stock partitions, always restricted to ids
	UnmanagedIDs(ctx context.Context, ids []int64) ([]int64, error)
	InStock(ctx context.Context, ids []int64) ([]model.StockLevel, error)

	// Unmanaged lists every non-container product whose stock is not tracked, with its stored status.
	Unmanaged(ctx context.Context, statuses []model.PublishStatus) ([]model.UnmanagedProduct, error)
}
