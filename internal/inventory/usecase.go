package inventory

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotStockable    = errors.New("product type does not carry stock")
	ErrNotManaged      = errors.New("stock is not managed for this product")
)

type UseCase interface {
	SetStock(ctx context.Context, input *dto.SetStockInput) (*model.Product, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Product, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
