package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	GetByProduct(ctx context.Context, productID int64) (*model.Product, error)

	// Movements / Audit
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)

	// Transaction support
	AdjustStockWithMovement(ctx context.Context, update *model.StockUpdate, movement *model.InventoryMovement) error
}
