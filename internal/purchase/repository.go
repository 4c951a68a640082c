package purchase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// Inbound sums the quantity of id on pending purchase orders, as product or as variation.
	Inbound(ctx context.Context, id int64) (float64, error)
	InboundByProducts(ctx context.Context, ids []int64) ([]model.InboundAggregate, error)
}
