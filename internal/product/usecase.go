package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	// SearchProductIDs resolves a free-text term to product ids through the search index.
	SearchProductIDs(ctx context.Context, term string) ([]int64, error)
	// Reindex pushes the whole catalog to the search index and returns how many documents were written.
	Reindex(ctx context.Context) (int, error)
}
