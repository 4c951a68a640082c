package stock

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/shopspring/decimal"
)

type UseCase interface {
	// Classify partitions the products matching c into stock states.
	Classify(ctx context.Context, c *dto.Criteria) (*dto.Classification, error)
	// List returns one page of the view selected by c, with the view counts.
	List(ctx context.Context, c *dto.Criteria) (*dto.StockList, error)
	StockControl(ctx context.Context, includePrivate bool) (*dto.StockControl, error)

	Sold(ctx context.Context, ids []int64, start time.Time, end *time.Time) (map[int64]dto.Sold, error)
	Inbound(ctx context.Context, id int64) (float64, error)
	// LostSales returns nil when the product has no out-of-stock date.
	LostSales(ctx context.Context, id int64, windowDays int) (*decimal.Decimal, error)
	// OutOfStockDays returns nil when the product has no out-of-stock date.
	OutOfStockDays(ctx context.Context, id int64) (*int, error)

	FlushCache(ctx context.Context) (int, error)
}
