package sales

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// Sold sums the quantity and line totals of completed and processing orders paid inside
	// [start, end]. A nil end leaves the window open. Products without sales are absent.
	Sold(ctx context.Context, ids []int64, start time.Time, end *time.Time) ([]model.SalesAggregate, error)
}
