package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/shopspring/decimal"
)

func (uc *stockUseCase) Sold(ctx context.Context, ids []int64, start time.Time, end *time.Time) (map[int64]dto.Sold, error) {
	out := map[int64]dto.Sold{}
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := uc.sales.Sold(ctx, unique(ids), start, end)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		s := out[r.ProductID]
		s.Qty += r.Qty
		s.Total = s.Total.Add(r.Total)
		out[r.ProductID] = s
	}
	return out, nil
}

func (uc *stockUseCase) Inbound(ctx context.Context, id int64) (float64, error) {
	return uc.purchases.Inbound(ctx, id)
}

func (uc *stockUseCase) LostSales(ctx context.Context, id int64, windowDays int) (*decimal.Decimal, error) {
	if windowDays <= 0 {
		return nil, nil
	}
	p, err := uc.products.FindByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return uc.lostSales(ctx, p, windowDays)
}

// lostSales estimates the revenue missed while p is out of stock, at the sales rate of
// the windowDays before it ran out.
func (uc *stockUseCase) lostSales(ctx context.Context, p *model.Product, windowDays int) (*decimal.Decimal, error) {
	days := uc.daysOutOfStock(p)
	if days == nil || windowDays <= 0 {
		return nil, nil
	}

	outSince := *p.OutStockDate
	sold, err := uc.Sold(ctx, []int64{p.ID}, outSince.AddDate(0, 0, -windowDays), &outSince)
	if err != nil {
		return nil, err
	}

	estimate := decimal.Zero
	s, ok := sold[p.ID]
	if !ok || s.Qty <= 0 {
		return &estimate, nil
	}

	price := decimal.Zero
	if p.RegularPrice.Valid {
		price = p.RegularPrice.Decimal
	}
	estimate = decimal.NewFromInt(int64(*days)).
		Mul(decimal.NewFromFloat(s.Qty)).
		Div(decimal.NewFromInt(int64(windowDays))).
		Mul(price)
	return &estimate, nil
}

func (uc *stockUseCase) OutOfStockDays(ctx context.Context, id int64) (*int, error) {
	p, err := uc.products.FindByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return uc.daysOutOfStock(p), nil
}

// daysOutOfStock counts the whole days elapsed since the recorded out-of-stock date.
func (uc *stockUseCase) daysOutOfStock(p *model.Product) *int {
	if p.OutStockDate == nil {
		return nil
	}
	days := int(uc.now().Sub(*p.OutStockDate) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return &days
}

func (uc *stockUseCase) StockControl(ctx context.Context, includePrivate bool) (*dto.StockControl, error) {
	ctx, span := uc.tracer.Start(ctx, "stock.StockControl")
	defer span.End()

	cls, err := uc.Classify(ctx, &dto.Criteria{IncludePrivate: includePrivate})
	if err != nil {
		return nil, err
	}

	unmanaged, err := uc.products.Unmanaged(ctx, publishStatuses(includePrivate))
	if err != nil {
		return nil, err
	}
	byStatus := map[model.StockStatus]int{
		model.StatusInStock:     0,
		model.StatusOutOfStock:  0,
		model.StatusOnBackorder: 0,
	}
	for _, u := range unmanaged {
		byStatus[u.StockStatus]++
	}

	return &dto.StockControl{Counts: cls.Counts, UnmanagedByStatus: byStatus}, nil
}
