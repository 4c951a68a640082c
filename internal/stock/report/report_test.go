package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// pagedStock serves a fixed set of rows two per page.
type pagedStock struct {
	rows  []dto.StockRow
	pages []int
	err   error
}

func (s *pagedStock) List(_ context.Context, c *dto.Criteria) (*dto.StockList, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.pages = append(s.pages, c.Page)
	const per = 2
	start := (c.Page - 1) * per
	end := start + per
	if end > len(s.rows) {
		end = len(s.rows)
	}
	var stock float64
	for _, r := range s.rows[start:end] {
		if r.Stock != nil {
			stock += *r.Stock
		}
		for _, c := range r.Children {
			stock += *c.Stock
		}
	}
	return &dto.StockList{
		Rows:       s.rows[start:end],
		Counts:     dto.ViewCounts{All: 4, InStock: 2, OutOfStock: 1, Unmanaged: 1},
		Pagination: dto.Pagination{TotalPages: (len(s.rows) + per - 1) / per},
		Totals:     dto.Totals{Stock: stock},
	}, nil
}

func (s *pagedStock) Classify(context.Context, *dto.Criteria) (*dto.Classification, error) {
	return nil, nil
}
func (s *pagedStock) StockControl(context.Context, bool) (*dto.StockControl, error) { return nil, nil }
func (s *pagedStock) Sold(context.Context, []int64, time.Time, *time.Time) (map[int64]dto.Sold, error) {
	return nil, nil
}
func (s *pagedStock) Inbound(context.Context, int64) (float64, error) { return 0, nil }
func (s *pagedStock) LostSales(context.Context, int64, int) (*decimal.Decimal, error) {
	return nil, nil
}
func (s *pagedStock) OutOfStockDays(context.Context, int64) (*int, error) {
	return nil, nil
}
func (s *pagedStock) FlushCache(context.Context) (int, error) {
	return 0, nil
}

func ptr[T any](v T) *T { return &v }

func TestExporter_Write(t *testing.T) {
	lost := decimal.RequireFromString("12.5")
	uc := &pagedStock{rows: []dto.StockRow{
		{ID: 1, Type: model.TypeSimple, Name: "Mug", SKU: ptr("MUG-1"), Stock: ptr(4.0), Indicator: dto.IndicatorInStock, Inbound: 6},
		{ID: 2, Type: model.TypeSimple, Name: "Cup", Stock: ptr(0.0), Indicator: dto.IndicatorOutOfStock, LostSales: &lost, OutOfStockDays: ptr(3)},
		{ID: 10, Type: model.TypeVariable, Name: "Shirt", Indicator: dto.IndicatorContainer, Children: []dto.StockRow{
			{ID: 11, ParentID: ptr(int64(10)), Type: model.TypeVariation, Name: "Shirt M", Stock: ptr(2.0), Indicator: dto.IndicatorLowStock},
		}},
	}}

	var buf bytes.Buffer
	n, err := NewExporter(uc).Write(context.Background(), dto.Criteria{View: dto.ViewAll}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []int{1, 2}, uc.pages)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(stockSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "MUG-1", rows[1][3])
	assert.Equal(t, "12.5", rows[2][12])
	assert.Equal(t, "3", rows[2][13])
	assert.Equal(t, "container", rows[3][9])
	assert.Equal(t, "10", rows[4][1])
	assert.Equal(t, "Total", rows[5][0])
	assert.Equal(t, "6", rows[5][8])

	counts, err := f.GetRows(countsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "4"}, counts[1])
}

func TestExporter_ListError(t *testing.T) {
	_, err := NewExporter(&pagedStock{err: errors.New("db down")}).Write(context.Background(), dto.Criteria{}, &bytes.Buffer{})
	require.Error(t, err)
}
