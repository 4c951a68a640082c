package handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubUseCase struct {
	criteria       *dto.Criteria
	includePrivate bool
	window         int
	err            error
}

func (s *stubUseCase) Classify(_ context.Context, c *dto.Criteria) (*dto.Classification, error) {
	s.criteria = c
	if s.err != nil {
		return nil, s.err
	}
	return &dto.Classification{Counts: dto.ViewCounts{All: 3, InStock: 2, LowStock: 1, OutOfStock: 1}}, nil
}

func (s *stubUseCase) List(_ context.Context, c *dto.Criteria) (*dto.StockList, error) {
	s.criteria = c
	if s.err != nil {
		return nil, s.err
	}
	return &dto.StockList{
		Rows:       []dto.StockRow{{ID: 1, Name: "Mug", Indicator: dto.IndicatorLowStock}},
		Counts:     dto.ViewCounts{All: 1, InStock: 1, LowStock: 1},
		Pagination: dto.Pagination{TotalItems: 1, PerPage: 20, TotalPages: 1, Page: 1},
	}, nil
}

func (s *stubUseCase) StockControl(_ context.Context, includePrivate bool) (*dto.StockControl, error) {
	s.includePrivate = includePrivate
	return &dto.StockControl{
		Counts:            dto.ViewCounts{All: 2, Unmanaged: 1, InStock: 1},
		UnmanagedByStatus: map[model.StockStatus]int{model.StatusInStock: 1},
	}, nil
}

func (s *stubUseCase) Sold(_ context.Context, ids []int64, _ time.Time, _ *time.Time) (map[int64]dto.Sold, error) {
	out := map[int64]dto.Sold{}
	for _, id := range ids {
		out[id] = dto.Sold{Qty: float64(id), Total: decimal.NewFromInt(id * 10)}
	}
	return out, nil
}

func (s *stubUseCase) Inbound(_ context.Context, id int64) (float64, error) {
	return float64(id) * 2, nil
}

func (s *stubUseCase) LostSales(_ context.Context, id int64, windowDays int) (*decimal.Decimal, error) {
	s.window = windowDays
	if id != 7 {
		return nil, nil
	}
	v := decimal.RequireFromString("12.5")
	return &v, nil
}

func (s *stubUseCase) OutOfStockDays(_ context.Context, id int64) (*int, error) {
	if id != 7 {
		return nil, nil
	}
	d := 3
	return &d, nil
}

func (s *stubUseCase) FlushCache(context.Context) (int, error) {
	return 4, nil
}

func newClient(t *testing.T, uc stock.UseCase) *StockClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(middleware.ContextInterceptor(logger.NewNop())))
	RegisterStockServiceServer(srv, NewStockHandler(uc, 7, logger.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewStockClient(conn)
}

func withCaps(caps string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "x-capabilities", caps)
}

func TestListStock(t *testing.T) {
	uc := &stubUseCase{}
	client := newClient(t, uc)

	resp, err := client.ListStock(withCaps("edit_private_products"), &ListStockRequest{
		CriteriaRequest: CriteriaRequest{View: dto.ViewLowStock, Search: "mug", Exclude: []int64{9}},
		OrderBy:         "name",
		Order:           "asc",
		Page:            2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	assert.Equal(t, dto.IndicatorLowStock, resp.Rows[0].Indicator)
	assert.Equal(t, 1, resp.Counts.LowStock)
	assert.Equal(t, 1, resp.Pagination.TotalPages)

	require.NotNil(t, uc.criteria)
	assert.Equal(t, dto.ViewLowStock, uc.criteria.View)
	assert.Equal(t, "mug", uc.criteria.Search)
	assert.Equal(t, []int64{9}, uc.criteria.Exclude)
	assert.Equal(t, "name", uc.criteria.OrderBy)
	assert.Equal(t, 2, uc.criteria.Page)
	assert.True(t, uc.criteria.IncludePrivate)
}

func TestListStock_SupplierNeedsCapability(t *testing.T) {
	uc := &stubUseCase{}
	client := newClient(t, uc)
	supplier := int64(3)

	_, err := client.ListStock(context.Background(), &ListStockRequest{CriteriaRequest: CriteriaRequest{SupplierID: &supplier}})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Nil(t, uc.criteria)

	_, err = client.ListStock(withCaps("read_supplier"), &ListStockRequest{CriteriaRequest: CriteriaRequest{SupplierID: &supplier}})
	require.NoError(t, err)
	require.NotNil(t, uc.criteria.SupplierID)
	assert.Equal(t, supplier, *uc.criteria.SupplierID)
	assert.False(t, uc.criteria.IncludePrivate)
}

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("%w: unknown view", stock.ErrInvalidCriteria), codes.InvalidArgument},
		{errors.New("connection reset"), codes.Internal},
	}
	for _, tc := range cases {
		client := newClient(t, &stubUseCase{err: tc.err})

		_, err := client.GetViewCounts(context.Background(), &GetViewCountsRequest{})
		assert.Equal(t, tc.code, status.Code(err), tc.err.Error())
	}
}

func TestGetViewCounts(t *testing.T) {
	client := newClient(t, &stubUseCase{})

	resp, err := client.GetViewCounts(context.Background(), &GetViewCountsRequest{})
	require.NoError(t, err)
	assert.Equal(t, dto.ViewCounts{All: 3, InStock: 2, LowStock: 1, OutOfStock: 1}, resp.Counts)
}

func TestGetStockControl(t *testing.T) {
	uc := &stubUseCase{}
	client := newClient(t, uc)

	resp, err := client.GetStockControl(withCaps("edit_private_products"), &GetStockControlRequest{})
	require.NoError(t, err)
	assert.True(t, uc.includePrivate)
	assert.Equal(t, 1, resp.UnmanagedByStatus[model.StatusInStock])
	assert.Equal(t, 2, resp.Counts.All)
}

func TestGetSold(t *testing.T) {
	client := newClient(t, &stubUseCase{})
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	resp, err := client.GetSold(context.Background(), &GetSoldRequest{ProductIDs: []int64{3, 1}, Start: start})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(1), resp.Items[0].ProductID)
	assert.True(t, decimal.NewFromInt(30).Equal(resp.Items[1].Total))

	_, err = client.GetSold(context.Background(), &GetSoldRequest{ProductIDs: []int64{1}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	before := start.Add(-time.Hour)
	_, err = client.GetSold(context.Background(), &GetSoldRequest{ProductIDs: []int64{1}, Start: start, End: &before})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetInbound(t *testing.T) {
	client := newClient(t, &stubUseCase{})

	resp, err := client.GetInbound(context.Background(), &GetInboundRequest{ProductID: 5})
	require.NoError(t, err)
	assert.Equal(t, 10.0, resp.Inbound)
}

func TestGetLostSales(t *testing.T) {
	uc := &stubUseCase{}
	client := newClient(t, uc)

	resp, err := client.GetLostSales(context.Background(), &GetLostSalesRequest{ProductID: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, uc.window)
	require.NotNil(t, resp.LostSales)
	assert.True(t, decimal.RequireFromString("12.5").Equal(*resp.LostSales))
	require.NotNil(t, resp.OutOfStockDays)
	assert.Equal(t, 3, *resp.OutOfStockDays)

	resp, err = client.GetLostSales(context.Background(), &GetLostSalesRequest{ProductID: 8, WindowDays: 14})
	require.NoError(t, err)
	assert.Equal(t, 14, uc.window)
	assert.Nil(t, resp.LostSales)
	assert.Nil(t, resp.OutOfStockDays)

	_, err = client.GetLostSales(context.Background(), &GetLostSalesRequest{ProductID: 7, WindowDays: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFlushCache(t *testing.T) {
	client := newClient(t, &stubUseCase{})

	resp, err := client.FlushCache(context.Background(), &FlushCacheRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Deleted)
}
