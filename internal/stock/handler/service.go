package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/grpcjson"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.stock.v1.StockService"

// CriteriaRequest selects the products of a stock listing.
type CriteriaRequest struct {
	View         dto.View `json:"view"`
	ProductType  string   `json:"product_type"`
	Category     string   `json:"category"`
	SupplierID   *int64   `json:"supplier_id"`
	Search       string   `json:"search"`
	Uncontrolled bool     `json:"uncontrolled"`
	Exclude      []int64  `json:"exclude"`
}

type ListStockRequest struct {
	CriteriaRequest
	OrderBy string `json:"order_by"`
	Order   string `json:"order"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

type ListStockResponse struct {
	dto.StockList
}

type GetViewCountsRequest struct {
	CriteriaRequest
}

type GetViewCountsResponse struct {
	Counts dto.ViewCounts `json:"counts"`
}

type GetStockControlRequest struct{}

type GetStockControlResponse struct {
	dto.StockControl
}

type GetSoldRequest struct {
	ProductIDs []int64    `json:"product_ids"`
	Start      time.Time  `json:"start"`
	End        *time.Time `json:"end"`
}

type SoldItem struct {
	ProductID int64           `json:"product_id"`
	Qty       float64         `json:"qty"`
	Total     decimal.Decimal `json:"total"`
}

type GetSoldResponse struct {
	Items []SoldItem `json:"items"`
}

type GetInboundRequest struct {
	ProductID int64 `json:"product_id"`
}

type GetInboundResponse struct {
	ProductID int64   `json:"product_id"`
	Inbound   float64 `json:"inbound"`
}

type GetLostSalesRequest struct {
	ProductID int64 `json:"product_id"`
	// WindowDays defaults to the configured lost sales window.
	WindowDays int `json:"window_days"`
}

type GetLostSalesResponse struct {
	ProductID      int64            `json:"product_id"`
	LostSales      *decimal.Decimal `json:"lost_sales"`
	OutOfStockDays *int             `json:"out_of_stock_days"`
}

type FlushCacheRequest struct{}

type FlushCacheResponse struct {
	Deleted int `json:"deleted"`
}

type StockServer interface {
	ListStock(ctx context.Context, req *ListStockRequest) (*ListStockResponse, error)
	GetViewCounts(ctx context.Context, req *GetViewCountsRequest) (*GetViewCountsResponse, error)
	GetStockControl(ctx context.Context, req *GetStockControlRequest) (*GetStockControlResponse, error)
	GetSold(ctx context.Context, req *GetSoldRequest) (*GetSoldResponse, error)
	GetInbound(ctx context.Context, req *GetInboundRequest) (*GetInboundResponse, error)
	GetLostSales(ctx context.Context, req *GetLostSalesRequest) (*GetLostSalesResponse, error)
	FlushCache(ctx context.Context, req *FlushCacheRequest) (*FlushCacheResponse, error)
}

var StockServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StockServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Method(ServiceName, "ListStock", StockServer.ListStock),
		grpcjson.Method(ServiceName, "GetViewCounts", StockServer.GetViewCounts),
		grpcjson.Method(ServiceName, "GetStockControl", StockServer.GetStockControl),
		grpcjson.Method(ServiceName, "GetSold", StockServer.GetSold),
		grpcjson.Method(ServiceName, "GetInbound", StockServer.GetInbound),
		grpcjson.Method(ServiceName, "GetLostSales", StockServer.GetLostSales),
		grpcjson.Method(ServiceName, "FlushCache", StockServer.FlushCache),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/stock/v1/stock.proto",
}

func RegisterStockServiceServer(s grpc.ServiceRegistrar, srv StockServer) {
	s.RegisterService(&StockServiceDesc, srv)
}

// StockClient calls StockService over a connection using the JSON codec.
type StockClient struct {
	cc grpc.ClientConnInterface
}

func NewStockClient(cc grpc.ClientConnInterface) *StockClient {
	return &StockClient{cc: cc}
}

func (c *StockClient) ListStock(ctx context.Context, in *ListStockRequest, opts ...grpc.CallOption) (*ListStockResponse, error) {
	out := new(ListStockResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "ListStock", in, out, opts...)
}

func (c *StockClient) GetViewCounts(ctx context.Context, in *GetViewCountsRequest, opts ...grpc.CallOption) (*GetViewCountsResponse, error) {
	out := new(GetViewCountsResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "GetViewCounts", in, out, opts...)
}

func (c *StockClient) GetStockControl(ctx context.Context, in *GetStockControlRequest, opts ...grpc.CallOption) (*GetStockControlResponse, error) {
	out := new(GetStockControlResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "GetStockControl", in, out, opts...)
}

func (c *StockClient) GetSold(ctx context.Context, in *GetSoldRequest, opts ...grpc.CallOption) (*GetSoldResponse, error) {
	out := new(GetSoldResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "GetSold", in, out, opts...)
}

func (c *StockClient) GetInbound(ctx context.Context, in *GetInboundRequest, opts ...grpc.CallOption) (*GetInboundResponse, error) {
	out := new(GetInboundResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "GetInbound", in, out, opts...)
}

func (c *StockClient) GetLostSales(ctx context.Context, in *GetLostSalesRequest, opts ...grpc.CallOption) (*GetLostSalesResponse, error) {
	out := new(GetLostSalesResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "GetLostSales", in, out, opts...)
}

func (c *StockClient) FlushCache(ctx context.Context, in *FlushCacheRequest, opts ...grpc.CallOption) (*FlushCacheResponse, error) {
	out := new(FlushCacheResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "FlushCache", in, out, opts...)
}
