package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/grpcjson"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.stock.v1.InventoryService"

type SetStockRequest struct {
	ProductID   int64   `json:"product_id"`
	Quantity    float64 `json:"quantity"`
	Reason      string  `json:"reason"`
	ReferenceID string  `json:"reference_id"`
}

type AdjustStockRequest struct {
	ProductID      int64   `json:"product_id"`
	QuantityChange float64 `json:"quantity_change"`
	Reason         string  `json:"reason"`
	ReferenceID    string  `json:"reference_id"`
}

// StockResponse is the stock state of a product after a mutation.
type StockResponse struct {
	ProductID    int64             `json:"product_id"`
	Stock        *float64          `json:"stock"`
	StockStatus  model.StockStatus `json:"stock_status"`
	OutStockDate *time.Time        `json:"out_stock_date"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ListMovementsRequest struct {
	ProductID    int64      `json:"product_id"`
	MovementType string     `json:"movement_type"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Page         int        `json:"page"`
	PageSize     int        `json:"page_size"`
}

type Movement struct {
	ID             string    `json:"id"`
	ProductID      int64     `json:"product_id"`
	MovementType   string    `json:"movement_type"`
	QuantityChange float64   `json:"quantity_change"`
	QuantityBefore *float64  `json:"quantity_before"`
	QuantityAfter  float64   `json:"quantity_after"`
	ReferenceType  string    `json:"reference_type"`
	ReferenceID    string    `json:"reference_id"`
	Notes          string    `json:"notes"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListMovementsResponse struct {
	Movements []Movement `json:"movements"`
	Total     int        `json:"total"`
}

type InventoryServer interface {
	SetStock(ctx context.Context, req *SetStockRequest) (*StockResponse, error)
	AdjustStock(ctx context.Context, req *AdjustStockRequest) (*StockResponse, error)
	ListMovements(ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Method(ServiceName, "SetStock", InventoryServer.SetStock),
		grpcjson.Method(ServiceName, "AdjustStock", InventoryServer.AdjustStock),
		grpcjson.Method(ServiceName, "ListMovements", InventoryServer.ListMovements),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/stock/v1/inventory.proto",
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) SetStock(ctx context.Context, in *SetStockRequest, opts ...grpc.CallOption) (*StockResponse, error) {
	out := new(StockResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "SetStock", in, out, opts...)
}

func (c *InventoryClient) AdjustStock(ctx context.Context, in *AdjustStockRequest, opts ...grpc.CallOption) (*StockResponse, error) {
	out := new(StockResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "AdjustStock", in, out, opts...)
}

func (c *InventoryClient) ListMovements(ctx context.Context, in *ListMovementsRequest, opts ...grpc.CallOption) (*ListMovementsResponse, error) {
	out := new(ListMovementsResponse)
	return out, grpcjson.Invoke(ctx, c.cc, ServiceName, "ListMovements", in, out, opts...)
}
