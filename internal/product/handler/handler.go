package handler

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "omnipos.stock.v1.ProductService"

type GetProductRequest struct {
	ID int64 `json:"id"`
}

type ProductResponse struct {
	Product *model.Product `json:"product"`
}

type SearchProductsRequest struct {
	Query string `json:"query"`
}

type SearchProductsResponse struct {
	ProductIDs []int64 `json:"product_ids"`
}

type ReindexRequest struct{}

type ReindexResponse struct {
	Indexed int `json:"indexed"`
}

type ProductServer interface {
	GetProduct(ctx context.Context, req *GetProductRequest) (*ProductResponse, error)
	SearchProducts(ctx context.Context, req *SearchProductsRequest) (*SearchProductsResponse, error)
	Reindex(ctx context.Context, req *ReindexRequest) (*ReindexResponse, error)
}

var ProductServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Method(ServiceName, "GetProduct", ProductServer.GetProduct),
		grpcjson.Method(ServiceName, "SearchProducts", ProductServer.SearchProducts),
		grpcjson.Method(ServiceName, "Reindex", ProductServer.Reindex),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/stock/v1/product.proto",
}

func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServer) {
	s.RegisterService(&ProductServiceDesc, srv)
}

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*ProductResponse, error) {
	p, err := h.uc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if p == nil {
		return nil, status.Error(codes.NotFound, "product not found")
	}

	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) SearchProducts(ctx context.Context, req *SearchProductsRequest) (*SearchProductsResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}

	ids, err := h.uc.SearchProductIDs(ctx, query)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if ids == nil {
		ids = []int64{}
	}
	return &SearchProductsResponse{ProductIDs: ids}, nil
}

func (h *ProductHandler) Reindex(ctx context.Context, _ *ReindexRequest) (*ReindexResponse, error) {
	n, err := h.uc.Reindex(ctx)
	if err != nil {
		h.logger.Error("failed to reindex catalog", zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &ReindexResponse{Indexed: n}, nil
}
