package handler

import (
	"context"
	"errors"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type StockHandler struct {
	uc            stock.UseCase
	lostSalesDays int
	logger        logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, lostSalesDays int, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:            uc,
		lostSalesDays: lostSalesDays,
		logger:        log,
	}
}

func (h *StockHandler) ListStock(ctx context.Context, req *ListStockRequest) (*ListStockResponse, error) {
	criteria, err := h.criteria(ctx, &req.CriteriaRequest)
	if err != nil {
		return nil, err
	}
	criteria.OrderBy = req.OrderBy
	criteria.Order = req.Order
	criteria.Page = req.Page
	criteria.PerPage = req.PerPage

	list, err := h.uc.List(ctx, criteria)
	if err != nil {
		return nil, h.toStatus("failed to list stock", err)
	}
	return &ListStockResponse{StockList: *list}, nil
}

func (h *StockHandler) GetViewCounts(ctx context.Context, req *GetViewCountsRequest) (*GetViewCountsResponse, error) {
	criteria, err := h.criteria(ctx, &req.CriteriaRequest)
	if err != nil {
		return nil, err
	}

	cls, err := h.uc.Classify(ctx, criteria)
	if err != nil {
		return nil, h.toStatus("failed to classify stock", err)
	}
	return &GetViewCountsResponse{Counts: cls.Counts}, nil
}

func (h *StockHandler) GetStockControl(ctx context.Context, _ *GetStockControlRequest) (*GetStockControlResponse, error) {
	caps := auth.GetCapabilities(ctx)

	sc, err := h.uc.StockControl(ctx, caps.EditPrivateProducts)
	if err != nil {
		return nil, h.toStatus("failed to compute stock control", err)
	}
	return &GetStockControlResponse{StockControl: *sc}, nil
}

func (h *StockHandler) GetSold(ctx context.Context, req *GetSoldRequest) (*GetSoldResponse, error) {
	if req.Start.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "start is required")
	}
	if req.End != nil && req.End.Before(req.Start) {
		return nil, status.Error(codes.InvalidArgument, "end is before start")
	}

	sold, err := h.uc.Sold(ctx, req.ProductIDs, req.Start, req.End)
	if err != nil {
		return nil, h.toStatus("failed to aggregate sales", err)
	}

	items := make([]SoldItem, 0, len(sold))
	for id, s := range sold {
		items = append(items, SoldItem{ProductID: id, Qty: s.Qty, Total: s.Total})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return &GetSoldResponse{Items: items}, nil
}

func (h *StockHandler) GetInbound(ctx context.Context, req *GetInboundRequest) (*GetInboundResponse, error) {
	qty, err := h.uc.Inbound(ctx, req.ProductID)
	if err != nil {
		return nil, h.toStatus("failed to aggregate inbound stock", err)
	}
	return &GetInboundResponse{ProductID: req.ProductID, Inbound: qty}, nil
}

func (h *StockHandler) GetLostSales(ctx context.Context, req *GetLostSalesRequest) (*GetLostSalesResponse, error) {
	window := req.WindowDays
	if window == 0 {
		window = h.lostSalesDays
	}
	if window < 0 {
		return nil, status.Error(codes.InvalidArgument, "window_days must be positive")
	}

	lost, err := h.uc.LostSales(ctx, req.ProductID, window)
	if err != nil {
		return nil, h.toStatus("failed to estimate lost sales", err)
	}
	days, err := h.uc.OutOfStockDays(ctx, req.ProductID)
	if err != nil {
		return nil, h.toStatus("failed to load out of stock days", err)
	}
	return &GetLostSalesResponse{ProductID: req.ProductID, LostSales: lost, OutOfStockDays: days}, nil
}

func (h *StockHandler) FlushCache(ctx context.Context, _ *FlushCacheRequest) (*FlushCacheResponse, error) {
	n, err := h.uc.FlushCache(ctx)
	if err != nil {
		return nil, h.toStatus("failed to flush stock cache", err)
	}
	h.logger.Info("stock cache flushed", zap.Int("deleted", n))
	return &FlushCacheResponse{Deleted: n}, nil
}

// criteria reads the request filters and the caller capabilities once.
func (h *StockHandler) criteria(ctx context.Context, req *CriteriaRequest) (*dto.Criteria, error) {
	caps := auth.GetCapabilities(ctx)
	if req.SupplierID != nil && !caps.ReadSupplier {
		return nil, status.Error(codes.PermissionDenied, "supplier filter requires read_supplier")
	}

	return &dto.Criteria{
		View:           req.View,
		ProductType:    req.ProductType,
		Category:       req.Category,
		SupplierID:     req.SupplierID,
		Search:         req.Search,
		Uncontrolled:   req.Uncontrolled,
		IncludePrivate: caps.EditPrivateProducts,
		Exclude:        req.Exclude,
	}, nil
}

func (h *StockHandler) toStatus(msg string, err error) error {
	switch {
	case errors.Is(err, stock.ErrInvalidCriteria):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	h.logger.Error(msg, zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}
