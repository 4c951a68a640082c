package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) SetStock(ctx context.Context, req *SetStockRequest) (*StockResponse, error) {
	p, err := h.uc.SetStock(ctx, &dto.SetStockInput{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Reason:        req.Reason,
		ReferenceID:   req.ReferenceID,
		ReferenceType: "manual",
		UserID:        auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, h.toStatus("failed to set stock", err)
	}
	return mapStock(p), nil
}

func (h *InventoryHandler) AdjustStock(ctx context.Context, req *AdjustStockRequest) (*StockResponse, error) {
	if req.QuantityChange == 0 {
		return nil, status.Error(codes.InvalidArgument, "quantity_change must not be zero")
	}

	p, err := h.uc.AdjustStock(ctx, &dto.AdjustStockInput{
		ProductID:      req.ProductID,
		QuantityChange: req.QuantityChange,
		MovementType:   model.MovementAdjustment,
		Reason:         req.Reason,
		ReferenceID:    req.ReferenceID,
		ReferenceType:  "manual",
		UserID:         auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, h.toStatus("failed to adjust stock", err)
	}
	return mapStock(p), nil
}

func (h *InventoryHandler) ListMovements(ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error) {
	filters := &dto.MovementFilters{
		ProductID:    req.ProductID,
		MovementType: req.MovementType,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}

	mvs, count, err := h.uc.ListMovements(ctx, filters)
	if err != nil {
		return nil, h.toStatus("failed to list movements", err)
	}

	out := make([]Movement, len(mvs))
	for i := range mvs {
		out[i] = mapMovement(&mvs[i])
	}
	return &ListMovementsResponse{Movements: out, Total: count}, nil
}

func (h *InventoryHandler) toStatus(msg string, err error) error {
	switch {
	case errors.Is(err, inventory.ErrProductNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, inventory.ErrNotStockable), errors.Is(err, inventory.ErrNotManaged):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	h.logger.Error(msg, zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}

func mapStock(p *model.Product) *StockResponse {
	return &StockResponse{
		ProductID:    p.ID,
		Stock:        p.Stock,
		StockStatus:  p.StockStatus,
		OutStockDate: p.OutStockDate,
		UpdatedAt:    p.UpdatedAt,
	}
}

func mapMovement(m *model.InventoryMovement) Movement {
	out := Movement{
		ID:             m.ID,
		ProductID:      m.ProductID,
		MovementType:   m.MovementType,
		QuantityChange: m.QuantityChange,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
	if m.ReferenceType != nil {
		out.ReferenceType = *m.ReferenceType
	}
	if m.ReferenceID != nil {
		out.ReferenceID = *m.ReferenceID
	}
	if m.CreatedBy != nil {
		out.CreatedBy = *m.CreatedBy
	}
	return out
}
