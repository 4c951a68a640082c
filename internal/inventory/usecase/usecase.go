package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheInvalidator drops every cached classification after a stock change.
type CacheInvalidator interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// Publisher emits stock events, typically a Kafka producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type inventoryUseCase struct {
	repo      inventory.Repository
	cache     CacheInvalidator
	publisher Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewInventoryUseCase builds the stock mutation use case. cache and publisher are optional.
func NewInventoryUseCase(repo inventory.Repository, cache CacheInvalidator, publisher Publisher, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *inventoryUseCase) SetStock(ctx context.Context, input *dto.SetStockInput) (*model.Product, error) {
	p, err := uc.loadStockable(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	return uc.apply(ctx, p, input.Quantity, movementInput{
		movementType:  model.MovementAdjustment,
		reason:        input.Reason,
		referenceID:   input.ReferenceID,
		referenceType: input.ReferenceType,
		userID:        input.UserID,
	})
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Product, error) {
	p, err := uc.loadStockable(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	movementType := input.MovementType
	if movementType == "" {
		movementType = model.MovementAdjustment
	}
	return uc.apply(ctx, p, p.StockQuantity()+input.QuantityChange, movementInput{
		movementType:  movementType,
		reason:        input.Reason,
		referenceID:   input.ReferenceID,
		referenceType: input.ReferenceType,
		userID:        input.UserID,
	})
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

type movementInput struct {
	movementType  string
	reason        string
	referenceID   string
	referenceType string
	userID        string
}

func (uc *inventoryUseCase) loadStockable(ctx context.Context, id int64) (*model.Product, error) {
	p, err := uc.repo.GetByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, inventory.ErrProductNotFound
	}
	if p.Type.IsContainer() {
		return nil, inventory.ErrNotStockable
	}

	var parent *model.Product
	if p.ManageStock != nil && *p.ManageStock == model.ManageParent && p.ParentID != nil {
		parent, err = uc.repo.GetByProduct(ctx, *p.ParentID)
		if err != nil {
			return nil, err
		}
	}
	if !p.ManagingStock(parent) {
		return nil, inventory.ErrNotManaged
	}
	return p, nil
}

func (uc *inventoryUseCase) apply(ctx context.Context, p *model.Product, quantity float64, in movementInput) (*model.Product, error) {
	now := uc.now().UTC()
	before := p.Stock

	update := &model.StockUpdate{
		ProductID:    p.ID,
		Stock:        quantity,
		StockStatus:  deriveStatus(quantity, p.Backorders),
		OutStockDate: outStockDate(p, quantity, now),
		UpdatedAt:    now,
	}

	movement := &model.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      p.ID,
		MovementType:   in.movementType,
		QuantityChange: quantity - p.StockQuantity(),
		QuantityBefore: before,
		QuantityAfter:  quantity,
		ReferenceType:  optional(in.referenceType),
		ReferenceID:    optional(in.referenceID),
		Notes:          in.reason,
		CreatedBy:      optional(in.userID),
		CreatedAt:      now,
	}

	if err := uc.repo.AdjustStockWithMovement(ctx, update, movement); err != nil {
		return nil, err
	}

	p.Stock = &update.Stock
	p.StockStatus = update.StockStatus
	p.OutStockDate = update.OutStockDate
	p.UpdatedAt = now

	uc.invalidate(ctx)
	uc.publish(ctx, p, before)

	uc.logger.Info("stock updated",
		zap.Int64("product_id", p.ID),
		zap.Float64("quantity", quantity),
		zap.String("stock_status", string(update.StockStatus)),
		zap.String("movement_type", in.movementType),
	)
	return p, nil
}

func (uc *inventoryUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if _, err := uc.cache.DeleteByPrefix(ctx, cache.Namespace); err != nil {
		uc.logger.Error("failed to invalidate stock cache", zap.Error(err))
	}
}

func (uc *inventoryUseCase) publish(ctx context.Context, p *model.Product, before *float64) {
	if uc.publisher == nil {
		return
	}
	event := model.StockChangedEvent{
		EventID:     uuid.New().String(),
		EventType:   "StockChanged",
		ProductID:   p.ID,
		Before:      before,
		After:       p.StockQuantity(),
		StockStatus: p.StockStatus,
		Timestamp:   p.UpdatedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to marshal stock event", zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, []byte(strconv.FormatInt(p.ID, 10)), value); err != nil {
		uc.logger.Error("failed to publish stock event", zap.Int64("product_id", p.ID), zap.Error(err))
	}
}

func deriveStatus(quantity float64, backorders bool) model.StockStatus {
	switch {
	case quantity > 0:
		return model.StatusInStock
	case backorders:
		return model.StatusOnBackorder
	default:
		return model.StatusOutOfStock
	}
}

// outStockDate records when a product ran out. An existing date survives while the
// product stays out and is cleared on restock.
func outStockDate(p *model.Product, quantity float64, now time.Time) *time.Time {
	if quantity > 0 {
		return nil
	}
	if p.OutStockDate != nil && p.StockQuantity() <= 0 {
		return p.OutStockDate
	}
	return &now
}

func optional(s string) *string {
	if s == "" || s == "unknown" {
		return nil
	}
	return &s
}
