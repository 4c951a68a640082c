package listener

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	EventOrderCompleted        = "OrderCompleted"
	EventPurchaseOrderReceived = "PurchaseOrderReceived"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (broker.Message, error)
}

type InventoryListener struct {
	consumer MessageReader
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewInventoryListener(consumer MessageReader, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Inventory Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

// StockEvent is an order or purchase order whose items move stock.
type StockEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   EventPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type EventPayload struct {
	ID    int64              `json:"id"`
	Items []EventItemPayload `json:"items"`
}

type EventItemPayload struct {
	ProductID   int64   `json:"product_id"`
	VariationID *int64  `json:"variation_id"`
	Quantity    float64 `json:"quantity"`
}

// StockID is the product whose stock the line moves; a variation wins over its parent.
func (i EventItemPayload) StockID() int64 {
	if i.VariationID != nil && *i.VariationID != 0 {
		return *i.VariationID
	}
	return i.ProductID
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event StockEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	var sign float64
	var movementType, referenceType string
	switch event.EventType {
	case EventOrderCompleted:
		sign, movementType, referenceType = -1, model.MovementSale, "order"
	case EventPurchaseOrderReceived:
		sign, movementType, referenceType = 1, model.MovementReceipt, "purchase_order"
	default:
		return
	}

	l.logger.Info("Processing stock event",
		zap.String("event_type", event.EventType),
		zap.Int64("reference_id", event.Payload.ID),
	)

	for _, item := range event.Payload.Items {
		input := &dto.AdjustStockInput{
			ProductID:      item.StockID(),
			QuantityChange: sign * item.Quantity,
			MovementType:   movementType,
			Reason:         event.EventType,
			ReferenceID:    strconv.FormatInt(event.Payload.ID, 10),
			ReferenceType:  referenceType,
			UserID:         "system",
		}

		_, err := l.uc.AdjustStock(ctx, input)
		switch {
		case err == nil:
		case errors.Is(err, inventory.ErrNotManaged), errors.Is(err, inventory.ErrNotStockable):
			l.logger.Debug("Skipping item without managed stock", zap.Int64("product_id", input.ProductID))
		default:
			l.logger.Error("Failed to adjust stock for item",
				zap.Int64("reference_id", event.Payload.ID),
				zap.Int64("product_id", input.ProductID),
				zap.Error(err),
			)
		}
	}
}
