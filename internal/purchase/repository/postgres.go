package repository

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Inbound(ctx context.Context, id int64) (float64, error) {
	var qty float64
	query := `
		SELECT COALESCE(SUM(poi.quantity), 0)
		FROM purchase_order_items poi
		JOIN purchase_orders po ON po.id = poi.purchase_order_id
		WHERE po.status = $1
		AND poi.item_type = 'line_item'
		AND (poi.product_id = $2 OR poi.variation_id = $2)`
	if err := r.DB.GetContext(ctx, &qty, query, model.PurchaseOrderPending, id); err != nil {
		return 0, errors.Wrap(err, "sum inbound stock")
	}
	return qty, nil
}

func (r *PGRepository) InboundByProducts(ctx context.Context, ids []int64) ([]model.InboundAggregate, error) {
	out := []model.InboundAggregate{}
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
		SELECT COALESCE(poi.variation_id, poi.product_id) AS product_id, SUM(poi.quantity) AS qty
		FROM purchase_order_items poi
		JOIN purchase_orders po ON po.id = poi.purchase_order_id
		WHERE po.status = ?
		AND poi.item_type = 'line_item'
		AND COALESCE(poi.variation_id, poi.product_id) IN (?)
		GROUP BY COALESCE(poi.variation_id, poi.product_id)
		ORDER BY product_id`, model.PurchaseOrderPending, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build inbound query")
	}
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "sum inbound stock by product")
	}
	return out, nil
}
