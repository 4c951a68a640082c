package repository

import (
	"context"
	"time"

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

func (r *PGRepository) Sold(ctx context.Context, ids []int64, start time.Time, end *time.Time) ([]model.SalesAggregate, error) {
	out := []model.SalesAggregate{}
	if len(ids) == 0 {
		return out, nil
	}

	// Variation lines resolve to the variation, not to its parent.
	query := `
		SELECT COALESCE(oi.variation_id, oi.product_id) AS product_id,
			SUM(oi.quantity) AS qty,
			COALESCE(SUM(oi.line_total), 0) AS total
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status IN (?)
		AND oi.item_type = 'line_item'
		AND COALESCE(oi.variation_id, oi.product_id) IN (?)
		AND o.paid_at >= ?`
	args := []interface{}{[]string{model.OrderCompleted, model.OrderProcessing}, ids, canonical(start)}
	if end != nil {
		query += " AND o.paid_at <= ?"
		args = append(args, canonical(*end))
	}
	query += " GROUP BY COALESCE(oi.variation_id, oi.product_id) ORDER BY product_id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "build sold query")
	}
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "sum sold quantities")
	}
	return out, nil
}

// canonical drops sub-second precision so equal windows produce equal queries.
func canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
