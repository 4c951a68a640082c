package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
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

func (r *PGRepository) GetByProduct(ctx context.Context, productID int64) (*model.Product, error) {
	var p model.Product
	query := `
        SELECT id, parent_id, type, status, name, sku, controlled, manage_stock, stock, stock_status,
            backorders, out_stock_date, regular_price, purchase_price, supplier_id,
            is_downloadable, is_virtual, created_at, updated_at
        FROM products WHERE id = $1`
	err := r.DB.GetContext(ctx, &p, query, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get product stock")
	}
	return &p, nil
}

const insertMovementQuery = `
        INSERT INTO inventory_movements (
            id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :product_id, :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	items := []model.InventoryMovement{}
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != 0 {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM inventory_movements"+whereClause, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "build movements count")
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "count movements")
	}

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "prepare movements query")
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, 0, errors.Wrap(err, "list movements")
	}
	return items, count, nil
}

func (r *PGRepository) AdjustStockWithMovement(ctx context.Context, update *model.StockUpdate, movement *model.InventoryMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin stock transaction")
	}
	defer tx.Rollback()

	// 1. Update stock
	updateQuery := `
        UPDATE products
        SET stock = :stock,
            stock_status = :stock_status,
            out_stock_date = :out_stock_date,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := tx.NamedExecContext(ctx, updateQuery, update)
	if err != nil {
		return errors.Wrap(err, "failed to update stock")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	// 2. Log Movement
	if _, err = tx.NamedExecContext(ctx, insertMovementQuery, movement); err != nil {
		return errors.Wrap(err, "failed to log movement")
	}

	return errors.Wrap(tx.Commit(), "commit stock transaction")
}
