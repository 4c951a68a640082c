package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// managedExpr resolves the tri-state manage flag of p against its parent row.
const managedExpr = `(p.manage_stock = 'yes' OR (p.manage_stock = 'parent' AND parent.manage_stock = 'yes'))`

const productColumns = `p.id, p.parent_id, p.type, p.status, p.name, p.sku, p.controlled, p.manage_stock,
	p.stock, p.stock_status, p.backorders, p.out_stock_date, p.regular_price, p.purchase_price,
	p.supplier_id, p.is_downloadable, p.is_virtual, p.created_at, p.updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find product")
	}
	return &product, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	products := []model.Product{}
	if len(ids) == 0 {
		return products, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products p WHERE p.id IN (?) ORDER BY p.id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build products query")
	}
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	return products, nil
}

func (r *PGRepository) FindIDs(ctx context.Context, f *dto.ProductFilters) ([]int64, error) {
	ids := []int64{}
	where, args, empty := buildWhere(f)
	if empty {
		return ids, nil
	}

	query, args, err := sqlx.In("SELECT p.id FROM products p"+where+" ORDER BY p.id", args...)
	if err != nil {
		return nil, errors.Wrap(err, "build product ids query")
	}
	if err := r.DB.SelectContext(ctx, &ids, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find product ids")
	}
	return ids, nil
}

func (r *PGRepository) FindPage(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	products := []model.Product{}
	where, args, empty := buildWhere(f)
	if empty {
		return products, 0, nil
	}

	// Count
	var count int
	countQuery, countArgs, err := sqlx.In("SELECT count(*) FROM products p"+where, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "build count query")
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	// List
	query := fmt.Sprintf("SELECT %s FROM products p%s ORDER BY %s", productColumns, where, orderBy(f.SortBy, f.SortOrder))
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "build products page query")
	}
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(query), args...); err != nil {
		return nil, 0, errors.Wrap(err, "find products page")
	}
	return products, count, nil
}

func (r *PGRepository) FindChildren(ctx context.Context, f *dto.ChildFilters) ([]model.ChildLink, error) {
	links := []model.ChildLink{}
	if len(f.ParentIDs) == 0 {
		return links, nil
	}

	var query string
	switch f.ParentType {
	case model.TypeVariable:
		query = `SELECT c.id, c.parent_id FROM products c
			WHERE c.type = 'variation' AND c.parent_id IN (?)`
	case model.TypeGrouped:
		query = `SELECT c.id, gc.parent_id FROM grouped_children gc
			JOIN products c ON c.id = gc.child_id
			WHERE gc.parent_id IN (?) AND c.type NOT IN ('variable', 'grouped')`
	default:
		return links, nil
	}
	args := []interface{}{f.ParentIDs}

	if len(f.Statuses) > 0 {
		query += " AND c.status IN (?)"
		args = append(args, f.Statuses)
	}
	query += " AND c.controlled = ?"
	args = append(args, f.Controlled)
	if f.SupplierID != nil {
		query += " AND c.supplier_id = ?"
		args = append(args, *f.SupplierID)
	}
	query += " ORDER BY c.name, c.id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "build children query")
	}
	if err := r.DB.SelectContext(ctx, &links, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find children")
	}
	return links, nil
}

func (r *PGRepository) FindParents(ctx context.Context, childIDs []int64) ([]model.ChildLink, error) {
	links := []model.ChildLink{}
	if len(childIDs) == 0 {
		return links, nil
	}

	query, args, err := sqlx.In(`
		SELECT c.id, c.parent_id FROM products c
		WHERE c.id IN (?) AND c.type = 'variation' AND c.parent_id IS NOT NULL
		UNION
		SELECT gc.child_id AS id, gc.parent_id FROM grouped_children gc
		WHERE gc.child_id IN (?)`, childIDs, childIDs)
	if err != nil {
		return nil, errors.Wrap(err, "build parents query")
	}
	if err := r.DB.SelectContext(ctx, &links, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find parents")
	}
	return links, nil
}

func (r *PGRepository) UnmanagedIDs(ctx context.Context, ids []int64) ([]int64, error) {
	out := []int64{}
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
		SELECT p.id FROM products p
		LEFT JOIN products parent ON parent.id = p.parent_id
		WHERE p.id IN (?) AND p.type NOT IN ('variable', 'grouped')
		AND NOT COALESCE(`+managedExpr+`, FALSE)
		ORDER BY p.id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build unmanaged query")
	}
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find unmanaged products")
	}
	return out, nil
}

func (r *PGRepository) InStock(ctx context.Context, ids []int64) ([]model.StockLevel, error) {
	levels := []model.StockLevel{}
	if len(ids) == 0 {
		return levels, nil
	}

	query, args, err := sqlx.In(`SELECT p.id, p.stock FROM products p WHERE p.id IN (?) AND p.stock > 0 ORDER BY p.id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build in stock query")
	}
	if err := r.DB.SelectContext(ctx, &levels, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find in stock products")
	}
	return levels, nil
}

func (r *PGRepository) Unmanaged(ctx context.Context, statuses []model.PublishStatus) ([]model.UnmanagedProduct, error) {
	out := []model.UnmanagedProduct{}
	query := `
		SELECT p.id, p.stock_status FROM products p
		LEFT JOIN products parent ON parent.id = p.parent_id
		WHERE p.type NOT IN ('variable', 'grouped')
		AND NOT COALESCE(` + managedExpr + `, FALSE)
		AND (parent.id IS NULL OR parent.status = 'publish')`
	args := []interface{}{}
	if len(statuses) > 0 {
		query += " AND p.status IN (?)"
		args = append(args, statuses)
	}
	query += " ORDER BY p.id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "build unmanaged listing query")
	}
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list unmanaged products")
	}
	return out, nil
}

// buildWhere renders the filters as a WHERE clause with "?" placeholders, ready for sqlx.In.
// empty is true when the filters can not match any row.
func buildWhere(f *dto.ProductFilters) (string, []interface{}, bool) {
	conditions := []string{"p.type <> 'variation'"}
	args := []interface{}{}

	if f.IDs != nil {
		if len(f.IDs) == 0 {
			return "", nil, true
		}
		conditions = append(conditions, "p.id IN (?)")
		args = append(args, f.IDs)
	}
	if len(f.ExcludeIDs) > 0 {
		conditions = append(conditions, "p.id NOT IN (?)")
		args = append(args, f.ExcludeIDs)
	}
	if len(f.Types) > 0 {
		conditions = append(conditions, "p.type IN (?)")
		args = append(args, f.Types)
	}
	if len(f.Statuses) > 0 {
		conditions = append(conditions, "p.status IN (?)")
		args = append(args, f.Statuses)
	}
	if f.Controlled != nil {
		conditions = append(conditions, "(p.controlled = ? OR p.type IN ('variable', 'grouped'))")
		args = append(args, *f.Controlled)
	}
	if f.Downloadable {
		conditions = append(conditions, "p.is_downloadable = TRUE")
	}
	if f.Virtual {
		conditions = append(conditions, "p.is_virtual = TRUE")
	}
	if f.CategorySlug != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.slug = ?)")
		args = append(args, f.CategorySlug)
	}
	if f.SupplierID != nil {
		// The supplier's own products plus the containers of its variations.
		cond := "(p.supplier_id = ? OR EXISTS (SELECT 1 FROM products v WHERE v.parent_id = p.id AND v.type = 'variation' AND v.supplier_id = ?"
		args = append(args, *f.SupplierID, *f.SupplierID)
		if f.Controlled != nil {
			cond += " AND v.controlled = ?"
			args = append(args, *f.Controlled)
		}
		conditions = append(conditions, cond+"))")
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(p.name ILIKE ? OR p.sku ILIKE ?)")
		search := "%" + f.SearchQuery + "%"
		args = append(args, search, search)
	}

	return " WHERE " + strings.Join(conditions, " AND "), args, false
}

func orderBy(sortBy, sortOrder string) string {
	column := ""
	// Whitelisted to keep user input out of the query.
	switch sortBy {
	case "name":
		column = "p.name"
	case "sku":
		column = "p.sku"
	case "stock":
		column = "p.stock"
	case "purchase_price":
		column = "p.purchase_price"
	case "regular_price":
		column = "p.regular_price"
	case "id":
		column = "p.id"
	case "date":
		column = "p.created_at"
	default:
		return "p.created_at DESC, p.id DESC"
	}
	if strings.ToLower(sortOrder) == "asc" {
		return column + " ASC, p.id ASC"
	}
	return column + " DESC, p.id DESC"
}
