package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	defaultOrderBy = "date"
	defaultOrder   = "desc"
	// lostSalesWorkers bounds the concurrent lost sales queries of a page.
	lostSalesWorkers = 4
)

// sortable lists the columns a stock list can be ordered by.
var sortable = map[string]bool{
	"name":           true,
	"sku":            true,
	"stock":          true,
	"purchase_price": true,
	"regular_price":  true,
	"id":             true,
	"date":           true,
}

func (uc *stockUseCase) List(ctx context.Context, c *dto.Criteria) (*dto.StockList, error) {
	ctx, span := uc.tracer.Start(ctx, "stock.List")
	defer span.End()
	span.SetAttributes(attribute.String("stock.view", string(c.View)), attribute.Int("stock.page", c.Page))

	filters, err := uc.catalogFilters(ctx, c)
	if err != nil {
		return nil, err
	}
	cls, err := uc.classify(ctx, c, filters)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	perPage := c.PerPage
	if perPage == 0 {
		perPage = uc.cfg.PerPage
	}
	page := c.Page
	if page < 1 {
		page = 1
	}

	list := &dto.StockList{
		Rows:   []dto.StockRow{},
		Counts: cls.Counts,
		Pagination: dto.Pagination{
			PerPage: perPage,
			Page:    page,
			OrderBy: defaultOrderBy,
			Order:   defaultOrder,
		},
	}
	if c.OrderBy != "" && c.Order != "" {
		orderBy, order := c.OrderBy, strings.ToLower(c.Order)
		if !sortable[orderBy] || (order != "asc" && order != "desc") {
			return nil, fmt.Errorf("%w: cannot order by %q %q", stock.ErrInvalidCriteria, c.OrderBy, c.Order)
		}
		list.Pagination.OrderBy = orderBy
		list.Pagination.Order = order
	}

	var viewIDs []int64
	total := cls.Counts.All
	if c.View != dto.ViewAll {
		viewIDs = cls.IDs(c.View)
		if len(viewIDs) == 0 {
			return list, nil
		}
		total = cls.Count(c.View)

		// Parent rows go back in above their matching children.
		ids := viewIDs
		if cls.Expansion.HasContainers() {
			ids, err = uc.withParents(ctx, viewIDs)
			if err != nil {
				return nil, err
			}
		}
		filters.IDs = ids
	}

	filters.ExcludeIDs = union(filters.ExcludeIDs, cls.Expansion.Excluded)
	filters.SortBy = list.Pagination.OrderBy
	filters.SortOrder = list.Pagination.Order
	filters.Page = page
	filters.PageSize = perPage

	products, found, err := uc.products.FindPage(ctx, filters)
	if err != nil {
		return nil, err
	}

	list.Pagination.TotalItems = total
	if perPage > 0 && found > 0 {
		list.Pagination.TotalPages = int(math.Ceil(float64(found) / float64(perPage)))
	}

	rows, err := uc.buildRows(ctx, products, cls, viewIDs)
	if err != nil {
		return nil, err
	}
	list.Rows = rows
	list.Totals = totals(rows)
	return list, nil
}

// withParents adds the containers of ids to the set.
func (uc *stockUseCase) withParents(ctx context.Context, ids []int64) ([]int64, error) {
	links, err := uc.products.FindParents(ctx, ids)
	if err != nil {
		return nil, err
	}
	parents := make([]int64, 0, len(links))
	for _, l := range links {
		parents = append(parents, l.ParentID)
	}
	return union(ids, parents), nil
}

// buildRows turns a page of top-level products into table rows, nesting the matching
// children of every container. viewIDs limits the children when a view is selected.
func (uc *stockUseCase) buildRows(ctx context.Context, products []model.Product, cls *dto.Classification, viewIDs []int64) ([]dto.StockRow, error) {
	childIDs := []int64{}
	for _, p := range products {
		if p.Type.IsContainer() {
			childIDs = append(childIDs, cls.Expansion.Children[p.ID]...)
		}
	}
	if viewIDs != nil {
		childIDs = intersect(childIDs, viewIDs)
	}
	childIDs = unique(childIDs)

	children, err := uc.products.FindByIDs(ctx, childIDs)
	if err != nil {
		return nil, err
	}
	childByID := make(map[int64]*model.Product, len(children))
	for i := range children {
		childByID[children[i].ID] = &children[i]
	}

	stockable := make([]*model.Product, 0, len(products)+len(children))
	for i := range products {
		if !products[i].Type.IsContainer() {
			stockable = append(stockable, &products[i])
		}
	}
	for i := range children {
		stockable = append(stockable, &children[i])
	}

	calc, err := uc.calculate(ctx, stockable)
	if err != nil {
		return nil, err
	}

	low := toSet(cls.LowStock)
	rows := make([]dto.StockRow, 0, len(products))
	for i := range products {
		p := &products[i]
		row := uc.row(p, nil, low, calc)
		if p.Type.IsContainer() {
			for _, id := range cls.Expansion.Children[p.ID] {
				child, ok := childByID[id]
				if !ok {
					continue
				}
				row.Children = append(row.Children, uc.row(child, p, low, calc))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// calculated holds the computed columns of the stockable rows of a page.
type calculated struct {
	inbound   map[int64]float64
	sold      map[int64]dto.Sold
	lostSales map[int64]*decimal.Decimal
}

func (uc *stockUseCase) calculate(ctx context.Context, products []*model.Product) (*calculated, error) {
	calc := &calculated{
		inbound:   map[int64]float64{},
		sold:      map[int64]dto.Sold{},
		lostSales: map[int64]*decimal.Decimal{},
	}
	if len(products) == 0 {
		return calc, nil
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := uc.purchases.InboundByProducts(gctx, ids)
		if err != nil {
			return err
		}
		for _, r := range rows {
			calc.inbound[r.ProductID] += r.Qty
		}
		return nil
	})

	g.Go(func() error {
		sold, err := uc.Sold(gctx, ids, uc.now().AddDate(0, 0, -uc.cfg.SaleDays), nil)
		if err != nil {
			return err
		}
		calc.sold = sold
		return nil
	})

	var mu sync.Mutex
	lost := new(errgroup.Group)
	lost.SetLimit(lostSalesWorkers)
	for _, p := range products {
		if p.OutStockDate == nil {
			continue
		}
		lost.Go(func() error {
			estimate, err := uc.lostSales(gctx, p, uc.cfg.LostSalesDays)
			if err != nil {
				return err
			}
			mu.Lock()
			calc.lostSales[p.ID] = estimate
			mu.Unlock()
			return nil
		})
	}
	g.Go(lost.Wait)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return calc, nil
}

func (uc *stockUseCase) row(p *model.Product, parent *model.Product, low map[int64]struct{}, calc *calculated) dto.StockRow {
	row := dto.StockRow{
		ID:            p.ID,
		ParentID:      p.ParentID,
		Type:          p.Type,
		Name:          p.Name,
		SKU:           p.SKU,
		SupplierID:    p.SupplierID,
		StockStatus:   p.StockStatus,
		PurchasePrice: p.PurchasePrice,
		RegularPrice:  p.RegularPrice,
	}
	if parent != nil && row.ParentID == nil {
		row.ParentID = &parent.ID
	}

	if p.Type.IsContainer() {
		row.Indicator = dto.IndicatorContainer
		return row
	}

	// Only variations inherit the management flag of their container.
	var owner *model.Product
	if p.Type == model.TypeVariation {
		owner = parent
	}
	row.Managed = p.ManagingStock(owner)
	if row.Managed {
		row.Stock = p.Stock
	}
	_, isLow := low[p.ID]
	row.Indicator = indicator(p, row.Managed, isLow)
	row.Inbound = calc.inbound[p.ID]
	row.SoldLastDays = calc.sold[p.ID].Qty
	row.LostSales = calc.lostSales[p.ID]
	row.OutOfStockDays = uc.daysOutOfStock(p)
	return row
}

// indicator is the stock state shown for a row. Unmanaged products fall back to their
// stored stock status.
func indicator(p *model.Product, managed, low bool) dto.Indicator {
	if !managed {
		switch p.StockStatus {
		case model.StatusInStock:
			return dto.IndicatorUnmanagedInStock
		case model.StatusOnBackorder:
			return dto.IndicatorUnmanagedBackorder
		default:
			return dto.IndicatorUnmanagedOutOfStock
		}
	}

	switch {
	case p.StockQuantity() <= 0 && p.Backorders:
		return dto.IndicatorOutOfStockBackorder
	case p.StockQuantity() <= 0:
		return dto.IndicatorOutOfStock
	case low:
		return dto.IndicatorLowStock
	default:
		return dto.IndicatorInStock
	}
}

func totals(rows []dto.StockRow) dto.Totals {
	var t dto.Totals
	for _, r := range rows {
		if r.Stock != nil {
			t.Stock += *r.Stock
		}
		t.Inbound += r.Inbound
		for _, c := range r.Children {
			if c.Stock != nil {
				t.Stock += *c.Stock
			}
			t.Inbound += c.Inbound
		}
	}
	return t
}
