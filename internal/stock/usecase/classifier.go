package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	productdto "github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// topLevelTypes is the product type filter when none is requested.
var topLevelTypes = []model.ProductType{model.TypeSimple, model.TypeVariable, model.TypeGrouped}

func (uc *stockUseCase) Classify(ctx context.Context, c *dto.Criteria) (*dto.Classification, error) {
	ctx, span := uc.tracer.Start(ctx, "stock.Classify")
	defer span.End()

	filters, err := uc.catalogFilters(ctx, c)
	if err != nil {
		return nil, err
	}

	result, err := uc.classify(ctx, c, filters)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("stock.count_all", result.Counts.All),
		attribute.Int("stock.count_in_stock", result.Counts.InStock),
		attribute.Int("stock.count_low_stock", result.Counts.LowStock),
		attribute.Int("stock.count_out_stock", result.Counts.OutOfStock),
		attribute.Int("stock.count_unmanaged", result.Counts.Unmanaged),
	)
	return result, nil
}

// catalogFilters turns the criteria into the top-level product query.
func (uc *stockUseCase) catalogFilters(ctx context.Context, c *dto.Criteria) (*productdto.ProductFilters, error) {
	if !c.View.Valid() {
		return nil, fmt.Errorf("%w: unknown view %q", stock.ErrInvalidCriteria, c.View)
	}

	controlled := !c.Uncontrolled
	f := &productdto.ProductFilters{
		Types:        topLevelTypes,
		Statuses:     publishStatuses(c.IncludePrivate),
		Controlled:   &controlled,
		CategorySlug: c.Category,
		SupplierID:   c.SupplierID,
		ExcludeIDs:   c.Exclude,
	}

	switch c.ProductType {
	case "":
	case dto.TypeDownloadable:
		f.Types = []model.ProductType{model.TypeSimple}
		f.Downloadable = true
	case dto.TypeVirtual:
		f.Types = []model.ProductType{model.TypeSimple}
		f.Virtual = true
	case string(model.TypeSimple), string(model.TypeVariable), string(model.TypeGrouped):
		f.Types = []model.ProductType{model.ProductType(c.ProductType)}
	default:
		return nil, fmt.Errorf("%w: unknown product type %q", stock.ErrInvalidCriteria, c.ProductType)
	}

	if c.Search != "" {
		if uc.search == nil {
			f.SearchQuery = c.Search
		} else {
			ids, err := uc.search.SearchProductIDs(ctx, c.Search)
			if err != nil {
				return nil, err
			}
			f.IDs = append([]int64{}, ids...)
		}
	}
	return f, nil
}

func (uc *stockUseCase) classify(ctx context.Context, c *dto.Criteria, filters *productdto.ProductFilters) (*dto.Classification, error) {
	result := &dto.Classification{
		Candidates: []int64{},
		InStock:    []int64{},
		LowStock:   []int64{},
		OutOfStock: []int64{},
		Unmanaged:  []int64{},
		Expansion:  dto.NewExpansion(),
	}

	products, err := remember(ctx, uc, cache.Identifier(filters, prefixAll), func() ([]int64, error) {
		return uc.products.FindIDs(ctx, filters)
	})
	if err != nil {
		return nil, err
	}
	result.Counts.All = len(products)
	if len(products) == 0 {
		return result, nil
	}

	// A filtered catalog only expands the containers it matched.
	var restrict []int64
	if c.Filtering() {
		restrict = products
	}

	candidates := products
	for _, t := range filters.Types {
		if !t.IsContainer() {
			continue
		}
		children, err := uc.expand(ctx, t, restrict, c, result.Expansion)
		if err != nil {
			return nil, err
		}
		candidates = union(difference(candidates, result.Expansion.AllContainers[t]), children)
	}
	// Containers are never classified, even when listed as another container's child.
	for _, ids := range result.Expansion.AllContainers {
		candidates = difference(candidates, ids)
	}
	result.Candidates = candidates
	result.Counts.All = len(candidates)

	// Products outside inventory control get no stock totals.
	if c.Uncontrolled || len(candidates) == 0 {
		return result, nil
	}

	if err := uc.partition(ctx, candidates, result); err != nil {
		return nil, err
	}
	return result, nil
}

// expand resolves the containers of type t to their children matching the control-filter.
func (uc *stockUseCase) expand(ctx context.Context, t model.ProductType, restrict []int64, c *dto.Criteria, exp *dto.Expansion) ([]int64, error) {
	parentFilters := &productdto.ProductFilters{
		Types:    []model.ProductType{t},
		Statuses: publishStatuses(c.IncludePrivate),
	}
	if restrict != nil {
		parentFilters.IDs = restrict
	}
	// Excluded containers are not expanded.
	parentFilters.ExcludeIDs = c.Exclude
	parents, err := uc.products.FindIDs(ctx, parentFilters)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return []int64{}, nil
	}
	exp.AllContainers[t] = union(exp.AllContainers[t], parents)

	links, err := uc.products.FindChildren(ctx, &productdto.ChildFilters{
		ParentType: t,
		ParentIDs:  parents,
		Statuses:   publishStatuses(c.IncludePrivate),
		Controlled: !c.Uncontrolled,
		SupplierID: c.SupplierID,
	})
	if err != nil {
		return nil, err
	}

	withChildren := make([]int64, 0, len(parents))
	children := make([]int64, 0, len(links))
	for _, link := range links {
		if len(exp.Children[link.ParentID]) == 0 {
			withChildren = append(withChildren, link.ParentID)
		}
		exp.Children[link.ParentID] = append(exp.Children[link.ParentID], link.ID)
		children = append(children, link.ID)
	}

	exp.WithChildren[t] = union(exp.WithChildren[t], withChildren)
	exp.Excluded = union(exp.Excluded, difference(parents, withChildren))

	// A grouped item in several groups is still one product.
	return unique(children), nil
}

// partition fills the stock buckets of result for the expanded candidates.
func (uc *stockUseCase) partition(ctx context.Context, candidates []int64, result *dto.Classification) error {
	unmanaged, err := uc.products.UnmanagedIDs(ctx, candidates)
	if err != nil {
		return err
	}
	unmanaged = intersect(candidates, unmanaged)
	managed := difference(candidates, unmanaged)

	levels, err := remember(ctx, uc, cache.Identifier(map[string]interface{}{"ids": managed}, prefixInStock), func() ([]model.StockLevel, error) {
		return uc.products.InStock(ctx, managed)
	})
	if err != nil {
		return err
	}
	inStock := make([]int64, 0, len(levels))
	for _, l := range levels {
		inStock = append(inStock, l.ID)
	}
	inStock = intersect(managed, inStock)

	lowStock := []int64{}
	if len(inStock) > 0 {
		since := uc.now().AddDate(0, 0, -uc.cfg.VelocityDays)
		key := cache.Identifier(map[string]interface{}{
			"ids":           inStock,
			"sale_days":     uc.cfg.SaleDays,
			"velocity_days": uc.cfg.VelocityDays,
			"since":         since.UTC().Format(time.DateOnly),
		}, prefixLowStock)
		lowStock, err = remember(ctx, uc, key, func() ([]int64, error) {
			return uc.lowStock(ctx, levels, since), nil
		})
		if err != nil {
			return err
		}
	}

	result.Unmanaged = unmanaged
	result.InStock = inStock
	result.LowStock = intersect(inStock, lowStock)
	result.OutOfStock = difference(managed, inStock)

	result.Counts.Unmanaged = len(result.Unmanaged)
	result.Counts.InStock = len(result.InStock)
	result.Counts.LowStock = len(result.LowStock)
	result.Counts.OutOfStock = result.Counts.All - result.Counts.InStock - result.Counts.Unmanaged
	return nil
}

// lowStock returns the in-stock products whose stock will not cover SaleDays of sales
// at the average daily rate of the velocity window. Failing to read sales counts as no sales.
func (uc *stockUseCase) lowStock(ctx context.Context, levels []model.StockLevel, since time.Time) []int64 {
	ids := make([]int64, 0, len(levels))
	for _, l := range levels {
		ids = append(ids, l.ID)
	}

	sold, err := uc.sales.Sold(ctx, ids, since, nil)
	if err != nil {
		uc.logger.Warn("sales velocity query failed, assuming no sales", zap.Error(err))
		return []int64{}
	}

	qty := make(map[int64]float64, len(sold))
	for _, s := range sold {
		qty[s.ProductID] += s.Qty
	}

	saleDays := decimal.NewFromInt(int64(uc.cfg.SaleDays))
	velocityDays := decimal.NewFromInt(int64(uc.cfg.VelocityDays))

	low := []int64{}
	for _, l := range levels {
		q, ok := qty[l.ID]
		if !ok || q <= 0 {
			continue
		}
		needed := decimal.NewFromFloat(q).Mul(saleDays).Div(velocityDays).Ceil()
		if needed.GreaterThan(decimal.NewFromFloat(l.Stock)) {
			low = append(low, l.ID)
		}
	}
	return low
}

func publishStatuses(includePrivate bool) []model.PublishStatus {
	if includePrivate {
		return []model.PublishStatus{model.StatusPublish, model.StatusPrivate}
	}
	return []model.PublishStatus{model.StatusPublish}
}
