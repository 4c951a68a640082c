package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	productdto "github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/shopspring/decimal"
)

// memCatalog is an in-memory product, sales and purchase store.
type memCatalog struct {
	mu       sync.Mutex
	products map[int64]*model.Product
	groups   map[int64][]int64 // grouped parent -> members
	sales    []sale
	pending  map[int64]float64

	salesErr   error
	findErr    error
	findIDs    int
	soldCalls  int
	inStockQry int
}

type sale struct {
	productID int64
	qty       float64
	total     decimal.Decimal
	paidAt    time.Time
}

func newCatalog() *memCatalog {
	return &memCatalog{
		products: map[int64]*model.Product{},
		groups:   map[int64][]int64{},
		pending:  map[int64]float64{},
	}
}

func (m *memCatalog) add(p model.Product) *model.Product {
	if p.Status == "" {
		p.Status = model.StatusPublish
	}
	if p.Name == "" {
		p.Name = "product"
	}
	m.products[p.ID] = &p
	return &p
}

func (m *memCatalog) parentOf(p *model.Product) *model.Product {
	if p.ParentID == nil {
		return nil
	}
	return m.products[*p.ParentID]
}

func (m *memCatalog) matches(p *model.Product, f *productdto.ProductFilters) bool {
	if p.Type == model.TypeVariation {
		return false
	}
	if f.IDs != nil && !contains(f.IDs, p.ID) {
		return false
	}
	if contains(f.ExcludeIDs, p.ID) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, p.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, p.Status) {
		return false
	}
	if f.Controlled != nil && p.Controlled != *f.Controlled && !p.Type.IsContainer() {
		return false
	}
	if f.Downloadable && !p.IsDownloadable {
		return false
	}
	if f.Virtual && !p.IsVirtual {
		return false
	}
	if f.SupplierID != nil && !m.suppliedBy(p, *f.SupplierID, f.Controlled) {
		return false
	}
	if f.SearchQuery != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.SearchQuery)) {
		return false
	}
	return true
}

func (m *memCatalog) suppliedBy(p *model.Product, supplier int64, controlled *bool) bool {
	if p.SupplierID != nil && *p.SupplierID == supplier {
		return true
	}
	for _, v := range m.products {
		if v.Type != model.TypeVariation || v.ParentID == nil || *v.ParentID != p.ID {
			continue
		}
		if v.SupplierID == nil || *v.SupplierID != supplier {
			continue
		}
		if controlled == nil || v.Controlled == *controlled {
			return true
		}
	}
	return false
}

func (m *memCatalog) sorted() []*model.Product {
	out := make([]*model.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memCatalog) FindByID(_ context.Context, id int64) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memCatalog) FindByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Product{}
	for _, p := range m.sorted() {
		if contains(ids, p.ID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memCatalog) FindIDs(_ context.Context, f *productdto.ProductFilters) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findIDs++
	if m.findErr != nil {
		return nil, m.findErr
	}
	ids := []int64{}
	for _, p := range m.sorted() {
		if m.matches(p, f) {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (m *memCatalog) FindPage(_ context.Context, f *productdto.ProductFilters) ([]model.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, 0, m.findErr
	}
	all := []model.Product{}
	for _, p := range m.sorted() {
		if m.matches(p, f) {
			all = append(all, *p)
		}
	}
	if f.SortBy == "name" {
		sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	}
	if f.PageSize <= 0 {
		return all, len(all), nil
	}
	start := (f.Page - 1) * f.PageSize
	if start >= len(all) {
		return []model.Product{}, len(all), nil
	}
	end := start + f.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memCatalog) FindChildren(_ context.Context, f *productdto.ChildFilters) ([]model.ChildLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := []model.ChildLink{}
	keep := func(c *model.Product) bool {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, c.Status) {
			return false
		}
		if c.Controlled != f.Controlled {
			return false
		}
		return f.SupplierID == nil || (c.SupplierID != nil && *c.SupplierID == *f.SupplierID)
	}
	switch f.ParentType {
	case model.TypeVariable:
		for _, c := range m.sorted() {
			if c.Type == model.TypeVariation && c.ParentID != nil && contains(f.ParentIDs, *c.ParentID) && keep(c) {
				links = append(links, model.ChildLink{ID: c.ID, ParentID: *c.ParentID})
			}
		}
	case model.TypeGrouped:
		for _, parent := range f.ParentIDs {
			for _, id := range m.groups[parent] {
				if c, ok := m.products[id]; ok && !c.Type.IsContainer() && keep(c) {
					links = append(links, model.ChildLink{ID: id, ParentID: parent})
				}
			}
		}
	}
	return links, nil
}

func (m *memCatalog) FindParents(_ context.Context, ids []int64) ([]model.ChildLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := []model.ChildLink{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.Type == model.TypeVariation && p.ParentID != nil {
			links = append(links, model.ChildLink{ID: id, ParentID: *p.ParentID})
		}
		for parent, members := range m.groups {
			if contains(members, id) {
				links = append(links, model.ChildLink{ID: id, ParentID: parent})
			}
		}
	}
	return links, nil
}

func (m *memCatalog) UnmanagedIDs(_ context.Context, ids []int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []int64{}
	for _, id := range ids {
		p, ok := m.products[id]
		if !ok || p.Type.IsContainer() {
			continue
		}
		if !p.ManagingStock(m.parentOf(p)) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memCatalog) InStock(_ context.Context, ids []int64) ([]model.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inStockQry++
	out := []model.StockLevel{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.StockQuantity() > 0 {
			out = append(out, model.StockLevel{ID: id, Stock: p.StockQuantity()})
		}
	}
	return out, nil
}

func (m *memCatalog) Unmanaged(_ context.Context, statuses []model.PublishStatus) ([]model.UnmanagedProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.UnmanagedProduct{}
	for _, p := range m.sorted() {
		if p.Type.IsContainer() || !containsStatus(statuses, p.Status) {
			continue
		}
		if !p.ManagingStock(m.parentOf(p)) {
			out = append(out, model.UnmanagedProduct{ID: p.ID, StockStatus: p.StockStatus})
		}
	}
	return out, nil
}

func (m *memCatalog) Sold(_ context.Context, ids []int64, start time.Time, end *time.Time) ([]model.SalesAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.soldCalls++
	if m.salesErr != nil {
		return nil, m.salesErr
	}
	byID := map[int64]*model.SalesAggregate{}
	order := []int64{}
	for _, s := range m.sales {
		if !contains(ids, s.productID) || s.paidAt.Before(start) || (end != nil && s.paidAt.After(*end)) {
			continue
		}
		agg, ok := byID[s.productID]
		if !ok {
			agg = &model.SalesAggregate{ProductID: s.productID}
			byID[s.productID] = agg
			order = append(order, s.productID)
		}
		agg.Qty += s.qty
		agg.Total = agg.Total.Add(s.total)
	}
	out := []model.SalesAggregate{}
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (m *memCatalog) Inbound(_ context.Context, id int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[id], nil
}

func (m *memCatalog) InboundByProducts(_ context.Context, ids []int64) ([]model.InboundAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.InboundAggregate{}
	for _, id := range ids {
		if q, ok := m.pending[id]; ok {
			out = append(out, model.InboundAggregate{ProductID: id, Qty: q})
		}
	}
	return out, nil
}

// memCache is a JSON-encoding map standing in for Redis.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}

type stubSearcher struct {
	ids  []int64
	term string
}

func (s *stubSearcher) SearchProductIDs(_ context.Context, term string) ([]int64, error) {
	s.term = term
	return s.ids, nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsType(types []model.ProductType, t model.ProductType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsStatus(statuses []model.PublishStatus, s model.PublishStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
