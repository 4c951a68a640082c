package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/purchase"
	"github.com/fekuna/omnipos-stock-service/internal/sales"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fekuna/omnipos-stock-service/internal/stock"

// Cache prefixes of the memoized classification queries.
const (
	prefixAll      = "list_table_all"
	prefixInStock  = "list_table_in_stock"
	prefixLowStock = "list_table_low_stock"
)

// Cache is the transient store the engine memoizes its queries in.
type Cache interface {
	cache.Store
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// Searcher resolves a free-text term to product ids.
type Searcher interface {
	SearchProductIDs(ctx context.Context, term string) ([]int64, error)
}

type stockUseCase struct {
	products  product.Repository
	sales     sales.Repository
	purchases purchase.Repository
	cache     Cache
	search    Searcher
	cfg       config.StockConfig
	logger    logger.ZapLogger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewStockUseCase builds the classification engine. cache and search are optional:
// without a cache nothing is memoized, without a searcher the search term is matched in SQL.
func NewStockUseCase(
	products product.Repository,
	sales sales.Repository,
	purchases purchase.Repository,
	cache Cache,
	search Searcher,
	cfg config.StockConfig,
	log logger.ZapLogger,
) stock.UseCase {
	defaults := config.DefaultStockConfig()
	if cfg.SaleDays <= 0 {
		cfg.SaleDays = defaults.SaleDays
	}
	if cfg.VelocityDays <= 0 {
		cfg.VelocityDays = defaults.VelocityDays
	}
	if cfg.LostSalesDays <= 0 {
		cfg.LostSalesDays = defaults.LostSalesDays
	}
	if cfg.PerPage == 0 {
		cfg.PerPage = defaults.PerPage
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}

	return &stockUseCase{
		products:  products,
		sales:     sales,
		purchases: purchases,
		cache:     cache,
		search:    search,
		cfg:       cfg,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

func (uc *stockUseCase) FlushCache(ctx context.Context) (int, error) {
	if uc.cache == nil {
		return 0, nil
	}
	n, err := uc.cache.DeleteByPrefix(ctx, cache.Namespace)
	if err != nil {
		return 0, err
	}
	uc.logger.Info("stock cache flushed", zap.Int("keys", n))
	return n, nil
}

// caching is off without a store and in debug mode.
func (uc *stockUseCase) caching() bool {
	return uc.cache != nil && !uc.cfg.Debug
}

// remember returns the cached value under key, or loads and caches it. Cache failures
// are logged and fall through to load.
func remember[T any](ctx context.Context, uc *stockUseCase, key string, load func() (T, error)) (T, error) {
	var value T
	if uc.caching() {
		hit, err := uc.cache.Get(ctx, key, &value)
		if err != nil {
			uc.logger.Warn("stock cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return value, nil
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if uc.caching() {
		if err := uc.cache.Set(ctx, key, value, uc.cfg.CacheTTL); err != nil {
			uc.logger.Warn("stock cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}
