package usecase

import (
	"context"
	"strconv"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	searchPageSize = 1000
	reindexBatch   = 500
	productsIndex  = "products"
)

var searchFields = []string{"name^3", "sku"}

const indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "long" },
			"name": { "type": "text" },
			"sku": { "type": "keyword" },
			"type": { "type": "keyword" },
			"status": { "type": "keyword" },
			"supplier_id": { "type": "long" },
			"created_at": { "type": "date" }
		}
	}
}`

// SearchIndex is the part of the Elasticsearch client the catalog needs.
type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	SearchIDs(ctx context.Context, index, term string, fields []string, pageSize int) ([]int64, error)
}

type productUseCase struct {
	repo   product.Repository
	es     SearchIndex
	index  string
	logger logger.ZapLogger
}

// NewProductUseCase builds the catalog use case. es may be nil, searches then go to the database.
func NewProductUseCase(repo product.Repository, es SearchIndex, index string, log logger.ZapLogger) product.UseCase {
	if index == "" {
		index = productsIndex
	}
	return &productUseCase{
		repo:   repo,
		es:     es,
		index:  index,
		logger: log,
	}
}

func (uc *productUseCase) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *productUseCase) SearchProductIDs(ctx context.Context, term string) ([]int64, error) {
	if uc.es != nil {
		ids, err := uc.es.SearchIDs(ctx, uc.index, term, searchFields, searchPageSize)
		if err == nil {
			return ids, nil
		}
		// If ES fails, fall through to DB
		uc.logger.Error("ES search failed, falling back to DB", zap.String("term", term), zap.Error(err))
	}

	return uc.repo.FindIDs(ctx, &dto.ProductFilters{SearchQuery: term})
}

func (uc *productUseCase) Reindex(ctx context.Context) (int, error) {
	if uc.es == nil {
		return 0, nil
	}
	if err := uc.es.CreateIndex(ctx, uc.index, indexMapping); err != nil {
		return 0, err
	}

	indexed := 0
	for page := 1; ; page++ {
		products, total, err := uc.repo.FindPage(ctx, &dto.ProductFilters{
			SortBy:    "id",
			SortOrder: "asc",
			Page:      page,
			PageSize:  reindexBatch,
		})
		if err != nil {
			return indexed, err
		}

		for i := range products {
			p := &products[i]
			if err := uc.es.Index(ctx, uc.index, strconv.FormatInt(p.ID, 10), p); err != nil {
				uc.logger.Error("failed to index product", zap.Int64("product_id", p.ID), zap.Error(err))
				continue
			}
			indexed++
		}

		if len(products) == 0 || page*reindexBatch >= total {
			break
		}
	}

	uc.logger.Info("catalog reindexed", zap.String("index", uc.index), zap.Int("documents", indexed))
	return indexed, nil
}
