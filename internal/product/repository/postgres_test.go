package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestInStock_ReturnsPositiveLevels(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.id, p.stock FROM products p WHERE p.id IN ($1, $2, $3) AND p.stock > 0`)).
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock"}).AddRow(1, 4.5).AddRow(3, 1))

	levels, err := repo.InStock(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []model.StockLevel{{ID: 1, Stock: 4.5}, {ID: 3, Stock: 1}}, levels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInStock_EmptyIDsSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	levels, err := repo.InStock(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, levels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnmanagedIDs_ResolvesParentFlag(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`LEFT JOIN products parent ON parent.id = p.parent_id\s+WHERE p.id IN \(\$1, \$2\) AND p.type NOT IN \('variable', 'grouped'\)`).
		WithArgs(int64(10), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	ids, err := repo.UnmanagedIDs(context.Background(), []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindChildren_Variable(t *testing.T) {
	repo, mock := newMockRepo(t)
	supplier := int64(9)

	mock.ExpectQuery(regexp.QuoteMeta(`c.parent_id IN ($1, $2) AND c.status IN ($3) AND c.controlled = $4 AND c.supplier_id = $5 ORDER BY c.name, c.id`)).
		WithArgs(int64(100), int64(200), model.StatusPublish, true, int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id"}).AddRow(101, 100).AddRow(102, 100))

	links, err := repo.FindChildren(context.Background(), &dto.ChildFilters{
		ParentType: model.TypeVariable,
		ParentIDs:  []int64{100, 200},
		Statuses:   []model.PublishStatus{model.StatusPublish},
		Controlled: true,
		SupplierID: &supplier,
	})
	require.NoError(t, err)
	assert.Equal(t, []model.ChildLink{{ID: 101, ParentID: 100}, {ID: 102, ParentID: 100}}, links)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindChildren_GroupedUsesLinkTable(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM grouped_children gc`)).
		WithArgs(int64(300), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id"}).AddRow(7, 300))

	links, err := repo.FindChildren(context.Background(), &dto.ChildFilters{
		ParentType: model.TypeGrouped,
		ParentIDs:  []int64{300},
	})
	require.NoError(t, err)
	assert.Equal(t, []model.ChildLink{{ID: 7, ParentID: 300}}, links)
}

func TestFindChildren_GroupedSkipsNestedContainers(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE gc.parent_id IN ($1) AND c.type NOT IN ('variable', 'grouped') AND c.status IN ($2) AND c.controlled = $3 ORDER BY c.name, c.id`)).
		WithArgs(int64(1), model.StatusPublish, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id"}))

	links, err := repo.FindChildren(context.Background(), &dto.ChildFilters{
		ParentType: model.TypeGrouped,
		ParentIDs:  []int64{1},
		Statuses:   []model.PublishStatus{model.StatusPublish},
		Controlled: true,
	})
	require.NoError(t, err)
	assert.Empty(t, links)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindIDs_BuildsFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	controlled := true

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.id FROM products p WHERE p.type <> 'variation' AND p.type IN ($1, $2) AND p.status IN ($3) AND (p.controlled = $4 OR p.type IN ('variable', 'grouped')) AND (p.name ILIKE $5 OR p.sku ILIKE $6) ORDER BY p.id`)).
		WithArgs(model.TypeSimple, model.TypeVariable, model.StatusPublish, true, "%mug%", "%mug%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	ids, err := repo.FindIDs(context.Background(), &dto.ProductFilters{
		Types:       []model.ProductType{model.TypeSimple, model.TypeVariable},
		Statuses:    []model.PublishStatus{model.StatusPublish},
		Controlled:  &controlled,
		SearchQuery: "mug",
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindIDs_EmptyRestrictionMatchesNothing(t *testing.T) {
	repo, mock := newMockRepo(t)

	ids, err := repo.FindIDs(context.Background(), &dto.ProductFilters{IDs: []int64{}})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPage_CountsAndPaginates(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM products p WHERE p.type <> 'variation' AND p.id IN ($1, $2)`)).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY p.name ASC, p.id ASC LIMIT 1 OFFSET 1`)).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "name"}).AddRow(2, "simple", "Zebra"))

	products, total, err := repo.FindPage(context.Background(), &dto.ProductFilters{
		IDs:       []int64{1, 2},
		SortBy:    "name",
		SortOrder: "asc",
		Page:      2,
		PageSize:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Zebra", products[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM products p WHERE p.id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFindParents_StorageErrorIsWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`UNION`).WithArgs(int64(4), int64(4)).WillReturnError(boom)

	_, err := repo.FindParents(context.Background(), []int64{4})
	require.Error(t, err)
	assert.Equal(t, boom, errors.Cause(err))
}
