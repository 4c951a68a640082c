package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
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

func TestSold_EmptyIDsReturnsWithoutQuerying(t *testing.T) {
	repo, mock := newMockRepo(t)

	out, err := repo.Sold(context.Background(), nil, time.Now(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSold_ClosedWindowIsInclusiveAndCanonical(t *testing.T) {
	repo, mock := newMockRepo(t)
	loc := time.FixedZone("UTC+7", 7*3600)
	start := time.Date(2024, 3, 1, 7, 0, 0, 999, loc)
	end := time.Date(2024, 3, 8, 7, 0, 0, 0, loc)

	mock.ExpectQuery(regexp.QuoteMeta(`AND o.paid_at >= $5 AND o.paid_at <= $6 GROUP BY COALESCE(oi.variation_id, oi.product_id)`)).
		WithArgs(model.OrderCompleted, model.OrderProcessing, int64(10), int64(11),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "qty", "total"}).AddRow(11, 3.0, "29.97"))

	out, err := repo.Sold(context.Background(), []int64{10, 11}, start, &end)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(11), out[0].ProductID)
	assert.Equal(t, 3.0, out[0].Qty)
	assert.True(t, decimal.RequireFromString("29.97").Equal(out[0].Total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSold_OpenWindow(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`AND o.paid_at >= \$4 GROUP BY`).
		WithArgs(model.OrderCompleted, model.OrderProcessing, int64(5), start).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "qty", "total"}))

	out, err := repo.Sold(context.Background(), []int64{5}, start, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}
