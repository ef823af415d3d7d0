package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mockDB.Close()
	})
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var stockCols = []string{"id", "product_inventory_id", "units", "units_sold", "last_checked"}

func TestStockRepository_SellUnits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE stocks")).
		WithArgs(1, 3).
		WillReturnRows(sqlmock.NewRows(stockCols).AddRow(1, 10, 7, 3, time.Now()))

	stock, err := repo.SellUnits(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, stock.Units)
	assert.Equal(t, 3, stock.UnitsSold)
	assert.NotNil(t, stock.LastChecked)
}

func TestStockRepository_SellUnitsInsufficient(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE stocks")).
		WithArgs(1, 5).
		WillReturnRows(sqlmock.NewRows(stockCols))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT units FROM stocks WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"units"}).AddRow(2))

	_, err := repo.SellUnits(context.Background(), 1, 5)
	assert.ErrorIs(t, err, utils.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "2 in stock")
}

func TestStockRepository_SellUnitsMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE stocks")).
		WithArgs(9, 1).
		WillReturnRows(sqlmock.NewRows(stockCols))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT units FROM stocks")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"units"}))

	_, err := repo.SellUnits(context.Background(), 9, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

var productCols = []string{"id", "name", "slug", "description", "brand_id", "brand_name", "is_active", "created_at", "updated_at"}

func TestProductRepository_FilterBuildsConjunctiveQuery(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	categoryID := 5
	lo, hi := decimal.RequireFromString("500"), decimal.RequireFromString("1100")
	filter := models.ProductFilter{
		CategoryID: &categoryID,
		BrandIDs:   []int{1, 2},
		PriceMin:   &lo,
		PriceMax:   &hi,
		Limit:      10,
		Offset:     20,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM products p WHERE 1=1 AND EXISTS")).
		WithArgs(5, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.id LIMIT $5 OFFSET $6")).
		WithArgs(5, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 10, 20).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(21, "Widget", "widget", "", 1, "Acme", true, time.Now(), time.Now()))

	products, total, err := repo.Filter(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Acme", products[0].BrandName)
}

func TestProductRepository_FilterWithoutFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM products p WHERE 1=1$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(productCols))

	products, total, err := repo.Filter(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, products)
}

func TestOrderRepository_CreateRunsInTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	order := &models.Order{CustomerID: 1, Status: models.OrderStatusPending}
	require.NoError(t, repo.Create(context.Background(), order, []int{3, 4, 3}))
	assert.Equal(t, 9, order.ID)
	assert.Equal(t, now, order.CreatedAt)
}

func TestOrderRepository_CreateUnknownInventory(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Order{}, []int{99})
	assert.ErrorIs(t, err, utils.ErrUnknownInventory)
}

func TestCategoryRepository_DeleteInUse(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), utils.ErrCategoryInUse)
}

func TestCategoryRepository_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), sql.ErrNoRows)
}

func TestCategoryRepository_ForProductsGroupsRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM product_categories pc")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "name", "slug", "is_active", "parent_id", "level"}).
			AddRow(1, 10, "Home", "home", true, nil, 0).
			AddRow(1, 11, "Kitchen", "kitchen", true, 10, 1).
			AddRow(2, 10, "Home", "home", true, nil, 0))

	byProduct, err := repo.ForProducts(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, byProduct[1], 2)
	assert.Equal(t, "Kitchen", byProduct[1][1].Name)
	assert.Equal(t, 10, *byProduct[1][1].ParentID)
	assert.Len(t, byProduct[2], 1)
}

func TestBrandRepository_DeleteInUse(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBrandRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM brands")).
		WithArgs(1).
		WillReturnError(&pq.Error{Code: "23503"})

	assert.ErrorIs(t, repo.Delete(context.Background(), 1), utils.ErrBrandInUse)
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, uniqueIDs([]int{3, 1, 3, 2, 1}))
	assert.Equal(t, pq.Int64Array{1, 2}, idArray([]int{1, 2}))
}
