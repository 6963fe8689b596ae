package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/linemk/resto-orders/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_ReturnsInsertedRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewOrderRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("ORD-202509011200-1234", 3, "Иван", false, int64(5), models.StatusInitialized).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	order, err := repo.CreateOrder(context.Background(), &models.Order{
		OrderNumber:  "ORD-202509011200-1234",
		TableNumber:  3,
		CustomerName: "Иван",
		UserID:       5,
		Status:       models.StatusInitialized,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_MapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_order_number_key"})

	_, err = repo.CreateOrder(context.Background(), &models.Order{
		OrderNumber: "ORD-202509011200-1234",
		Status:      models.StatusInitialized,
	})
	assert.ErrorIs(t, err, ErrOrderNumberTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, order_number, table_number, customer_name, is_group_order, user_id, status, created_at, updated_at FROM orders WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetOrderByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewOrderRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(models.StatusCancelled, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateOrderStatus(context.Background(), 404, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_ScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewOrderRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "order_number", "table_number", "customer_name", "is_group_order", "user_id", "status", "created_at", "updated_at"}).
		AddRow(int64(2), "ORD-202509011201-2222", 4, "Анна", false, int64(5), "in_progress", now, now).
		AddRow(int64(1), "ORD-202509011200-1111", 7, "Анна", true, int64(5), "completed", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = $1 ORDER BY created_at DESC")).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	orders, err := repo.GetOrdersByUserID(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, models.StatusInProgress, orders[0].Status)
	assert.Equal(t, models.StatusCompleted, orders[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCart_MapsActiveCartViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shopping_carts (user_id) VALUES ($1) RETURNING id, created_at, updated_at")).
		WithArgs(int64(5)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "shopping_carts_one_active_per_user"})

	_, err = repo.CreateCart(context.Background(), 5)
	assert.ErrorIs(t, err, ErrActiveCartExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveCartByUserID_LoadsItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM shopping_carts WHERE user_id = $1 AND order_number IS NULL")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "created_at", "updated_at"}).
			AddRow(int64(3), int64(5), nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items WHERE cart_id = $1 ORDER BY id")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cart_id", "menu_item_id", "quantity", "customizations", "created_at", "updated_at"}).
			AddRow(int64(1), int64(3), int64(2), 3, []byte(`{"size":"large"}`), now, now))

	cart, err := repo.GetActiveCartByUserID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, cart.OrderNumber)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, map[string]any{"size": "large"}, cart.Items[0].Customizations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCartByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shopping_carts WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetCartByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertItemTx_MergesQuantities(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (cart_id, menu_item_id)")).
		WithArgs(int64(3), int64(2), 4, []byte(`{"size":"large"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.UpsertItemTx(context.Background(), tx, 3, 2, 4, map[string]any{"size": "large"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE id = $1 AND cart_id = $2")).
		WithArgs(int64(404), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.DeleteItemTx(context.Background(), tx, 3, 404)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachOrderNumberTx_AlreadyAttached(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	// корзина уже с номером: условие order_number IS NULL не проходит, 0 строк
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shopping_carts SET order_number = $1, updated_at = NOW() WHERE id = $2 AND order_number IS NULL")).
		WithArgs("ORD-202509011200-1234", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.AttachOrderNumberTx(context.Background(), tx, 3, "ORD-202509011200-1234")
	assert.ErrorIs(t, err, ErrCartNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartTotal_SumsByCurrentPrices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(mi.price * ci.quantity), 0)")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(28.5))

	total, err := repo.CartTotal(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 28.5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMenuItemByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMenuItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, price, is_available FROM menu_items WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetMenuItemByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMenuItemByID_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMenuItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, price, is_available FROM menu_items WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).
			AddRow(int64(2), "Пицца", 9.5, true))

	item, err := repo.GetMenuItemByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Пицца", item.Name)
	assert.Equal(t, 9.5, item.Price)
	assert.True(t, item.IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
