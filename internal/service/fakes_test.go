package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"

	"github.com/linemk/resto-orders/internal/domain/models"
)

// Фейковые реализации хранилищ: поведение каждого метода задаётся
// функцией-полем, незаданный метод считается неожиданным вызовом.

var errUnexpectedCall = errors.New("unexpected storage call")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOrderStorage struct {
	createOrderFn         func(ctx context.Context, order *models.Order) (*models.Order, error)
	getOrderByIDFn        func(ctx context.Context, id int64) (*models.Order, error)
	getOrderByNumberFn    func(ctx context.Context, orderNumber string) (*models.Order, error)
	getOrdersByUserIDFn   func(ctx context.Context, userID int64) ([]*models.Order, error)
	getOrdersByStatusFn   func(ctx context.Context, status models.OrderStatus) ([]*models.Order, error)
	getActiveOrdersFn     func(ctx context.Context) ([]*models.Order, error)
	updateOrderStatusFn   func(ctx context.Context, id int64, status models.OrderStatus) error
	updateOrderStatusTxFn func(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error
}

func (f *fakeOrderStorage) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if f.createOrderFn == nil {
		return nil, errUnexpectedCall
	}
	return f.createOrderFn(ctx, order)
}

func (f *fakeOrderStorage) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	if f.getOrderByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getOrderByIDFn(ctx, id)
}

func (f *fakeOrderStorage) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if f.getOrderByNumberFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getOrderByNumberFn(ctx, orderNumber)
}

func (f *fakeOrderStorage) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	if f.getOrdersByUserIDFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getOrdersByUserIDFn(ctx, userID)
}

func (f *fakeOrderStorage) GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	if f.getOrdersByStatusFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getOrdersByStatusFn(ctx, status)
}

func (f *fakeOrderStorage) GetActiveOrders(ctx context.Context) ([]*models.Order, error) {
	if f.getActiveOrdersFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getActiveOrdersFn(ctx)
}

func (f *fakeOrderStorage) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	if f.updateOrderStatusFn == nil {
		return errUnexpectedCall
	}
	return f.updateOrderStatusFn(ctx, id, status)
}

func (f *fakeOrderStorage) UpdateOrderStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error {
	if f.updateOrderStatusTxFn == nil {
		return errUnexpectedCall
	}
	return f.updateOrderStatusTxFn(ctx, tx, id, status)
}

type fakeCartStorage struct {
	createCartFn            func(ctx context.Context, userID int64) (*models.Cart, error)
	getActiveCartByUserIDFn func(ctx context.Context, userID int64) (*models.Cart, error)
	getCartByIDFn           func(ctx context.Context, cartID int64) (*models.Cart, error)
	getCartByOrderNumberFn  func(ctx context.Context, orderNumber string) (*models.Cart, error)
	getItemFn               func(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	upsertItemTxFn          func(ctx context.Context, tx *sql.Tx, cartID, menuItemID int64, quantity int, customizations map[string]any) error
	updateItemTxFn          func(ctx context.Context, tx *sql.Tx, itemID int64, quantity int, customizations map[string]any) error
	deleteItemTxFn          func(ctx context.Context, tx *sql.Tx, cartID, itemID int64) error
	clearItemsTxFn          func(ctx context.Context, tx *sql.Tx, cartID int64) error
	attachOrderNumberTxFn   func(ctx context.Context, tx *sql.Tx, cartID int64, orderNumber string) error
	cartTotalFn             func(ctx context.Context, cartID int64) (float64, error)
}

func (f *fakeCartStorage) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	if f.createCartFn == nil {
		return nil, errUnexpectedCall
	}
	return f.createCartFn(ctx, userID)
}

func (f *fakeCartStorage) GetActiveCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	if f.getActiveCartByUserIDFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getActiveCartByUserIDFn(ctx, userID)
}

func (f *fakeCartStorage) GetCartByID(ctx context.Context, cartID int64) (*models.Cart, error) {
	if f.getCartByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getCartByIDFn(ctx, cartID)
}

func (f *fakeCartStorage) GetCartByOrderNumber(ctx context.Context, orderNumber string) (*models.Cart, error) {
	if f.getCartByOrderNumberFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getCartByOrderNumberFn(ctx, orderNumber)
}

func (f *fakeCartStorage) GetItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	if f.getItemFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getItemFn(ctx, cartID, itemID)
}

func (f *fakeCartStorage) UpsertItemTx(ctx context.Context, tx *sql.Tx, cartID, menuItemID int64, quantity int, customizations map[string]any) error {
	if f.upsertItemTxFn == nil {
		return errUnexpectedCall
	}
	return f.upsertItemTxFn(ctx, tx, cartID, menuItemID, quantity, customizations)
}

func (f *fakeCartStorage) UpdateItemTx(ctx context.Context, tx *sql.Tx, itemID int64, quantity int, customizations map[string]any) error {
	if f.updateItemTxFn == nil {
		return errUnexpectedCall
	}
	return f.updateItemTxFn(ctx, tx, itemID, quantity, customizations)
}

func (f *fakeCartStorage) DeleteItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID int64) error {
	if f.deleteItemTxFn == nil {
		return errUnexpectedCall
	}
	return f.deleteItemTxFn(ctx, tx, cartID, itemID)
}

func (f *fakeCartStorage) ClearItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	if f.clearItemsTxFn == nil {
		return errUnexpectedCall
	}
	return f.clearItemsTxFn(ctx, tx, cartID)
}

func (f *fakeCartStorage) AttachOrderNumberTx(ctx context.Context, tx *sql.Tx, cartID int64, orderNumber string) error {
	if f.attachOrderNumberTxFn == nil {
		return errUnexpectedCall
	}
	return f.attachOrderNumberTxFn(ctx, tx, cartID, orderNumber)
}

func (f *fakeCartStorage) CartTotal(ctx context.Context, cartID int64) (float64, error) {
	if f.cartTotalFn == nil {
		return 0, errUnexpectedCall
	}
	return f.cartTotalFn(ctx, cartID)
}

type fakeMenuStorage struct {
	getMenuItemByIDFn   func(ctx context.Context, id int64) (*models.MenuItem, error)
	getMenuItemByIDTxFn func(ctx context.Context, tx *sql.Tx, id int64) (*models.MenuItem, error)
}

func (f *fakeMenuStorage) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	if f.getMenuItemByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getMenuItemByIDFn(ctx, id)
}

func (f *fakeMenuStorage) GetMenuItemByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.MenuItem, error) {
	if f.getMenuItemByIDTxFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getMenuItemByIDTxFn(ctx, tx, id)
}
