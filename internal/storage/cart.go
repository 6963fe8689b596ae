package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/linemk/resto-orders/internal/domain/models"
)

// CartStorage описывает методы для работы с корзинами и их позициями.
type CartStorage interface {
	// CreateCart создаёт активную корзину; если она уже есть, возвращает ErrActiveCartExists.
	CreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	// GetActiveCartByUserID возвращает корзину пользователя с order_number IS NULL.
	GetActiveCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartByID(ctx context.Context, cartID int64) (*models.Cart, error)
	GetCartByOrderNumber(ctx context.Context, orderNumber string) (*models.Cart, error)
	GetItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	// UpsertItemTx вставляет позицию либо, если блюдо уже в корзине,
	// прибавляет количество и заменяет кастомизации.
	UpsertItemTx(ctx context.Context, tx *sql.Tx, cartID, menuItemID int64, quantity int, customizations map[string]any) error
	UpdateItemTx(ctx context.Context, tx *sql.Tx, itemID int64, quantity int, customizations map[string]any) error
	DeleteItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID int64) error
	ClearItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) error
	// AttachOrderNumberTx привязывает корзину к заказу, после чего она становится read-only.
	AttachOrderNumberTx(ctx context.Context, tx *sql.Tx, cartID int64, orderNumber string) error
	// CartTotal считает сумму корзины по текущим ценам меню.
	CartTotal(ctx context.Context, cartID int64) (float64, error)
}

// cartRepository — конкретная реализация CartStorage.
type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт новый репозиторий корзин.
func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID, Items: []*models.CartItem{}}
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO shopping_carts (user_id) VALUES ($1) RETURNING id, created_at, updated_at",
		userID,
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "shopping_carts_one_active_per_user") {
			return nil, ErrActiveCartExists
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) GetActiveCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, order_number, created_at, updated_at FROM shopping_carts WHERE user_id = $1 AND order_number IS NULL",
		userID)
	return r.scanCartWithItems(ctx, row)
}

func (r *cartRepository) GetCartByID(ctx context.Context, cartID int64) (*models.Cart, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, order_number, created_at, updated_at FROM shopping_carts WHERE id = $1",
		cartID)
	return r.scanCartWithItems(ctx, row)
}

func (r *cartRepository) GetCartByOrderNumber(ctx context.Context, orderNumber string) (*models.Cart, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, order_number, created_at, updated_at FROM shopping_carts WHERE order_number = $1",
		orderNumber)
	return r.scanCartWithItems(ctx, row)
}

func (r *cartRepository) scanCartWithItems(ctx context.Context, row *sql.Row) (*models.Cart, error) {
	cart := &models.Cart{}
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.OrderNumber, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	items, err := r.getItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

func (r *cartRepository) getItems(ctx context.Context, cartID int64) ([]*models.CartItem, error) {
	query := `SELECT id, cart_id, menu_item_id, quantity, customizations, created_at, updated_at
	          FROM cart_items WHERE cart_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanCartItem(row interface{ Scan(dest ...any) error }) (*models.CartItem, error) {
	item := &models.CartItem{}
	var rawCustomizations []byte
	err := row.Scan(&item.ID, &item.CartID, &item.MenuItemID, &item.Quantity, &rawCustomizations, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(rawCustomizations) > 0 {
		if err := json.Unmarshal(rawCustomizations, &item.Customizations); err != nil {
			return nil, fmt.Errorf("failed to decode customizations: %w", err)
		}
	}
	return item, nil
}

func (r *cartRepository) GetItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, cart_id, menu_item_id, quantity, customizations, created_at, updated_at
		 FROM cart_items WHERE id = $1 AND cart_id = $2`,
		itemID, cartID)
	item, err := scanCartItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func marshalCustomizations(customizations map[string]any) (any, error) {
	if customizations == nil {
		return nil, nil
	}
	raw, err := json.Marshal(customizations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode customizations: %w", err)
	}
	return raw, nil
}

func (r *cartRepository) UpsertItemTx(ctx context.Context, tx *sql.Tx, cartID, menuItemID int64, quantity int, customizations map[string]any) error {
	raw, err := marshalCustomizations(customizations)
	if err != nil {
		return err
	}
	query := `INSERT INTO cart_items (cart_id, menu_item_id, quantity, customizations)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (cart_id, menu_item_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
	                        customizations = EXCLUDED.customizations,
	                        updated_at = NOW()`
	if _, err := tx.ExecContext(ctx, query, cartID, menuItemID, quantity, raw); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateItemTx(ctx context.Context, tx *sql.Tx, itemID int64, quantity int, customizations map[string]any) error {
	raw, err := marshalCustomizations(customizations)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1, customizations = $2, updated_at = NOW() WHERE id = $3",
		quantity, raw, itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) DeleteItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID int64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1 AND cart_id = $2", itemID, cartID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) ClearItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *cartRepository) AttachOrderNumberTx(ctx context.Context, tx *sql.Tx, cartID int64, orderNumber string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE shopping_carts SET order_number = $1, updated_at = NOW() WHERE id = $2 AND order_number IS NULL",
		orderNumber, cartID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

// CartTotal суммирует позиции по текущим ценам из меню, а не по ценам на момент добавления.
func (r *cartRepository) CartTotal(ctx context.Context, cartID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(mi.price * ci.quantity), 0)
		 FROM cart_items ci
		 JOIN menu_items mi ON mi.id = ci.menu_item_id
		 WHERE ci.cart_id = $1`,
		cartID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate cart total: %w", err)
	}
	return total, nil
}
