package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/resto-orders/internal/domain/models"
)

// MenuItemStorage — read-only доступ к меню.
// CRUD меню живёт в другом контуре, ядру заказов нужны только существование,
// доступность и текущая цена блюда.
type MenuItemStorage interface {
	GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error)
	// GetMenuItemByIDTx — то же в рамках внешней транзакции.
	GetMenuItemByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.MenuItem, error)
}

type menuItemRepository struct {
	db *sql.DB
}

func NewMenuItemRepository(db *sql.DB) MenuItemStorage {
	return &menuItemRepository{db: db}
}

const menuItemQuery = "SELECT id, name, price, is_available FROM menu_items WHERE id = $1"

func (r *menuItemRepository) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	return scanMenuItem(r.db.QueryRowContext(ctx, menuItemQuery, id))
}

func (r *menuItemRepository) GetMenuItemByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.MenuItem, error) {
	return scanMenuItem(tx.QueryRowContext(ctx, menuItemQuery, id))
}

func scanMenuItem(row *sql.Row) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	if err := row.Scan(&item.ID, &item.Name, &item.Price, &item.IsAvailable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	return item, nil
}
