package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/resto-orders/internal/domain/models"
	"github.com/linemk/resto-orders/internal/storage"
)

// CartService управляет корзиной пользователя.
type CartService interface {
	// GetOrCreateActiveCart возвращает активную корзину пользователя, создавая её при необходимости.
	GetOrCreateActiveCart(ctx context.Context, userID int64) (*models.Cart, error)
	GetCart(ctx context.Context, cartID int64) (*models.Cart, error)
	GetCartByOrderNumber(ctx context.Context, orderNumber string) (*models.Cart, error)
	AddItem(ctx context.Context, cartID, menuItemID int64, quantity int, customizations map[string]any) (*models.Cart, error)
	UpdateItem(ctx context.Context, cartID, itemID int64, quantity *int, customizations map[string]any) (*models.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID int64) (*models.Cart, error)
	Clear(ctx context.Context, cartID int64) (*models.Cart, error)
	Total(ctx context.Context, cartID int64) (float64, error)
}

type cartService struct {
	log      *slog.Logger
	db       *sql.DB
	cartRepo storage.CartStorage
	menuRepo storage.MenuItemStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, menuRepo storage.MenuItemStorage) CartService {
	return &cartService{
		log:      log,
		db:       db,
		cartRepo: cartRepo,
		menuRepo: menuRepo,
	}
}

// GetOrCreateActiveCart возвращает корзину с order_number IS NULL.
// Гонка двух конкурентных созданий гасится частичным уникальным индексом:
// проигравший получает ErrActiveCartExists и перечитывает корзину победителя.
func (s *cartService) GetOrCreateActiveCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.GetOrCreateActiveCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	cart, err := s.cartRepo.GetActiveCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, storage.ErrCartNotFound) {
		logger.Error("failed to get active cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get active cart: %w", op, err)
	}

	logger.Info("no active cart, creating new one")
	cart, err = s.cartRepo.CreateCart(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrActiveCartExists) {
			// конкурентный запрос успел первым, берём его корзину
			return s.cartRepo.GetActiveCartByUserID(ctx, userID)
		}
		logger.Error("failed to create cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create cart: %w", op, err)
	}
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, cartID int64) (*models.Cart, error) {
	return s.cartRepo.GetCartByID(ctx, cartID)
}

func (s *cartService) GetCartByOrderNumber(ctx context.Context, orderNumber string) (*models.Cart, error) {
	return s.cartRepo.GetCartByOrderNumber(ctx, orderNumber)
}

// guardMutable отклоняет изменение корзины, уже привязанной к заказу.
func guardMutable(cart *models.Cart) error {
	if cart.Attached() {
		return NewValidationError("cannot modify cart attached to order %s", *cart.OrderNumber)
	}
	return nil
}

// AddItem добавляет блюдо в корзину. Если блюдо уже есть, количество суммируется,
// а кастомизации заменяются на новые.
func (s *cartService) AddItem(ctx context.Context, cartID, menuItemID int64, quantity int, customizations map[string]any) (*models.Cart, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("cartID", cartID), slog.Int64("menuItemID", menuItemID))

	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetCartByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(cart); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Проверяем, что блюдо существует и доступно; недоступное блюдо считается отсутствующим
	menuItem, err := s.menuRepo.GetMenuItemByIDTx(ctx, tx, menuItemID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, err
	}
	if !menuItem.IsAvailable {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("menu item is not available")
		return nil, fmt.Errorf("%s: menu item %d: %w", op, menuItemID, storage.ErrMenuItemNotFound)
	}

	if err := s.cartRepo.UpsertItemTx(ctx, tx, cartID, menuItemID, quantity, customizations); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to upsert cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to upsert cart item: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return s.cartRepo.GetCartByID(ctx, cartID)
}

// UpdateItem меняет количество и/или кастомизации позиции.
// Количество <= 0 трактуется как удаление позиции.
func (s *cartService) UpdateItem(ctx context.Context, cartID, itemID int64, quantity *int, customizations map[string]any) (*models.Cart, error) {
	const op = "service.CartService.UpdateItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("cartID", cartID), slog.Int64("itemID", itemID))

	cart, err := s.cartRepo.GetCartByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(cart); err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(ctx, cartID, itemID)
	if err != nil {
		return nil, err
	}

	newQuantity := item.Quantity
	if quantity != nil {
		newQuantity = *quantity
	}
	newCustomizations := item.Customizations
	if customizations != nil {
		newCustomizations = customizations
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if newQuantity <= 0 {
		logger.Info("quantity dropped to zero, removing item")
		err = s.cartRepo.DeleteItemTx(ctx, tx, cartID, itemID)
	} else {
		err = s.cartRepo.UpdateItemTx(ctx, tx, itemID, newQuantity, newCustomizations)
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update cart item", slog.Any("error", err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return s.cartRepo.GetCartByID(ctx, cartID)
}

// RemoveItem удаляет позицию; отсутствующая позиция — это NotFound, а не no-op.
func (s *cartService) RemoveItem(ctx context.Context, cartID, itemID int64) (*models.Cart, error) {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("cartID", cartID), slog.Int64("itemID", itemID))

	cart, err := s.cartRepo.GetCartByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(cart); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.cartRepo.DeleteItemTx(ctx, tx, cartID, itemID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return s.cartRepo.GetCartByID(ctx, cartID)
}

func (s *cartService) Clear(ctx context.Context, cartID int64) (*models.Cart, error) {
	const op = "service.CartService.Clear"
	logger := s.log.With(slog.String("op", op), slog.Int64("cartID", cartID))

	cart, err := s.cartRepo.GetCartByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(cart); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.cartRepo.ClearItemsTx(ctx, tx, cartID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return s.cartRepo.GetCartByID(ctx, cartID)
}

// Total считает сумму корзины по текущим ценам меню, цены в корзине не кэшируются.
func (s *cartService) Total(ctx context.Context, cartID int64) (float64, error) {
	if _, err := s.cartRepo.GetCartByID(ctx, cartID); err != nil {
		return 0, err
	}
	return s.cartRepo.CartTotal(ctx, cartID)
}
