package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/linemk/resto-orders/internal/domain/models"
	"github.com/linemk/resto-orders/internal/storage"
)

// Количество попыток вставки заказа при коллизии номера.
const maxOrderNumberAttempts = 3

// OrderService создаёт заказы и ведёт их по машине статусов.
type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, customerName string, isGroupOrder bool) (*models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID int64) ([]*models.Order, error)
	ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error)
	ListActiveOrders(ctx context.Context) ([]*models.Order, error)
	// UpdateOrder — прямая перезапись статуса, граф переходов не проверяется.
	// Для безопасных переходов используются именованные операции ниже.
	UpdateOrder(ctx context.Context, orderID int64, status *models.OrderStatus) (*models.Order, error)
	LinkCartToOrder(ctx context.Context, orderID, cartID int64) (*models.Order, error)
	ConfirmOrder(ctx context.Context, orderID int64) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	orderRepo storage.OrderStorage
	cartRepo  storage.CartStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage, cartRepo storage.CartStorage) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
	}
}

// generateOrderNumber собирает номер из метки времени и случайного суффикса.
// Это снижает вероятность коллизии, но гарантию даёт только уникальный индекс в БД.
func generateOrderNumber() string {
	timestamp := time.Now().Format("200601021504")
	return fmt.Sprintf("ORD-%s-%04d", timestamp, 1000+rand.IntN(9000))
}

// randomTable выбирает случайный стол от 1 до 10.
func randomTable() int {
	return 1 + rand.IntN(10)
}

// CreateOrder создаёт заказ в статусе initialized.
// Коллизия номера заказа не отдаётся наружу: номер перегенерируется и вставка повторяется.
func (s *orderService) CreateOrder(ctx context.Context, userID int64, customerName string, isGroupOrder bool) (*models.Order, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if err := validateCustomerName(customerName); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order := &models.Order{
			OrderNumber:  generateOrderNumber(),
			TableNumber:  randomTable(),
			CustomerName: customerName,
			IsGroupOrder: isGroupOrder,
			UserID:       userID,
			Status:       models.StatusInitialized,
		}

		created, err := s.orderRepo.CreateOrder(ctx, order)
		if err == nil {
			logger.Info("order created",
				slog.String("orderNumber", created.OrderNumber),
				slog.Int("tableNumber", created.TableNumber))
			return created, nil
		}
		if errors.Is(err, storage.ErrOrderNumberTaken) {
			logger.Warn("order number collision, retrying", slog.Int("attempt", attempt))
			continue
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	logger.Error("order number generation attempts exhausted")
	return nil, fmt.Errorf("%s: failed to generate unique order number", op)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.orderRepo.GetOrderByID(ctx, orderID)
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.orderRepo.GetOrderByNumber(ctx, orderNumber)
}

func (s *orderService) ListOrdersForUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.orderRepo.GetOrdersByUserID(ctx, userID)
}

func (s *orderService) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	return s.orderRepo.GetOrdersByStatus(ctx, status)
}

func (s *orderService) ListActiveOrders(ctx context.Context) ([]*models.Order, error) {
	return s.orderRepo.GetActiveOrders(ctx)
}

func (s *orderService) UpdateOrder(ctx context.Context, orderID int64, status *models.OrderStatus) (*models.Order, error) {
	const op = "service.OrderService.UpdateOrder"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return order, nil
	}
	if err := validateStatus(*status); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, *status); err != nil {
		s.log.Error("failed to update order status", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order status: %w", op, err)
	}
	return s.orderRepo.GetOrderByID(ctx, orderID)
}

// LinkCartToOrder привязывает корзину к заказу: корзина получает номер заказа
// и перестаёт изменяться, заказ переходит initialized -> in_progress.
// Обе записи меняются в одной транзакции.
func (s *orderService) LinkCartToOrder(ctx context.Context, orderID, cartID int64) (*models.Order, error) {
	const op = "service.OrderService.LinkCartToOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.Int64("cartID", cartID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, NewValidationError("invalid cart id %d", cartID)
		}
		return nil, err
	}
	if cart.UserID != order.UserID {
		logger.Warn("cart belongs to different user", slog.Int64("cartUserID", cart.UserID))
		return nil, NewValidationError("cart belongs to a different user")
	}
	if cart.Attached() {
		return nil, NewValidationError("cart is already attached to order %s", *cart.OrderNumber)
	}
	if !order.Status.CanTransitionTo(models.StatusInProgress) {
		return nil, NewValidationError("cannot link cart to order in %s status", order.Status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.cartRepo.AttachOrderNumberTx(ctx, tx, cartID, order.OrderNumber); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to attach cart to order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to attach cart to order: %w", op, err)
	}

	if err := s.orderRepo.UpdateOrderStatusTx(ctx, tx, orderID, models.StatusInProgress); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order status: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("cart linked to order", slog.String("orderNumber", order.OrderNumber))
	return s.orderRepo.GetOrderByID(ctx, orderID)
}

// ConfirmOrder подтверждает заказ. Разрешено только из in_progress
// и только если по номеру заказа существует привязанная корзина.
func (s *orderService) ConfirmOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.ConfirmOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusInProgress {
		return nil, NewValidationError("can only confirm orders in %s status, current status: %s",
			models.StatusInProgress, order.Status)
	}

	if _, err := s.cartRepo.GetCartByOrderNumber(ctx, order.OrderNumber); err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, NewValidationError("cannot confirm order without a linked cart")
		}
		return nil, err
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, models.StatusConfirmed); err != nil {
		logger.Error("failed to confirm order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to confirm order: %w", op, err)
	}

	logger.Info("order confirmed", slog.String("orderNumber", order.OrderNumber))
	return s.orderRepo.GetOrderByID(ctx, orderID)
}

// CancelOrder отменяет заказ из любого нетерминального статуса.
func (s *orderService) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.CancelOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, NewValidationError("cannot cancel order in %s status", order.Status)
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, models.StatusCancelled); err != nil {
		logger.Error("failed to cancel order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to cancel order: %w", op, err)
	}

	logger.Info("order cancelled", slog.String("orderNumber", order.OrderNumber))
	return s.orderRepo.GetOrderByID(ctx, orderID)
}
