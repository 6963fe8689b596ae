package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/resto-orders/internal/domain/models"
	"github.com/linemk/resto-orders/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/resto-orders/internal/service"
)

// CreateOrderRequest — тело запроса POST /orders.
// CartID опционален: если задан, корзина привязывается к заказу сразу после создания.
type CreateOrderRequest struct {
	CustomerName string `json:"customer_name" validate:"required,max=100"`
	IsGroupOrder bool   `json:"is_group_order"`
	CartID       int64  `json:"cart_id,omitempty"`
}

// UpdateOrderRequest — тело запроса PUT /orders/{id}.
type UpdateOrderRequest struct {
	Status *models.OrderStatus `json:"status,omitempty"`
}

// LinkCartRequest — тело запроса POST /orders/{id}/link.
type LinkCartRequest struct {
	CartID int64 `json:"cart_id" validate:"required,gt=0"`
}

func orderIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// CreateOrderHandler обрабатывает запрос POST /orders
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := orderService.CreateOrder(r.Context(), userID, req.CustomerName, req.IsGroupOrder)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		// Заказ можно создать и привязать корзину одним вызовом
		if req.CartID != 0 {
			order, err = orderService.LinkCartToOrder(r.Context(), order.ID, req.CartID)
			if err != nil {
				writeServiceError(w, logger, err)
				return
			}
		}

		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// ownerOrStaff проверяет право доступа к заказу: владелец либо сотрудник.
func ownerOrStaff(r *http.Request, order *models.Order, userID int64) bool {
	return order.UserID == userID || jwtmiddleware.IsStaff(r.Context())
}

// GetOrderHandler обрабатывает запрос GET /orders/{id}
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := orderIDFromURL(r)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := orderService.GetOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if !ownerOrStaff(r, order, userID) {
			http.Error(w, "not authorized to view this order", http.StatusForbidden)
			return
		}

		writeJSON(w, logger, http.StatusOK, order)
	}
}

// GetOrderByNumberHandler обрабатывает запрос GET /orders/number/{order_number}
func GetOrderByNumberHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderByNumberHandler"
		logger := log.With(slog.String("op", op))

		orderNumber := chi.URLParam(r, "order_number")
		if orderNumber == "" {
			http.Error(w, "order number is required", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := orderService.GetOrderByNumber(r.Context(), orderNumber)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if !ownerOrStaff(r, order, userID) {
			http.Error(w, "not authorized to view this order", http.StatusForbidden)
			return
		}

		writeJSON(w, logger, http.StatusOK, order)
	}
}

// ListOrdersHandler обрабатывает запрос GET /orders — заказы текущего пользователя, новые первыми
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := orderService.ListOrdersForUser(r.Context(), userID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// OrdersByStatusHandler обрабатывает запрос GET /orders/status/{status}, доступен только сотрудникам
func OrdersByStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrdersByStatusHandler"
		logger := log.With(slog.String("op", op))

		if !jwtmiddleware.IsStaff(r.Context()) {
			http.Error(w, "only staff members can view all orders", http.StatusForbidden)
			return
		}

		status := models.OrderStatus(chi.URLParam(r, "status"))
		orders, err := orderService.ListOrdersByStatus(r.Context(), status)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// ActiveOrdersHandler обрабатывает запрос GET /orders/active — заказы вне терминальных
// статусов по всем пользователям, доступен только сотрудникам
func ActiveOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ActiveOrdersHandler"
		logger := log.With(slog.String("op", op))

		if !jwtmiddleware.IsStaff(r.Context()) {
			http.Error(w, "only staff members can view all orders", http.StatusForbidden)
			return
		}

		orders, err := orderService.ListActiveOrders(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// UpdateOrderHandler обрабатывает запрос PUT /orders/{id}.
// Это прямая перезапись статуса для привилегированных сценариев, граф переходов не проверяется.
func UpdateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := orderIDFromURL(r)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req UpdateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := orderService.GetOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if !ownerOrStaff(r, order, userID) {
			http.Error(w, "not authorized to update this order", http.StatusForbidden)
			return
		}

		updated, err := orderService.UpdateOrder(r.Context(), orderID, req.Status)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, updated)
	}
}

// LinkCartHandler обрабатывает запрос POST /orders/{id}/link
func LinkCartHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LinkCartHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := orderIDFromURL(r)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req LinkCartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := orderService.GetOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if order.UserID != userID {
			http.Error(w, "not authorized to modify this order", http.StatusForbidden)
			return
		}

		updated, err := orderService.LinkCartToOrder(r.Context(), orderID, req.CartID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, updated)
	}
}

// ConfirmOrderHandler обрабатывает запрос POST /orders/{id}/confirm, доступен только владельцу
func ConfirmOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ConfirmOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := orderIDFromURL(r)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := orderService.GetOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if order.UserID != userID {
			http.Error(w, "not authorized to confirm this order", http.StatusForbidden)
			return
		}

		confirmed, err := orderService.ConfirmOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, confirmed)
	}
}

// CancelOrderHandler обрабатывает запрос POST /orders/{id}/cancel
func CancelOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := orderIDFromURL(r)
		if err != nil {
			logger.Error("invalid order id", slog.Any("error", err))
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := orderService.GetOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if !ownerOrStaff(r, order, userID) {
			http.Error(w, "not authorized to cancel this order", http.StatusForbidden)
			return
		}

		cancelled, err := orderService.CancelOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, cancelled)
	}
}
