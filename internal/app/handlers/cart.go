package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/resto-orders/internal/domain/models"
	"github.com/linemk/resto-orders/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/resto-orders/internal/service"
)

// AddCartItemRequest — тело запроса POST /cart/items.
// CartID опционален: по умолчанию операция идёт в активную корзину пользователя.
type AddCartItemRequest struct {
	CartID         int64          `json:"cart_id,omitempty"`
	MenuItemID     int64          `json:"menu_item_id" validate:"required,gt=0"`
	Quantity       int            `json:"quantity" validate:"required,gt=0"`
	Customizations map[string]any `json:"customizations,omitempty"`
}

// UpdateCartItemRequest — тело запроса PUT /cart/items/{id}.
type UpdateCartItemRequest struct {
	CartID         int64          `json:"cart_id,omitempty"`
	Quantity       *int           `json:"quantity,omitempty"`
	Customizations map[string]any `json:"customizations,omitempty"`
}

// CartTotalResponse — ответ GET /cart/total.
type CartTotalResponse struct {
	Total float64 `json:"total"`
}

// resolveCart возвращает корзину для операции: явную по cart_id (с проверкой владельца)
// либо активную корзину текущего пользователя.
func resolveCart(ctx context.Context, cartService service.CartService, userID, cartID int64) (*models.Cart, bool, error) {
	if cartID == 0 {
		cart, err := cartService.GetOrCreateActiveCart(ctx, userID)
		return cart, true, err
	}
	cart, err := cartService.GetCart(ctx, cartID)
	if err != nil {
		return nil, true, err
	}
	if cart.UserID != userID {
		return nil, false, nil
	}
	return cart, true, nil
}

// GetCartHandler обрабатывает запрос GET /cart
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cart, err := cartService.GetOrCreateActiveCart(r.Context(), userID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// AddCartItemHandler обрабатывает запрос POST /cart/items
func AddCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddCartItemHandler"
		logger := log.With(slog.String("op", op))

		var req AddCartItemRequest
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

		cart, owned, err := resolveCart(r.Context(), cartService, userID, req.CartID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if !owned {
			logger.Warn("cart belongs to different user", slog.Int64("cartID", req.CartID))
			http.Error(w, "not authorized to use this cart", http.StatusForbidden)
			return
		}

		updated, err := cartService.AddItem(r.Context(), cart.ID, req.MenuItemID, req.Quantity, req.Customizations)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, updated)
	}
}

// UpdateCartItemHandler обрабатывает запрос PUT /cart/items/{id}
func UpdateCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			logger.Error("invalid item id", slog.Any("error", err))
			http.Error(w, "invalid item id", http.StatusBadRequest)
			return
		}

		var req UpdateCartItemRequest
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

		cart, owned, err := resolveCart(r.Context(), cartService, userID, req.CartID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if !owned {
			http.Error(w, "not authorized to use this cart", http.StatusForbidden)
			return
		}

		updated, err := cartService.UpdateItem(r.Context(), cart.ID, itemID, req.Quantity, req.Customizations)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, updated)
	}
}

// RemoveCartItemHandler обрабатывает запрос DELETE /cart/items/{id}
func RemoveCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			logger.Error("invalid item id", slog.Any("error", err))
			http.Error(w, "invalid item id", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cart, _, err := resolveCart(r.Context(), cartService, userID, 0)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		updated, err := cartService.RemoveItem(r.Context(), cart.ID, itemID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, updated)
	}
}

// ClearCartHandler обрабатывает запрос DELETE /cart
func ClearCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cart, _, err := resolveCart(r.Context(), cartService, userID, 0)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		updated, err := cartService.Clear(r.Context(), cart.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, updated)
	}
}

// CartTotalHandler обрабатывает запрос GET /cart/total
func CartTotalHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CartTotalHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cart, _, err := resolveCart(r.Context(), cartService, userID, 0)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		total, err := cartService.Total(r.Context(), cart.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, CartTotalResponse{Total: total})
	}
}
