package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/resto-orders/internal/service"
	"github.com/linemk/resto-orders/internal/storage"
)

// writeJSON сериализует ответ; ошибки кодирования уже не исправить, только залогировать.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeServiceError транслирует ошибки сервисного слоя в HTTP-статусы:
// ошибки валидации — 400, отсутствующие сущности — 404, остальное — 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("validation error", slog.Any("error", err))
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrOrderNotFound),
		errors.Is(err, storage.ErrCartNotFound),
		errors.Is(err, storage.ErrCartItemNotFound),
		errors.Is(err, storage.ErrMenuItemNotFound):
		logger.Warn("resource not found", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.Error("internal error", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
