package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrMenuItemNotFound = errors.New("menu item not found")

	// ErrOrderNumberTaken — нарушение уникальности order_number.
	// Сервис перегенерирует номер и повторяет вставку, наружу ошибка не уходит.
	ErrOrderNumberTaken = errors.New("order number already taken")

	// ErrActiveCartExists — у пользователя уже есть активная корзина
	// (частичный уникальный индекс по user_id при order_number IS NULL).
	ErrActiveCartExists = errors.New("active cart already exists")
)

// uniqueViolation — код 23505 в Postgres
const uniqueViolation = "23505"

// isUniqueViolation проверяет, что ошибка — нарушение конкретного уникального ограничения.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
	}
	return false
}
