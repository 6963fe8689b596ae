package service

import (
	"github.com/linemk/resto-orders/internal/domain/models"
)

// Валидация выполняется до любой записи в БД и возвращает типизированную ошибку,
// не полагаясь на проверки в конструкторах моделей или ограничения ORM.

const maxCustomerNameLen = 100

func validateCustomerName(name string) error {
	if name == "" {
		return NewValidationError("customer name must not be empty")
	}
	if len(name) > maxCustomerNameLen {
		return NewValidationError("customer name must be at most %d characters", maxCustomerNameLen)
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return NewValidationError("quantity must be positive, got %d", quantity)
	}
	return nil
}

func validateStatus(status models.OrderStatus) error {
	if !status.Valid() {
		return NewValidationError("unknown order status: %s", status)
	}
	return nil
}
