package service

import "fmt"

// ValidationError — нарушение инварианта предметной области: недопустимый переход
// статуса, изменение привязанной корзины, чужая корзина и т.п.
// Транспортный слой транслирует её в 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError создаёт типизированную ошибку валидации.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
