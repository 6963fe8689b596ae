package models

// OrderStatus — статус заказа. Хранится в БД строкой,
// но по коду сравнивается только через константы ниже.
type OrderStatus string

const (
	StatusInitialized OrderStatus = "initialized"
	StatusInProgress  OrderStatus = "in_progress"
	StatusConfirmed   OrderStatus = "confirmed"
	StatusCompleted   OrderStatus = "completed"
	StatusCancelled   OrderStatus = "cancelled"
)

// allowedTransitions — явная таблица переходов статусов.
// Терминальные статусы (completed, cancelled) не имеют исходящих переходов.
// Из confirmed отмена разрешена: подтверждённый заказ ещё можно снять до выдачи.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusInitialized: {StatusInProgress, StatusCancelled},
	StatusInProgress:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusCompleted, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
}

// Valid проверяет, что строка является известным статусом.
func (s OrderStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal — completed и cancelled не допускают дальнейших переходов.
func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo проверяет переход по таблице.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
