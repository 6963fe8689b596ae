package models

import "time"

// Cart представляет корзину пользователя.
// OrderNumber == nil означает активную корзину, открытую для изменений.
// После привязки к заказу (OrderNumber != nil) корзина становится read-only.
type Cart struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	OrderNumber *string     `json:"order_number,omitempty"`
	Items       []*CartItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Attached сообщает, привязана ли корзина к заказу.
func (c *Cart) Attached() bool {
	return c.OrderNumber != nil
}

// CartItem — позиция корзины. На пару (корзина, блюдо) приходится не больше одной строки,
// повторное добавление того же блюда увеличивает количество.
type CartItem struct {
	ID             int64          `json:"id"`
	CartID         int64          `json:"cart_id"`
	MenuItemID     int64          `json:"menu_item_id"`
	Quantity       int            `json:"quantity"`
	Customizations map[string]any `json:"customizations,omitempty"` // Произвольные опции блюда, ядро их не интерпретирует
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
