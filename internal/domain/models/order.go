package models

import "time"

// Order представляет заказ в ресторане
type Order struct {
	ID           int64       `json:"id"`
	OrderNumber  string      `json:"order_number"` // Уникальный человекочитаемый номер, ключ связки с корзиной
	TableNumber  int         `json:"table_number"` // Номер стола, от 1 до 10
	CustomerName string      `json:"customer_name"`
	IsGroupOrder bool        `json:"is_group_order"`
	UserID       int64       `json:"user_id"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
