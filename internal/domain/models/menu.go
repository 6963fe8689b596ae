package models

// MenuItem — блюдо из меню. Само меню обслуживается отдельным контуром,
// здесь оно нужно только для проверки доступности и текущей цены.
type MenuItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}
