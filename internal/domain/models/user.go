package models

// User представляет пользователя
type User struct {
	ID       int64
	Email    string
	PassHash []byte
	IsStaff  bool // Сотрудник ресторана: видит чужие заказы и выборки по статусу
}
