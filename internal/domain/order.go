package domain

import (
	"time"

	"github.com/sisaket-charity/go-backend/pkg/e"
)

// Status — статус жизненного цикла заказа.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusVerification   Status = "verification"
	StatusShipping       Status = "shipping"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// ParseStatus проверяет значение статуса и возвращает его доменное представление.
// Переходы между статусами не ограничены: любой распознанный статус может быть
// установлен из любого другого.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPendingPayment, StatusVerification, StatusShipping, StatusCompleted, StatusCancelled:
		return Status(value), nil
	default:
		return "", e.NewInvalidStatusError(value)
	}
}

// Order описывает заказ покупателя
type Order struct {
	ID              int64
	CustomerName    string
	Phone           string
	Address         string
	IsShipping      bool
	Items           []OrderLine
	TotalPrice      int64 // Сумма хранится в сатангах
	PaymentProofURL string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// OrderLine — неизменяемый снимок одной позиции заказа.
// Поля копируются из продукта в момент оформления: последующие правки
// каталога не затрагивают существующие заказы.
type OrderLine struct {
	ProductID   int64
	ProductName string
	Size        string
	Quantity    int
	Price       int64 // Цена за единицу на момент заказа
	ImageURL    string
}

func NewOrder(customerName, phone, address string, isShipping bool, items []OrderLine, totalPrice int64) *Order {
	return &Order{
		CustomerName: customerName,
		Phone:        phone,
		Address:      address,
		IsShipping:   isShipping,
		Items:        items,
		TotalPrice:   totalPrice,
		Status:       StatusPendingPayment,
	}
}
