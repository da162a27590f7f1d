package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")
	ErrTransactionConflict = fmt.Errorf("transaction conflict, retry the submission")

	// Ошибки доменных сущностей
	ErrNotFound          = fmt.Errorf("not found")
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrInvalidStatus     = fmt.Errorf("invalid order status")
	ErrValidation        = fmt.Errorf("validation failed")

	// Ошибки авторизации
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrForbidden          = fmt.Errorf("forbidden")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// NotFoundError указывает на отсутствующую сущность (продукт, размер, заказ).
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (n *NotFoundError) Error() string {
	if n.ID == "" {
		return fmt.Sprintf("%s not found", n.Entity)
	}
	return fmt.Sprintf("%s %s not found", n.Entity, n.ID)
}

func (n *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InsufficientStockError возникает, когда резервирование опустило бы остаток ниже нуля.
type InsufficientStockError struct {
	Product   string
	Size      string
	Requested int
	Available int
}

func NewInsufficientStockError(product, size string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		Product:   product,
		Size:      size,
		Requested: requested,
		Available: available,
	}
}

func (i *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for %s size %s: requested %d, available %d",
		i.Product, i.Size, i.Requested, i.Available,
	)
}

func (i *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InvalidStatusError возникает при неизвестном значении статуса заказа.
type InvalidStatusError struct {
	Value string
}

func NewInvalidStatusError(value string) *InvalidStatusError {
	return &InvalidStatusError{Value: value}
}

func (i *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", i.Value)
}

func (i *InvalidStatusError) Unwrap() error {
	return ErrInvalidStatus
}

// ValidationError описывает некорректное поле входного запроса.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", v.Field, v.Reason)
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
