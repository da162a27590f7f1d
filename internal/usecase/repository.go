package usecase

import (
	"context"

	"github.com/sisaket-charity/go-backend/internal/domain"
)

type ProductRepository interface {
	// GetForUpdate читает продукт вместе с остатками под блокировкой строки.
	// Требует открытой транзакции в контексте.
	GetForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	// ReserveStock атомарно уменьшает остаток и увеличивает счётчик проданного
	// для одной ячейки (product, size). Требует открытой транзакции в контексте.
	ReserveStock(ctx context.Context, productID int64, size string, quantity int) error
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpsertStockCell(ctx context.Context, productID int64, size string, quantity int, mode StockUpdateMode) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
}

type OrderRepository interface {
	// Insert сохраняет заказ вместе с позициями. Требует открытой транзакции в контексте.
	Insert(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// UpdateStatus перезаписывает статус заказа. Требует открытой транзакции в контексте.
	UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Order, error)
	SetPaymentProof(ctx context.Context, id int64, url string) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// List возвращает заказы, отсортированные от новых к старым.
	// Пустой phone означает выборку без фильтра.
	List(ctx context.Context, phone string) ([]domain.Order, error)
}

type OutboxRepository interface {
	// Create добавляет событие в outbox. Требует открытой транзакции в контексте.
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type CacheRepository interface {
	GetProductList(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	SetProductList(ctx context.Context, activeOnly bool, products []domain.Product) error
	// InvalidateProductLists сбрасывает кэшированные выборки каталога.
	// Вызывается после любой мутации продуктов или остатков.
	InvalidateProductLists(ctx context.Context) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
}
