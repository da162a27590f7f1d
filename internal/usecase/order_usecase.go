package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// shippingCostSatang — фиксированная надбавка за доставку: 50 бат.
const shippingCostSatang int64 = 50 * 100

// OrderUseCase реализует оформление заказа и управление его жизненным циклом.
// Вся последовательность validate→reserve→persist одного заказа выполняется
// в одной транзакции: либо все резервирования и запись заказа фиксируются
// вместе, либо не фиксируется ничего.
type OrderUseCase struct {
	orderRepo   OrderRepository
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	imagesInfra ImagesInfra
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewOrderUC(
	orderRepo OrderRepository,
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	imagesInfra ImagesInfra,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		imagesInfra: imagesInfra,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// CreateOrder атомарно проверяет наличие, резервирует остатки, считает
// итоговую сумму по серверным ценам и сохраняет заказ со статусом
// pending_payment. Любая ошибка валидации или записи откатывает транзакцию
// целиком: частичных резервирований не остаётся.
func (o *OrderUseCase) CreateOrder(ctx context.Context, req *CreateOrderReq) (*domain.Order, error) {
	const op = "OrderUseCase.CreateOrder"

	var err error
	if err = o.validateOrder(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	items, itemsTotal, productIDs, err := o.reserveItems(ctx, req.Items)
	if err != nil {
		return nil, e.Wrap(op, classifyTxError(err))
	}

	totalPrice := itemsTotal
	if req.IsShipping {
		totalPrice += shippingCostSatang
	}

	order, err := o.orderRepo.Insert(ctx, domain.NewOrder(
		req.CustomerName, req.Phone, req.Address, req.IsShipping, items, totalPrice,
	))
	if err != nil {
		return nil, e.Wrap(op, classifyTxError(err))
	}

	if err = o.publishOrderEvent(ctx, EventOrderCreated, order); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, classifyTxError(err))
	}

	// Остатки изменились — сбрасываем кэшированные выборки каталога
	if cErr := o.cacheRepo.InvalidateProductLists(ctx); cErr != nil {
		o.logger.Warnf("Failed to invalidate product cache after order %d: %v", order.ID, e.Wrap(op, cErr))
	}

	o.logger.Infof("Order %d created, %d item(s), total %d, product_ids: %v", order.ID, len(order.Items), order.TotalPrice, productIDs)
	return order, nil
}

// SetStatus переводит заказ в указанный статус. Допустимы только пять
// распознанных значений; переходы между ними не ограничиваются.
// Отмена заказа остатки не возвращает.
func (o *OrderUseCase) SetStatus(ctx context.Context, req *SetStatusReq) (*domain.Order, error) {
	const op = "OrderUseCase.SetStatus"

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	order, err := o.orderRepo.UpdateStatus(ctx, req.OrderID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = e.NewNotFoundError("order", strconv.FormatInt(req.OrderID, 10))
		}
		return nil, e.Wrap(op, err)
	}

	if err = o.publishOrderEvent(ctx, EventOrderStatusChanged, order); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, classifyTxError(err))
	}

	return order, nil
}

// AttachPaymentProof загружает слип об оплате и привязывает его URL к заказу.
// Статусом заказа операция не управляет.
func (o *OrderUseCase) AttachPaymentProof(ctx context.Context, req *AttachPaymentProofReq) (*domain.Order, error) {
	const op = "OrderUseCase.AttachPaymentProof"

	if req.Image == nil {
		return nil, e.Wrap(op, e.NewValidationError("image", "payment proof image is required"))
	}

	key, err := o.imagesInfra.UploadImage(ctx, NewUploadImageReq("payments", req.Image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	order, err := o.orderRepo.SetPaymentProof(ctx, req.OrderID, key)
	if err != nil {
		o.imagesInfra.CleanupImages([]string{key})
		if errors.Is(err, pgx.ErrNoRows) {
			err = e.NewNotFoundError("order", strconv.FormatInt(req.OrderID, 10))
		}
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (o *OrderUseCase) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	const op = "OrderUseCase.GetOrder"

	order, err := o.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = e.NewNotFoundError("order", strconv.FormatInt(id, 10))
		}
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// ListOrders возвращает заказы от новых к старым.
// Для покупателя req.Phone ограничивает выборку его заказами.
func (o *OrderUseCase) ListOrders(ctx context.Context, req *ListOrdersReq) ([]domain.Order, error) {
	const op = "OrderUseCase.ListOrders"

	orders, err := o.orderRepo.List(ctx, req.Phone)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return orders, nil
}

// reserveItems последовательно проверяет и резервирует каждую позицию.
// Проверки fail-fast: первая ошибка прекращает обработку, оставшиеся позиции
// не оцениваются. Цена каждой позиции берётся из строки продукта,
// прочитанной под блокировкой в этой же транзакции.
func (o *OrderUseCase) reserveItems(ctx context.Context, items []OrderItemReq) ([]domain.OrderLine, int64, []int64, error) {
	lines := make([]domain.OrderLine, 0, len(items))
	productIDs := make([]int64, 0, len(items))

	var total int64
	for _, item := range items {
		product, err := o.productRepo.GetForUpdate(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, 0, nil, e.NewNotFoundError("product", strconv.FormatInt(item.ProductID, 10))
			}
			return nil, 0, nil, err
		}

		cell := product.FindCell(item.Size)
		if cell == nil {
			return nil, 0, nil, e.NewNotFoundError("size", item.Size)
		}

		if cell.Quantity < item.Quantity {
			return nil, 0, nil, e.NewInsufficientStockError(product.Name, item.Size, item.Quantity, cell.Quantity)
		}

		if err := o.productRepo.ReserveStock(ctx, product.ID, item.Size, item.Quantity); err != nil {
			return nil, 0, nil, err
		}

		lines = append(lines, domain.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Size:        item.Size,
			Quantity:    item.Quantity,
			Price:       product.Price,
			ImageURL:    product.ImageURL,
		})
		productIDs = append(productIDs, product.ID)
		total += product.Price * int64(item.Quantity)
	}

	return lines, total, productIDs, nil
}

// publishOrderEvent кладёт событие заказа в outbox внутри текущей транзакции.
func (o *OrderUseCase) publishOrderEvent(ctx context.Context, eventType OutboxEventType, order *domain.Order) error {
	payload, err := json.Marshal(newOrderEventPayload(eventType, order))
	if err != nil {
		return err
	}

	_, err = o.outboxRepo.Create(ctx, NewOutboxEvent(uuid.NewString(), eventType, order.ID, payload))
	return err
}

// validateOrder проверяет корректность входных данных запроса на оформление заказа.
func (o *OrderUseCase) validateOrder(req *CreateOrderReq) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return e.NewValidationError("customerName", "is required")
	}

	if strings.TrimSpace(req.Phone) == "" {
		return e.NewValidationError("phone", "is required")
	}

	if len(req.Items) == 0 {
		return e.NewValidationError("items", "must contain at least one item")
	}

	for _, item := range req.Items {
		if item.Quantity < 1 {
			return e.NewValidationError("quantity", "must be at least 1")
		}
		if strings.TrimSpace(item.Size) == "" {
			return e.NewValidationError("size", "is required")
		}
	}

	return nil
}

// orderEventPayload — JSON-тело события заказа для Kafka.
type orderEventPayload struct {
	EventType  string `json:"event_type"`
	OrderID    int64  `json:"order_id"`
	Status     string `json:"status"`
	TotalPrice int64  `json:"total_price"`
	OccurredAt int64  `json:"occurred_at"`
}

func newOrderEventPayload(eventType OutboxEventType, order *domain.Order) *orderEventPayload {
	return &orderEventPayload{
		EventType:  string(eventType),
		OrderID:    order.ID,
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice,
		OccurredAt: time.Now().UnixNano(),
	}
}

// classifyTxError переводит конфликты сериализации и взаимные блокировки
// PostgreSQL в ErrTransactionConflict: вызывающая сторона может повторить
// оформление целиком.
func classifyTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return e.Wrap(err.Error(), e.ErrTransactionConflict)
		}
	}
	return err
}
