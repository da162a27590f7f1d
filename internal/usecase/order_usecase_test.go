package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(id int64, name string, price int64, cells ...domain.StockCell) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     name,
		Type:     "shirt",
		Price:    price,
		ImageURL: "products/" + name + ".jpg",
		Stock:    cells,
		IsActive: true,
	}
}

type orderFixture struct {
	uc       *OrderUseCase
	orders   *fakeOrderRepo
	products *fakeProductRepo
	outbox   *fakeOutboxRepo
	cache    *fakeCacheRepo
	images   *fakeImagesInfra
	db       *fakeDB
}

func newOrderFixture(products ...*domain.Product) *orderFixture {
	f := &orderFixture{
		orders:   newFakeOrderRepo(),
		products: newFakeProductRepo(products...),
		outbox:   &fakeOutboxRepo{},
		cache:    newFakeCacheRepo(),
		images:   &fakeImagesInfra{},
		db:       newFakeDB(),
	}
	f.uc = NewOrderUC(f.orders, f.products, f.outbox, f.cache, f.images, f.db, noopLogger{})
	return f
}

func validOrderReq(items ...OrderItemReq) *CreateOrderReq {
	return &CreateOrderReq{
		CustomerName: "Somchai",
		Phone:        "0812345678",
		Address:      "123 Moo 4, Sisaket",
		IsShipping:   false,
		Items:        items,
	}
}

func TestCreateOrder_HappyPath(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt-blue", 25000, domain.StockCell{Size: "M", Quantity: 10}),
		newTestProduct(2, "shirt-red", 30000, domain.StockCell{Size: "L", Quantity: 5}),
	)

	req := validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 2},
		OrderItemReq{ProductID: 2, Size: "L", Quantity: 1},
	)

	order, err := f.uc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, order)

	// Сумма считается по серверным ценам: 2*250 + 1*300 бат
	assert.Equal(t, int64(2*25000+30000), order.TotalPrice)
	assert.Equal(t, domain.StatusPendingPayment, order.Status)
	require.Len(t, order.Items, 2)

	// Позиции — снимки продукта
	assert.Equal(t, "shirt-blue", order.Items[0].ProductName)
	assert.Equal(t, int64(25000), order.Items[0].Price)

	// Остатки списаны, sold увеличен
	cell := f.products.products[1].FindCell("M")
	assert.Equal(t, 8, cell.Quantity)
	assert.Equal(t, 2, cell.Sold)

	// Транзакция зафиксирована ровно один раз, откатов нет
	assert.Equal(t, 1, f.db.tx.commits)
	assert.Equal(t, 0, f.db.tx.rollbacks)

	// Событие order.created в outbox
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, EventOrderCreated, f.outbox.events[0].EventType)
	assert.Equal(t, order.ID, f.outbox.events[0].OrderID)

	var payload struct {
		EventType  string `json:"event_type"`
		OrderID    int64  `json:"order_id"`
		TotalPrice int64  `json:"total_price"`
	}
	require.NoError(t, json.Unmarshal(f.outbox.events[0].Payload, &payload))
	assert.Equal(t, "order.created", payload.EventType)
	assert.Equal(t, order.TotalPrice, payload.TotalPrice)

	// Кэш каталога сброшен
	assert.Equal(t, 1, f.cache.invalidationCount())
}

func TestCreateOrder_ShippingSurcharge(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 3}),
	)

	req := validOrderReq(OrderItemReq{ProductID: 1, Size: "M", Quantity: 1})
	req.IsShipping = true

	order, err := f.uc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	// 100 бат за товар + 50 бат доставка
	assert.Equal(t, int64(10000+5000), order.TotalPrice)
}

func TestCreateOrder_NoShippingNoSurcharge(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 3}),
	)

	order, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), order.TotalPrice)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 42, Size: "M", Quantity: 1},
	))

	require.Error(t, err)
	var notFound *e.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "product", notFound.Entity)

	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.outbox.events)
	assert.Equal(t, 0, f.db.tx.commits)
	assert.Equal(t, 1, f.db.tx.rollbacks)
}

func TestCreateOrder_UnknownSize(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 3}),
	)

	_, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "XXL", Quantity: 1},
	))

	require.Error(t, err)
	var notFound *e.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "size", notFound.Entity)
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 2}),
	)

	_, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 5},
	))

	require.Error(t, err)
	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "shirt", stockErr.Product)
	assert.Equal(t, "M", stockErr.Size)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
	assert.True(t, errors.Is(err, e.ErrInsufficientStock))
}

func TestCreateOrder_SecondItemFailureRollsBackWholeOrder(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 10}),
		newTestProduct(2, "cap", 5000, domain.StockCell{Size: "F", Quantity: 1}),
	)

	_, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 1},
		OrderItemReq{ProductID: 2, Size: "F", Quantity: 3},
	))

	require.Error(t, err)
	assert.True(t, errors.Is(err, e.ErrInsufficientStock))

	// Заказ не создан, событие не опубликовано, транзакция откачена
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.outbox.events)
	assert.Equal(t, 0, f.db.tx.commits)
	assert.Equal(t, 1, f.db.tx.rollbacks)
	assert.Equal(t, 0, f.cache.invalidationCount())
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newOrderFixture()

	testCases := []struct {
		name string
		req  *CreateOrderReq
		want error
	}{
		{
			name: "empty customer name",
			req: &CreateOrderReq{
				Phone: "0812345678",
				Items: []OrderItemReq{{ProductID: 1, Size: "M", Quantity: 1}},
			},
			want: e.ErrValidation,
		},
		{
			name: "empty phone",
			req: &CreateOrderReq{
				CustomerName: "Somchai",
				Items:        []OrderItemReq{{ProductID: 1, Size: "M", Quantity: 1}},
			},
			want: e.ErrValidation,
		},
		{
			name: "no items",
			req: &CreateOrderReq{
				CustomerName: "Somchai",
				Phone:        "0812345678",
			},
			want: e.ErrValidation,
		},
		{
			name: "zero quantity",
			req: validOrderReq(
				OrderItemReq{ProductID: 1, Size: "M", Quantity: 0},
			),
			want: e.ErrValidation,
		},
		{
			name: "empty size",
			req: validOrderReq(
				OrderItemReq{ProductID: 1, Size: " ", Quantity: 1},
			),
			want: e.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreateOrder(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
		})
	}

	// Ни одна валидационная ошибка не открывает транзакцию
	assert.Equal(t, 0, f.db.tx.commits)
	assert.Equal(t, 0, f.db.tx.rollbacks)
}

func TestSetStatus_ValidTransition(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 3}),
	)

	order, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 1},
	))
	require.NoError(t, err)

	updated, err := f.uc.SetStatus(context.Background(), NewSetStatusReq(order.ID, "verification"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerification, updated.Status)
	assert.NotNil(t, updated.UpdatedAt)

	// Второе событие — order.status_changed
	require.Len(t, f.outbox.events, 2)
	assert.Equal(t, EventOrderStatusChanged, f.outbox.events[1].EventType)
}

func TestSetStatus_AnyToAnyAllowed(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 10}),
	)

	order, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 1},
	))
	require.NoError(t, err)

	// Машина статусов разрешает любые переходы, включая «обратные»
	for _, status := range []string{"completed", "pending_payment", "cancelled", "shipping"} {
		updated, err := f.uc.SetStatus(context.Background(), NewSetStatusReq(order.ID, status))
		require.NoError(t, err)
		assert.Equal(t, domain.Status(status), updated.Status)
	}
}

func TestSetStatus_CancelDoesNotRestock(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 5}),
	)

	order, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 2},
	))
	require.NoError(t, err)

	_, err = f.uc.SetStatus(context.Background(), NewSetStatusReq(order.ID, "cancelled"))
	require.NoError(t, err)

	// Отмена не возвращает остатки
	cell := f.products.products[1].FindCell("M")
	assert.Equal(t, 3, cell.Quantity)
	assert.Equal(t, 2, cell.Sold)
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.SetStatus(context.Background(), NewSetStatusReq(1, "shipped"))
	require.Error(t, err)

	var invalid *e.InvalidStatusError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "shipped", invalid.Value)

	// До транзакции дело не доходит
	assert.Equal(t, 0, f.db.tx.commits)
	assert.Equal(t, 0, f.db.tx.rollbacks)
}

func TestSetStatus_OrderNotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.SetStatus(context.Background(), NewSetStatusReq(99, "completed"))
	require.Error(t, err)

	var notFound *e.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "order", notFound.Entity)
	assert.Equal(t, 1, f.db.tx.rollbacks)
}

func TestAttachPaymentProof(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 3}),
	)

	order, err := f.uc.CreateOrder(context.Background(), validOrderReq(
		OrderItemReq{ProductID: 1, Size: "M", Quantity: 1},
	))
	require.NoError(t, err)

	updated, err := f.uc.AttachPaymentProof(context.Background(), &AttachPaymentProofReq{
		OrderID: order.ID,
		Image:   NewImageUpload([]byte("fake-jpeg"), "image/jpeg", 9, "slip.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "payments/upload-1", updated.PaymentProofURL)
}

func TestAttachPaymentProof_MissingImage(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.AttachPaymentProof(context.Background(), &AttachPaymentProofReq{OrderID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, e.ErrValidation))
}

func TestAttachPaymentProof_OrderNotFoundCleansUpUpload(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.AttachPaymentProof(context.Background(), &AttachPaymentProofReq{
		OrderID: 404,
		Image:   NewImageUpload([]byte("fake-jpeg"), "image/jpeg", 9, "slip.jpg"),
	})
	require.Error(t, err)

	var notFound *e.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "order", notFound.Entity)

	// Загруженный слип скомпенсирован удалением
	require.Len(t, f.images.cleaned, 1)
	assert.Equal(t, []string{"payments/upload-1"}, f.images.cleaned[0])
}

func TestListOrders_PhoneFilter(t *testing.T) {
	f := newOrderFixture(
		newTestProduct(1, "shirt", 10000, domain.StockCell{Size: "M", Quantity: 10}),
	)

	first := validOrderReq(OrderItemReq{ProductID: 1, Size: "M", Quantity: 1})
	_, err := f.uc.CreateOrder(context.Background(), first)
	require.NoError(t, err)

	second := validOrderReq(OrderItemReq{ProductID: 1, Size: "M", Quantity: 1})
	second.Phone = "0899999999"
	_, err = f.uc.CreateOrder(context.Background(), second)
	require.NoError(t, err)

	all, err := f.uc.ListOrders(context.Background(), &ListOrdersReq{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.uc.ListOrders(context.Background(), &ListOrdersReq{Phone: "0899999999"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "0899999999", mine[0].Phone)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.GetOrder(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, e.ErrNotFound))
}

func TestCreateOrder_ConcurrentReservation(t *testing.T) {
	// Два покупателя одновременно берут по 3 штуки при остатке 5:
	// проходит ровно один, остаток никогда не уходит в минус.
	f := newOrderFixture(
		newTestProduct(1, "shirt-blue", 25000, domain.StockCell{Size: "M", Quantity: 5}),
	)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.uc.CreateOrder(context.Background(), validOrderReq(
				OrderItemReq{ProductID: 1, Size: "M", Quantity: 3},
			))
		}()
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, e.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	cell := f.products.products[1].FindCell("M")
	assert.Equal(t, 2, cell.Quantity)
	assert.Equal(t, 3, cell.Sold)

	// Ровно один заказ, одна фиксация и один откат
	assert.Len(t, f.orders.orders, 1)
	assert.Equal(t, 1, f.db.tx.commits)
	assert.Equal(t, 1, f.db.tx.rollbacks)
	require.Len(t, f.outbox.events, 1)
}

func TestClassifyTxError(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001"}
	deadlock := &pgconn.PgError{Code: "40P01"}
	other := &pgconn.PgError{Code: "23505"}

	assert.True(t, errors.Is(classifyTxError(serialization), e.ErrTransactionConflict))
	assert.True(t, errors.Is(classifyTxError(deadlock), e.ErrTransactionConflict))
	assert.False(t, errors.Is(classifyTxError(other), e.ErrTransactionConflict))
	assert.Nil(t, classifyTxError(nil))
}
