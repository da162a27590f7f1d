package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// noopLogger глушит логи в тестах.
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{})            {}
func (noopLogger) Infof(format string, args ...interface{})             {}
func (noopLogger) Warnf(format string, args ...interface{})             {}
func (noopLogger) Errorf(err error, format string, args ...interface{}) {}

// fakeTx реализует pgx.Tx в памяти и считает коммиты и откаты.
type fakeTx struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	t.commits++
	t.mu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	t.rollbacks++
	t.mu.Unlock()
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                               { return nil }

// fakeDB выдаёт fakeTx вместо настоящего пула.
type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{tx: &fakeTx{}}
}

func (db *fakeDB) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	return db.tx, nil
}

// fakeProductRepo хранит товары в памяти. Мьютекс сериализует доступ к
// ячейкам остатков так же, как это делает строчная блокировка в Postgres.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product

	getForUpdateErr error
	reserveErr      error
	createErr       error
	listErr         error

	reserved []reservation
}

type reservation struct {
	productID int64
	size      string
	quantity  int
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

// copyProduct отдаёт снимок продукта вместе с ячейками остатков,
// как это делает чтение строки из БД.
func copyProduct(product *domain.Product) *domain.Product {
	copied := *product
	copied.Stock = append([]domain.StockCell(nil), product.Stock...)
	return &copied
}

func (f *fakeProductRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getForUpdateErr != nil {
		return nil, f.getForUpdateErr
	}
	product, ok := f.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyProduct(product), nil
}

func (f *fakeProductRepo) ReserveStock(ctx context.Context, productID int64, size string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return f.reserveErr
	}
	product, ok := f.products[productID]
	if !ok {
		return e.ErrInsufficientStock
	}
	cell := product.FindCell(size)
	if cell == nil || cell.Quantity < quantity {
		return e.ErrInsufficientStock
	}
	cell.Quantity -= quantity
	cell.Sold += quantity
	f.reserved = append(f.reserved, reservation{productID: productID, size: size, quantity: quantity})
	return nil
}

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	product.ID = int64(len(f.products) + 1)
	product.CreatedAt = time.Now()
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[product.ID]; !ok {
		return nil, pgx.ErrNoRows
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) UpsertStockCell(ctx context.Context, productID int64, size string, quantity int, mode StockUpdateMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[productID]
	if !ok {
		return pgx.ErrNoRows
	}
	cell := product.FindCell(size)
	if cell == nil {
		product.Stock = append(product.Stock, domain.StockCell{Size: size, Quantity: quantity})
		return nil
	}
	if mode == StockModeAdd {
		cell.Quantity += quantity
	} else {
		cell.Quantity = quantity
	}
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyProduct(product), nil
}

func (f *fakeProductRepo) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		if activeOnly && !p.IsActive {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

// fakeOrderRepo хранит заказы в памяти.
type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[int64]*domain.Order
	nextID    int64
	insertErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*domain.Order), nextID: 1}
}

func (f *fakeOrderRepo) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	order.ID = f.nextID
	f.nextID++
	order.CreatedAt = time.Now()
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	order.Status = status
	now := time.Now()
	order.UpdatedAt = &now
	return order, nil
}

func (f *fakeOrderRepo) SetPaymentProof(ctx context.Context, id int64, url string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	order.PaymentProofURL = url
	return order, nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return order, nil
}

func (f *fakeOrderRepo) List(ctx context.Context, phone string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]domain.Order, 0, len(f.orders))
	for _, order := range f.orders {
		if phone != "" && order.Phone != phone {
			continue
		}
		result = append(result, *order)
	}
	return result, nil
}

// fakeOutboxRepo записывает события в срез.
type fakeOutboxRepo struct {
	mu        sync.Mutex
	events    []*OutboxEvent
	createErr error
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	event.ID = int64(len(f.events) + 1)
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error { return nil }

// fakeCacheRepo считает инвалидации. Защищён мьютексом: кэширование выборок
// выполняется фоновой горутиной.
type fakeCacheRepo struct {
	mu            sync.Mutex
	lists         map[bool][]domain.Product
	invalidations int
	sets          int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{lists: make(map[bool][]domain.Product)}
}

func (f *fakeCacheRepo) GetProductList(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[activeOnly], nil
}

func (f *fakeCacheRepo) SetProductList(ctx context.Context, activeOnly bool, products []domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.lists[activeOnly] = products
	return nil
}

func (f *fakeCacheRepo) InvalidateProductLists(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
	f.lists = make(map[bool][]domain.Product)
	return nil
}

func (f *fakeCacheRepo) invalidationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidations
}

// fakeImagesInfra выдаёт детерминированные ключи и запоминает очистки.
type fakeImagesInfra struct {
	uploads   int
	uploadErr error
	cleaned   [][]string
}

func (f *fakeImagesInfra) UploadImage(ctx context.Context, req *UploadImageReq) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return req.Prefix + "/upload-" + strconv.Itoa(f.uploads), nil
}

func (f *fakeImagesInfra) CleanupImages(keys []string) {
	f.cleaned = append(f.cleaned, keys)
}

func (f *fakeImagesInfra) WaitForCleanup(ctx context.Context) error { return nil }

// fakeUserRepo хранит пользователей в памяти.
type fakeUserRepo struct {
	users  map[string]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := f.users[user.Name]; ok {
		return nil, e.ErrUserAlreadyExists
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	// Храним снимок, как это делает запись строки в БД.
	stored := *user
	f.users[user.Name] = &stored
	return user, nil
}

func (f *fakeUserRepo) GetByName(ctx context.Context, name string) (*domain.User, error) {
	user, ok := f.users[name]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	// Отдаём снимок, как это делает чтение строки из БД.
	copied := *user
	return &copied, nil
}

// fakeTokenIssuer выпускает статичный токен.
type fakeTokenIssuer struct {
	issued int
}

func (f *fakeTokenIssuer) Issue(user *domain.User) (string, time.Time, error) {
	f.issued++
	return "token-" + strconv.FormatInt(user.ID, 10), time.Now().Add(time.Hour), nil
}
