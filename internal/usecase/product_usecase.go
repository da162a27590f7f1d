package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// ProductUseCase реализует управление каталогом товаров.
type ProductUseCase struct {
	productRepo ProductRepository
	cacheRepo   CacheRepository
	imagesInfra ImagesInfra
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	cacheRepo CacheRepository,
	imagesInfra ImagesInfra,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		cacheRepo:   cacheRepo,
		imagesInfra: imagesInfra,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// RegisterNewProduct добавляет новый товар с изображением и остатками по размерам.
func (p *ProductUseCase) RegisterNewProduct(ctx context.Context, req *AddNewProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.RegisterNewProduct"

	var err error
	if err = p.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var (
		imageKey string
		uploaded bool
	)

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	// Если произошла ошибка, происходит Rollback транзакции и очистка загруженного изображения
	defer func() {
		if err != nil {
			if tx.IsActive() {
				tx.Rollback(ctx)
			}

			if uploaded {
				p.logger.Warnf(
					"Cleaning up orphaned image after transaction failure. product_name: %s, error: %v",
					req.Name,
					e.Wrap(op, err),
				)

				p.imagesInfra.CleanupImages([]string{imageKey})
			}
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	imageURL := req.ImageURL
	if req.Image != nil {
		imageKey, err = p.imagesInfra.UploadImage(ctx, NewUploadImageReq("products", req.Image))
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		uploaded = true
		imageURL = imageKey
	}

	stock := make([]domain.StockCell, 0, len(req.Stock))
	for _, cell := range req.Stock {
		stock = append(stock, domain.StockCell{Size: cell.Size, Quantity: cell.Quantity})
	}

	product, err := p.productRepo.Create(ctx, domain.NewProduct(
		req.Name, req.Type, req.Description, req.Price, imageURL, stock,
	))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	if cErr := p.cacheRepo.InvalidateProductLists(ctx); cErr != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, cErr))
	}

	return product, nil
}

// UpdateProduct частично обновляет поля товара; nil-поля не изменяются.
// Существующие заказы обновление не затрагивает: их позиции — снимки.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	product, err := p.productRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = e.NewNotFoundError("product", strconv.FormatInt(req.ID, 10))
		}
		return nil, e.Wrap(op, err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, e.Wrap(op, e.ErrInvalidPrice)
		}
		product.Price = *req.Price
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if req.Image != nil {
		key, err := p.imagesInfra.UploadImage(ctx, NewUploadImageReq("products", req.Image))
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		product.ImageURL = key
	}

	updated, err := p.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if cErr := p.cacheRepo.InvalidateProductLists(ctx); cErr != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, cErr))
	}

	return updated, nil
}

// UpdateStock правит остаток одного размера в режиме set или add.
// Отсутствующая ячейка создаётся с нулевым счётчиком проданного.
// Продукт блокируется на время правки, чтобы сериализоваться с резервированием заказов.
func (p *ProductUseCase) UpdateStock(ctx context.Context, req *UpdateStockReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateStock"

	var err error
	if req.Mode != StockModeSet && req.Mode != StockModeAdd {
		return nil, e.Wrap(op, e.NewValidationError("mode", "must be 'set' or 'add'"))
	}
	if strings.TrimSpace(req.Size) == "" {
		return nil, e.Wrap(op, e.NewValidationError("size", "is required"))
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	product, err := p.productRepo.GetForUpdate(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = e.NewNotFoundError("product", strconv.FormatInt(req.ProductID, 10))
		}
		return nil, e.Wrap(op, err)
	}

	if err = p.productRepo.UpsertStockCell(ctx, product.ID, req.Size, req.Quantity, req.Mode); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	if cErr := p.cacheRepo.InvalidateProductLists(ctx); cErr != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, cErr))
	}

	return p.productRepo.GetByID(ctx, product.ID)
}

// RemoveProduct удаляет товар из каталога. Ссылочная целостность существующих
// заказов не проверяется: их позиции хранят снимки и остаются валидными.
func (p *ProductUseCase) RemoveProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.RemoveProduct"

	if err := p.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = e.NewNotFoundError("product", strconv.FormatInt(id, 10))
		}
		return e.Wrap(op, err)
	}

	if cErr := p.cacheRepo.InvalidateProductLists(ctx); cErr != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, cErr))
	}

	return nil
}

// ListProducts возвращает каталог; публичная выборка ограничена активными товарами.
// Выборка кэшируется с TTL, кэш сбрасывается при любой мутации каталога.
func (p *ProductUseCase) ListProducts(ctx context.Context, req *ListProductsReq) ([]domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	activeOnly := !req.IncludeInactive

	cached, err := p.cacheRepo.GetProductList(ctx, activeOnly)
	if err == nil && cached != nil {
		return cached, nil
	}

	products, err := p.productRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление выборки в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProductList(bgCtx, activeOnly, products); err != nil {
			p.logger.Warnf("Failed to cache products in background: %v", e.Wrap(op, err))
		}
	}()

	return products, nil
}

// validateProduct проверяет корректность входных данных запроса на добавление товара.
func (p *ProductUseCase) validateProduct(req *AddNewProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.NewValidationError("name", "is required")
	}

	if req.Price <= 0 {
		return e.ErrInvalidPrice
	}

	seen := make(map[string]struct{}, len(req.Stock))
	for _, cell := range req.Stock {
		if strings.TrimSpace(cell.Size) == "" {
			return e.NewValidationError("stock.size", "is required")
		}
		if cell.Quantity < 0 {
			return e.NewValidationError("stock.quantity", "must not be negative")
		}
		if _, ok := seen[cell.Size]; ok {
			return e.NewValidationError("stock.size", "duplicate size "+cell.Size)
		}
		seen[cell.Size] = struct{}{}
	}

	return nil
}
