package pgdb

import (
	"context"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/repository/pgdb/converter"
	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

const productColumns = `id, name, type, description, price, image_url, is_active, created_at, updated_at`

// GetForUpdate читает товар и его остатки под блокировкой строк.
// Блокировка строки products сериализует конкурирующие резервирования
// по одному товару до конца транзакции.
func (p *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
		FOR UPDATE;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.Name, &model.Type, &model.Description, &model.Price,
		&model.ImageURL, &model.IsActive, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cells, err := p.getStock(ctx, tx, id, true)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model, cells), nil
}

// ReserveStock атомарно списывает остаток и увеличивает счётчик проданного
// одной ячейки. Защитное условие quantity >= $3 не даёт остатку уйти в минус
// даже при гонке, не перехваченной блокировкой строки.
func (p *ProductRepo) ReserveStock(ctx context.Context, productID int64, size string, quantity int) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE product_stock
		SET quantity = quantity - $3,
		    sold = sold + $3
		WHERE product_id = $1
		  AND size = $2
		  AND quantity >= $3;
	`

	result, err := tx.Exec(ctx, query, productID, size, quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrInsufficientStock)
	}

	return nil
}

// Create сохраняет новый товар вместе с ячейками остатков.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (name, type, description, price, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns + `;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query,
		product.Name, product.Type, product.Description, product.Price, product.ImageURL, product.IsActive,
	).Scan(
		&model.ID, &model.Name, &model.Type, &model.Description, &model.Price,
		&model.ImageURL, &model.IsActive, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cells := make([]converter.StockCellModel, 0, len(product.Stock))
	for _, cell := range product.Stock {
		_, err = tx.Exec(ctx, `
			INSERT INTO product_stock (product_id, size, quantity, sold)
			VALUES ($1, $2, $3, 0);
		`, model.ID, cell.Size, cell.Quantity)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		cells = append(cells, converter.StockCellModel{
			ProductID: model.ID,
			Size:      cell.Size,
			Quantity:  cell.Quantity,
		})
	}

	return p.conv.ToEntity(&model, cells), nil
}

// Update перезаписывает метаданные товара; остатки не затрагиваются.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = $2,
		    description = $3,
		    price = $4,
		    image_url = $5,
		    is_active = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns + `;
	`

	var model converter.ProductModel
	err := p.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.ImageURL, product.IsActive,
	).Scan(
		&model.ID, &model.Name, &model.Type, &model.Description, &model.Price,
		&model.ImageURL, &model.IsActive, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cells, err := p.getStock(ctx, p.pool, model.ID, false)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model, cells), nil
}

// UpsertStockCell правит остаток одного размера; отсутствующая ячейка создаётся.
func (p *ProductRepo) UpsertStockCell(ctx context.Context, productID int64, size string, quantity int, mode usecase.StockUpdateMode) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO product_stock (product_id, size, quantity, sold)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (product_id, size)
		DO UPDATE SET
			quantity = CASE
				WHEN $4 = 'set' THEN EXCLUDED.quantity
				ELSE product_stock.quantity + EXCLUDED.quantity
			END;
	`

	if _, err := tx.Exec(ctx, query, productID, size, quantity, string(mode)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete удаляет товар; ячейки остатков удаляются каскадно.
func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	result, err := p.pool.Exec(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// GetByID возвращает товар с остатками без блокировок.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1;
	`

	var model converter.ProductModel
	err := p.pool.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.Name, &model.Type, &model.Description, &model.Price,
		&model.ImageURL, &model.IsActive, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cells, err := p.getStock(ctx, p.pool, id, false)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model, cells), nil
}

// List возвращает каталог от новых товаров к старым.
func (p *ProductRepo) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = false OR is_active = true)
		ORDER BY created_at DESC;
	`

	rows, err := p.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []converter.ProductModel
	ids := make([]int64, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Type, &model.Description, &model.Price,
			&model.ImageURL, &model.IsActive, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
		ids = append(ids, model.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	stockByProduct, err := p.getStockForProducts(ctx, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make([]domain.Product, 0, len(models))
	for i := range models {
		result = append(result, *p.conv.ToEntity(&models[i], stockByProduct[models[i].ID]))
	}

	return result, nil
}

// getStock читает ячейки остатков одного товара; forUpdate добавляет блокировку строк.
func (p *ProductRepo) getStock(ctx context.Context, q querier, productID int64, forUpdate bool) ([]converter.StockCellModel, error) {
	query := `
		SELECT product_id, size, quantity, sold
		FROM product_stock
		WHERE product_id = $1
		ORDER BY size
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []converter.StockCellModel
	for rows.Next() {
		var cell converter.StockCellModel
		if err := rows.Scan(&cell.ProductID, &cell.Size, &cell.Quantity, &cell.Sold); err != nil {
			return nil, err
		}

		cells = append(cells, cell)
	}

	return cells, rows.Err()
}

// getStockForProducts группирует ячейки остатков по товарам одним запросом.
func (p *ProductRepo) getStockForProducts(ctx context.Context, ids []int64) (map[int64][]converter.StockCellModel, error) {
	if len(ids) == 0 {
		return map[int64][]converter.StockCellModel{}, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT product_id, size, quantity, sold
		FROM product_stock
		WHERE product_id = ANY($1)
		ORDER BY product_id, size;
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]converter.StockCellModel, len(ids))
	for rows.Next() {
		var cell converter.StockCellModel
		if err := rows.Scan(&cell.ProductID, &cell.Size, &cell.Quantity, &cell.Sold); err != nil {
			return nil, err
		}

		result[cell.ProductID] = append(result[cell.ProductID], cell)
	}

	return result, rows.Err()
}
