package pgdb

import (
	"context"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/repository/pgdb/converter"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{
		pool: pool,
		conv: conv,
	}
}

const orderColumns = `id, customer_name, phone, address, is_shipping, total_price, payment_proof_url, status, created_at, updated_at`

// Insert сохраняет заказ вместе с позициями в текущей транзакции.
func (o *OrderRepo) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO orders (customer_name, phone, address, is_shipping, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + orderColumns + `;
	`

	var model converter.OrderModel
	err = tx.QueryRow(ctx, query,
		order.CustomerName, order.Phone, order.Address, order.IsShipping, order.TotalPrice, string(order.Status),
	).Scan(
		&model.ID, &model.CustomerName, &model.Phone, &model.Address, &model.IsShipping,
		&model.TotalPrice, &model.PaymentProofURL, &model.Status, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items := o.conv.ToItemModels(model.ID, order.Items)
	for i := range items {
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, size, quantity, price, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;
		`,
			items[i].OrderID, items[i].ProductID, items[i].ProductName,
			items[i].Size, items[i].Quantity, items[i].Price, items[i].ImageURL,
		).Scan(&items[i].ID)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return o.conv.ToEntity(&model, items), nil
}

// UpdateStatus перезаписывает статус заказа в текущей транзакции.
// Возвращает pgx.ErrNoRows, если заказа нет.
func (o *OrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns + `;
	`

	var model converter.OrderModel
	err = tx.QueryRow(ctx, query, id, string(status)).Scan(
		&model.ID, &model.CustomerName, &model.Phone, &model.Address, &model.IsShipping,
		&model.TotalPrice, &model.PaymentProofURL, &model.Status, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := o.getItems(ctx, tx, model.ID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model, items), nil
}

// SetPaymentProof привязывает URL слипа об оплате к заказу.
func (o *OrderRepo) SetPaymentProof(ctx context.Context, id int64, url string) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET payment_proof_url = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns + `;
	`

	var model converter.OrderModel
	err := o.pool.QueryRow(ctx, query, id, url).Scan(
		&model.ID, &model.CustomerName, &model.Phone, &model.Address, &model.IsShipping,
		&model.TotalPrice, &model.PaymentProofURL, &model.Status, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := o.getItems(ctx, o.pool, model.ID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model, items), nil
}

// GetByID возвращает заказ с позициями.
func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1;
	`

	var model converter.OrderModel
	err := o.pool.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.CustomerName, &model.Phone, &model.Address, &model.IsShipping,
		&model.TotalPrice, &model.PaymentProofURL, &model.Status, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := o.getItems(ctx, o.pool, model.ID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model, items), nil
}

// List возвращает заказы от новых к старым; пустой phone — без фильтра.
func (o *OrderRepo) List(ctx context.Context, phone string) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR phone = $1)
		ORDER BY created_at DESC;
	`

	rows, err := o.pool.Query(ctx, query, phone)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []converter.OrderModel
	ids := make([]int64, 0)
	for rows.Next() {
		var model converter.OrderModel
		if err := rows.Scan(
			&model.ID, &model.CustomerName, &model.Phone, &model.Address, &model.IsShipping,
			&model.TotalPrice, &model.PaymentProofURL, &model.Status, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
		ids = append(ids, model.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	itemsByOrder, err := o.getItemsForOrders(ctx, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make([]domain.Order, 0, len(models))
	for i := range models {
		result = append(result, *o.conv.ToEntity(&models[i], itemsByOrder[models[i].ID]))
	}

	return result, nil
}

const orderItemColumns = `id, order_id, product_id, product_name, size, quantity, price, image_url`

// getItems читает позиции одного заказа.
func (o *OrderRepo) getItems(ctx context.Context, q querier, orderID int64) ([]converter.OrderItemModel, error) {
	rows, err := q.Query(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY id;
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []converter.OrderItemModel
	for rows.Next() {
		var item converter.OrderItemModel
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Size, &item.Quantity, &item.Price, &item.ImageURL,
		); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// getItemsForOrders группирует позиции по заказам одним запросом.
func (o *OrderRepo) getItemsForOrders(ctx context.Context, ids []int64) (map[int64][]converter.OrderItemModel, error) {
	if len(ids) == 0 {
		return map[int64][]converter.OrderItemModel{}, nil
	}

	rows, err := o.pool.Query(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id;
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]converter.OrderItemModel, len(ids))
	for rows.Next() {
		var item converter.OrderItemModel
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Size, &item.Quantity, &item.Price, &item.ImageURL,
		); err != nil {
			return nil, err
		}

		result[item.OrderID] = append(result[item.OrderID], item)
	}

	return result, rows.Err()
}
