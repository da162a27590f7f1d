package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Type        string     `db:"type"`
	Description string     `db:"description"`
	Price       int64      `db:"price"`
	ImageURL    string     `db:"image_url"`
	IsActive    bool       `db:"is_active"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// StockCellModel представляет запись таблицы product_stock в PostgreSQL.
type StockCellModel struct {
	ProductID int64  `db:"product_id"`
	Size      string `db:"size"`
	Quantity  int    `db:"quantity"`
	Sold      int    `db:"sold"`
}

// OrderModel представляет запись таблицы orders в PostgreSQL.
type OrderModel struct {
	ID              int64      `db:"id"`
	CustomerName    string     `db:"customer_name"`
	Phone           string     `db:"phone"`
	Address         string     `db:"address"`
	IsShipping      bool       `db:"is_shipping"`
	TotalPrice      int64      `db:"total_price"`
	PaymentProofURL string     `db:"payment_proof_url"`
	Status          string     `db:"status"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at"`
}

// OrderItemModel представляет запись таблицы order_items в PostgreSQL.
type OrderItemModel struct {
	ID          int64  `db:"id"`
	OrderID     int64  `db:"order_id"`
	ProductID   int64  `db:"product_id"`
	ProductName string `db:"product_name"`
	Size        string `db:"size"`
	Quantity    int    `db:"quantity"`
	Price       int64  `db:"price"`
	ImageURL    string `db:"image_url"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	OrderID     int64      `db:"order_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

// UserModel представляет запись таблицы users в PostgreSQL.
type UserModel struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}
