package converter

import "time"

// ProductRedisModel — JSON-представление товара в кэше.
type ProductRedisModel struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Type        string                `json:"type"`
	Description string                `json:"description"`
	Price       int64                 `json:"price"`
	ImageURL    string                `json:"image_url"`
	Stock       []StockCellRedisModel `json:"stock"`
	IsActive    bool                  `json:"is_active"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   *time.Time            `json:"updated_at,omitempty"`
}

// StockCellRedisModel — JSON-представление ячейки остатка в кэше.
type StockCellRedisModel struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Sold     int    `json:"sold"`
}
