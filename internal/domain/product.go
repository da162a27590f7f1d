package domain

import "time"

// Product описывает товар каталога
type Product struct {
	ID          int64
	Name        string
	Type        string
	Description string
	Price       int64 // Цена хранится в сатангах
	ImageURL    string
	Stock       []StockCell
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// StockCell описывает остаток товара по одному размеру.
// Инвариант: Quantity >= 0; Quantity уменьшается, а Sold увеличивается
// только парой в рамках одного резервирования.
type StockCell struct {
	Size     string
	Quantity int
	Sold     int
}

func NewProduct(name, productType, description string, price int64, imageURL string, stock []StockCell) *Product {
	return &Product{
		Name:        name,
		Type:        productType,
		Description: description,
		Price:       price,
		ImageURL:    imageURL,
		Stock:       stock,
		IsActive:    true,
	}
}

// FindCell возвращает ячейку остатка по размеру или nil, если размера нет.
func (p *Product) FindCell(size string) *StockCell {
	for i := range p.Stock {
		if p.Stock[i].Size == size {
			return &p.Stock[i]
		}
	}
	return nil
}
