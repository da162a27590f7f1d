package converter

import "github.com/sisaket-charity/go-backend/internal/domain"

// ProductListConverter преобразует выборки товаров между domain и моделью кэша.
type ProductListConverter interface {
	ToRedisModels(entities []domain.Product) []ProductRedisModel
	ToEntities(models []ProductRedisModel) []domain.Product
}

type ProductListConverterImpl struct{}

func NewProductListConverterImpl() *ProductListConverterImpl {
	return &ProductListConverterImpl{}
}

func (c *ProductListConverterImpl) ToRedisModels(entities []domain.Product) []ProductRedisModel {
	models := make([]ProductRedisModel, 0, len(entities))
	for _, entity := range entities {
		stock := make([]StockCellRedisModel, 0, len(entity.Stock))
		for _, cell := range entity.Stock {
			stock = append(stock, StockCellRedisModel{
				Size:     cell.Size,
				Quantity: cell.Quantity,
				Sold:     cell.Sold,
			})
		}

		models = append(models, ProductRedisModel{
			ID:          entity.ID,
			Name:        entity.Name,
			Type:        entity.Type,
			Description: entity.Description,
			Price:       entity.Price,
			ImageURL:    entity.ImageURL,
			Stock:       stock,
			IsActive:    entity.IsActive,
			CreatedAt:   entity.CreatedAt,
			UpdatedAt:   entity.UpdatedAt,
		})
	}

	return models
}

func (c *ProductListConverterImpl) ToEntities(models []ProductRedisModel) []domain.Product {
	entities := make([]domain.Product, 0, len(models))
	for _, model := range models {
		stock := make([]domain.StockCell, 0, len(model.Stock))
		for _, cell := range model.Stock {
			stock = append(stock, domain.StockCell{
				Size:     cell.Size,
				Quantity: cell.Quantity,
				Sold:     cell.Sold,
			})
		}

		entities = append(entities, domain.Product{
			ID:          model.ID,
			Name:        model.Name,
			Type:        model.Type,
			Description: model.Description,
			Price:       model.Price,
			ImageURL:    model.ImageURL,
			Stock:       stock,
			IsActive:    model.IsActive,
			CreatedAt:   model.CreatedAt,
			UpdatedAt:   model.UpdatedAt,
		})
	}

	return entities
}
