package converter

import (
	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/usecase"
)

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Type:        entity.Type,
		Description: entity.Description,
		Price:       entity.Price,
		ImageURL:    entity.ImageURL,
		IsActive:    entity.IsActive,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToEntity(model *ProductModel, stock []StockCellModel) *domain.Product {
	cells := make([]domain.StockCell, 0, len(stock))
	for _, cell := range stock {
		cells = append(cells, domain.StockCell{
			Size:     cell.Size,
			Quantity: cell.Quantity,
			Sold:     cell.Sold,
		})
	}

	return &domain.Product{
		ID:          model.ID,
		Name:        model.Name,
		Type:        model.Type,
		Description: model.Description,
		Price:       model.Price,
		ImageURL:    model.ImageURL,
		Stock:       cells,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

type OrderConverterImpl struct{}

func NewOrderConverterImpl() *OrderConverterImpl {
	return &OrderConverterImpl{}
}

func (c *OrderConverterImpl) ToModel(entity *domain.Order) *OrderModel {
	return &OrderModel{
		ID:              entity.ID,
		CustomerName:    entity.CustomerName,
		Phone:           entity.Phone,
		Address:         entity.Address,
		IsShipping:      entity.IsShipping,
		TotalPrice:      entity.TotalPrice,
		PaymentProofURL: entity.PaymentProofURL,
		Status:          string(entity.Status),
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}
}

func (c *OrderConverterImpl) ToEntity(model *OrderModel, items []OrderItemModel) *domain.Order {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			Price:       item.Price,
			ImageURL:    item.ImageURL,
		})
	}

	return &domain.Order{
		ID:              model.ID,
		CustomerName:    model.CustomerName,
		Phone:           model.Phone,
		Address:         model.Address,
		IsShipping:      model.IsShipping,
		Items:           lines,
		TotalPrice:      model.TotalPrice,
		PaymentProofURL: model.PaymentProofURL,
		Status:          domain.Status(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func (c *OrderConverterImpl) ToItemModels(orderID int64, items []domain.OrderLine) []OrderItemModel {
	models := make([]OrderItemModel, 0, len(items))
	for _, line := range items {
		models = append(models, OrderItemModel{
			OrderID:     orderID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Quantity:    line.Quantity,
			Price:       line.Price,
			ImageURL:    line.ImageURL,
		})
	}

	return models
}

type OutboxEventConverterImpl struct{}

func NewOutboxEventConverterImpl() *OutboxEventConverterImpl {
	return &OutboxEventConverterImpl{}
}

func (c *OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		OrderID:     entity.OrderID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		OrderID:     model.OrderID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}

type UserConverterImpl struct{}

func NewUserConverterImpl() *UserConverterImpl {
	return &UserConverterImpl{}
}

func (c *UserConverterImpl) ToModel(entity *domain.User) *UserModel {
	return &UserModel{
		ID:           entity.ID,
		Name:         entity.Name,
		Phone:        entity.Phone,
		PasswordHash: entity.PasswordHash,
		Role:         entity.Role,
		CreatedAt:    entity.CreatedAt,
	}
}

func (c *UserConverterImpl) ToEntity(model *UserModel) *domain.User {
	return &domain.User{
		ID:           model.ID,
		Name:         model.Name,
		Phone:        model.Phone,
		PasswordHash: model.PasswordHash,
		Role:         model.Role,
		CreatedAt:    model.CreatedAt,
	}
}
