package usecase

import (
	"context"

	"github.com/sisaket-charity/go-backend/internal/domain"
)

type OrderUC interface {
	CreateOrder(ctx context.Context, req *CreateOrderReq) (*domain.Order, error)
	SetStatus(ctx context.Context, req *SetStatusReq) (*domain.Order, error)
	AttachPaymentProof(ctx context.Context, req *AttachPaymentProofReq) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, req *ListOrdersReq) ([]domain.Order, error)
}

type ProductUC interface {
	RegisterNewProduct(ctx context.Context, req *AddNewProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	UpdateStock(ctx context.Context, req *UpdateStockReq) (*domain.Product, error)
	RemoveProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, req *ListProductsReq) ([]domain.Product, error)
}

type AuthUC interface {
	Register(ctx context.Context, req *RegisterReq) (*AuthRes, error)
	Login(ctx context.Context, req *LoginReq) (*AuthRes, error)
}
