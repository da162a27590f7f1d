package http

import (
	_ "github.com/sisaket-charity/go-backend/docs" // Импорт сгенерированных файлов
	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/sisaket-charity/go-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
	authMW *AuthMiddleware
}

func NewRouter(router *chi.Mux, logger logger.Logger, authMW *AuthMiddleware) *Router {
	return &Router{router: router, logger: logger, authMW: authMW}
}

func (r *Router) Init(orderUC usecase.OrderUC, productUC usecase.ProductUC, authUC usecase.AuthUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		authHandler := NewAuthHandler(authUC, r.logger)
		registerAuthRoutes(v1, authHandler)

		productHandler := NewProductHandler(productUC, r.logger)
		registerProductRoutes(v1, productHandler, r.authMW)

		orderHandler := NewOrderHandler(orderUC, r.logger)
		registerOrderRoutes(v1, orderHandler, r.authMW)
	})
}

func registerAuthRoutes(router chi.Router, handler *AuthHandler) {
	router.Route("/auth", func(a chi.Router) {
		a.Post("/register", handler.register)
		a.Post("/login", handler.login)
	})
}

func registerProductRoutes(router chi.Router, handler *ProductHandler, authMW *AuthMiddleware) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", handler.listProducts)

		pr.Group(func(admin chi.Router) {
			admin.Use(authMW.Authenticate, authMW.RequireAdmin)
			admin.Get("/all", handler.listAllProducts)
			admin.Post("/", handler.registerNewProduct)
			admin.Put("/{id}", handler.updateProduct)
			admin.Patch("/{id}/stock", handler.updateStock)
			admin.Delete("/{id}", handler.removeProduct)
		})
	})
}

func registerOrderRoutes(router chi.Router, handler *OrderHandler, authMW *AuthMiddleware) {
	router.Route("/orders", func(or chi.Router) {
		or.Group(func(authed chi.Router) {
			authed.Use(authMW.Authenticate)
			authed.Post("/", handler.createOrder)
			authed.Get("/", handler.listOrders)
			authed.Get("/{id}", handler.getOrder)
			authed.Post("/{id}/payment-proof", handler.attachPaymentProof)
		})

		or.Group(func(admin chi.Router) {
			admin.Use(authMW.Authenticate, authMW.RequireAdmin)
			admin.Patch("/{id}/status", handler.setStatus)
		})
	})
}
