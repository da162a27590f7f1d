package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderUsecase usecase.OrderUC
	logger       logger.Logger
}

func NewOrderHandler(orderUsecase usecase.OrderUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUsecase: orderUsecase, logger: logger}
}

type createOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	Phone        string             `json:"phone"`
	Address      string             `json:"address"`
	IsShipping   bool               `json:"is_shipping"`
	Items        []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// createOrder
//
//	@Summary		Оформление заказа
//	@Description	Резервирует остатки и создаёт заказ одной транзакцией
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		createOrderRequest	true	"Корзина"
//	@Success		201		{object}	OrderResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		404		{object}	ErrorResponse	"Товар или размер не найден"
//	@Failure		409		{object}	ErrorResponse	"Нехватка остатка или конфликт транзакции"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (o *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	items := make([]usecase.OrderItemReq, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, usecase.OrderItemReq{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
		})
	}

	order, err := o.orderUsecase.CreateOrder(r.Context(), usecase.NewCreateOrderReq(
		req.CustomerName, req.Phone, req.Address, req.IsShipping, items,
	))
	if err != nil {
		o.logger.Warnf("create order failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toOrderResponse(order))
}

// listOrders
//
//	@Summary		Список заказов
//	@Description	Администратор видит все заказы, покупатель — только свои (по телефону)
//	@Tags			orders
//	@Produce		json
//	@Success		200	{array}		OrderResponse
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders [get]
func (o *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromCtx(r.Context())
	if claims == nil {
		WriteError(w, e.ErrUnauthorized)
		return
	}

	req := &usecase.ListOrdersReq{}
	if claims.Role != domain.RoleAdmin {
		req.Phone = claims.Phone
	}

	orders, err := o.orderUsecase.ListOrders(r.Context(), req)
	if err != nil {
		o.logger.Warnf("list orders failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponses(orders))
}

// getOrder
//
//	@Summary		Заказ по идентификатору
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		int	true	"ID заказа"
//	@Success		200	{object}	OrderResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (o *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := o.orderUsecase.GetOrder(r.Context(), id)
	if err != nil {
		o.logger.Warnf("get order failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	// Чужой заказ для покупателя неотличим от несуществующего
	claims := ClaimsFromCtx(r.Context())
	if claims != nil && claims.Role != domain.RoleAdmin && order.Phone != claims.Phone {
		WriteError(w, e.NewNotFoundError("order", strconv.FormatInt(id, 10)))
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

// setStatus
//
//	@Summary		Смена статуса заказа
//	@Description	Допустим любой переход между распознанными статусами
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"ID заказа"
//	@Param			body	body		setStatusRequest	true	"Новый статус"
//	@Success		200		{object}	OrderResponse
//	@Failure		400		{object}	ErrorResponse	"Неизвестный статус"
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id}/status [patch]
func (o *OrderHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	order, err := o.orderUsecase.SetStatus(r.Context(), usecase.NewSetStatusReq(id, req.Status))
	if err != nil {
		o.logger.Warnf("set status failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

// attachPaymentProof
//
//	@Summary		Прикрепление слипа об оплате
//	@Tags			orders
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		int		true	"ID заказа"
//	@Param			image	formData	file	true	"Изображение слипа"
//	@Success		200		{object}	OrderResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id}/payment-proof [post]
func (o *OrderHandler) attachPaymentProof(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Чужой заказ для покупателя неотличим от несуществующего
	if claims := ClaimsFromCtx(r.Context()); claims != nil && claims.Role != domain.RoleAdmin {
		existing, err := o.orderUsecase.GetOrder(r.Context(), id)
		if err != nil {
			WriteError(w, err)
			return
		}
		if existing.Phone != claims.Phone {
			WriteError(w, e.NewNotFoundError("order", strconv.FormatInt(id, 10)))
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		o.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	image, err := parseImage(r.MultipartForm.File["image"])
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := o.orderUsecase.AttachPaymentProof(r.Context(), &usecase.AttachPaymentProofReq{
		OrderID: id,
		Image:   image,
	})
	if err != nil {
		o.logger.Warnf("attach payment proof failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrStatusBadRequest
	}
	return id, nil
}
