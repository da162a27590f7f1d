package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

type updateStockRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Mode     string `json:"mode"` // set | add
}

// registerNewProduct
//
//	@Summary		Регистрация нового товара
//	@Description	Создаёт новый товар в каталоге с изображением и остатками
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name		formData	string	true	"Название товара"
//	@Param			type		formData	string	true	"Тип товара"
//	@Param			description	formData	string	false	"Описание"
//	@Param			price		formData	number	true	"Цена в батах"
//	@Param			stock		formData	string	true	"Остатки: JSON-массив [{size, quantity}]"
//	@Param			image		formData	file	false	"Изображение товара"
//	@Success		201			{object}	ProductResponse
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Security		BearerAuth
//	@Router			/products [post]
func (p *ProductHandler) registerNewProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 50 << 20
		maxMemory           = 32 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	req, err := parseProductForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	req.Image, err = parseImage(r.MultipartForm.File["image"])
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.RegisterNewProduct(r.Context(), req)
	if err != nil {
		p.logger.Warnf("register product failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// updateProduct
//
//	@Summary		Частичное обновление товара
//	@Description	Обновляет только переданные поля; пустые поля формы не изменяются
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id			path		int		true	"ID товара"
//	@Param			name		formData	string	false	"Название"
//	@Param			description	formData	string	false	"Описание"
//	@Param			price		formData	number	false	"Цена в батах"
//	@Param			is_active	formData	boolean	false	"Виден ли товар в каталоге"
//	@Param			image		formData	file	false	"Новое изображение"
//	@Success		200			{object}	ProductResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 50 << 20
		maxMemory           = 32 << 20
	)

	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		WriteError(w, err)
		return
	}

	req, err := parseUpdateProductForm(r, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	req.Image, err = parseImage(r.MultipartForm.File["image"])
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), req)
	if err != nil {
		p.logger.Warnf("update product failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// updateStock
//
//	@Summary		Правка остатка одного размера
//	@Description	Режим set заменяет количество, add прибавляет к текущему
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"ID товара"
//	@Param			body	body		updateStockRequest	true	"Размер, количество и режим"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{id}/stock [patch]
func (p *ProductHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req updateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	mode := usecase.StockUpdateMode(req.Mode)
	if mode == "" {
		mode = usecase.StockModeSet
	}

	product, err := p.productUsecase.UpdateStock(r.Context(), &usecase.UpdateStockReq{
		ProductID: id,
		Size:      req.Size,
		Quantity:  req.Quantity,
		Mode:      mode,
	})
	if err != nil {
		p.logger.Warnf("update stock failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// removeProduct
//
//	@Summary		Удаление товара
//	@Tags			products
//	@Produce		json
//	@Param			id	path	int	true	"ID товара"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{id} [delete]
func (p *ProductHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.RemoveProduct(r.Context(), id); err != nil {
		p.logger.Warnf("remove product failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listProducts
//
//	@Summary		Каталог товаров
//	@Description	Публичная выборка: только активные товары
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}	ProductResponse
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.ListProducts(r.Context(), &usecase.ListProductsReq{IncludeInactive: false})
	if err != nil {
		p.logger.Warnf("list products failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponses(products))
}

// listAllProducts
//
//	@Summary		Каталог товаров для администратора
//	@Description	Включает скрытые из каталога товары
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}	ProductResponse
//	@Security		BearerAuth
//	@Router			/products/all [get]
func (p *ProductHandler) listAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.ListProducts(r.Context(), &usecase.ListProductsReq{IncludeInactive: true})
	if err != nil {
		p.logger.Warnf("list all products failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponses(products))
}

func parseProductForm(r *http.Request) (*usecase.AddNewProductReq, error) {
	name := r.FormValue("name")
	productType := r.FormValue("type")
	priceStr := r.FormValue("price")
	stockStr := r.FormValue("stock")

	if name == "" || productType == "" || priceStr == "" || stockStr == "" {
		return nil, e.ErrMissingFields
	}

	price, err := parsePriceToSatang(priceStr)
	if err != nil {
		return nil, err
	}

	var stock []usecase.StockCellReq
	if err := json.Unmarshal([]byte(stockStr), &stock); err != nil {
		return nil, e.Wrap("stock form field", e.ErrStatusBadRequest)
	}

	return &usecase.AddNewProductReq{
		Name:        name,
		Type:        productType,
		Description: r.FormValue("description"),
		Price:       price,
		Stock:       stock,
		ImageURL:    r.FormValue("image_url"),
	}, nil
}

func parseUpdateProductForm(r *http.Request, id int64) (*usecase.UpdateProductReq, error) {
	req := &usecase.UpdateProductReq{ID: id}

	if v := r.FormValue("name"); v != "" {
		req.Name = &v
	}
	if v := r.FormValue("description"); v != "" {
		req.Description = &v
	}
	if v := r.FormValue("price"); v != "" {
		price, err := parsePriceToSatang(v)
		if err != nil {
			return nil, err
		}
		req.Price = &price
	}
	if v := r.FormValue("is_active"); v != "" {
		isActive, err := strconv.ParseBool(v)
		if err != nil {
			return nil, e.Wrap("is_active form field", e.ErrStatusBadRequest)
		}
		req.IsActive = &isActive
	}

	return req, nil
}
