package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse сопоставляет ошибку уровня usecase с HTTP-статусом и сообщением.
// Детализированные доменные ошибки (не найдено, нехватка остатка) отдают свой текст,
// всё неопознанное схлопывается в 500 без утечки внутренностей.
func ToHTTPResponse(err error) (int, string) {
	var (
		notFoundErr      *e.NotFoundError
		stockErr         *e.InsufficientStockError
		invalidStatusErr *e.InvalidStatusError
		validationErr    *e.ValidationError
	)

	switch {
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, notFoundErr.Error()
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, e.ErrNotFound.Error()
	case errors.As(err, &stockErr):
		return http.StatusConflict, stockErr.Error()
	case errors.Is(err, e.ErrInsufficientStock):
		return http.StatusConflict, e.ErrInsufficientStock.Error()
	case errors.Is(err, e.ErrTransactionConflict):
		return http.StatusConflict, e.ErrTransactionConflict.Error()
	case errors.As(err, &invalidStatusErr):
		return http.StatusBadRequest, invalidStatusErr.Error()
	case errors.Is(err, e.ErrInvalidStatus):
		return http.StatusBadRequest, e.ErrInvalidStatus.Error()
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.Is(err, e.ErrValidation):
		return http.StatusBadRequest, e.ErrValidation.Error()
	case errors.Is(err, e.ErrUserAlreadyExists):
		return http.StatusConflict, e.ErrUserAlreadyExists.Error()
	case errors.Is(err, e.ErrInvalidCredentials):
		return http.StatusUnauthorized, e.ErrInvalidCredentials.Error()
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden, e.ErrForbidden.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePriceToSatang переводит строку вида "599.99" или "600" в сатанги (int64).
// Отклоняет отрицательные значения, больше двух знаков после запятой
// и цены свыше миллиарда бат.
func parsePriceToSatang(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.LessThan(decimal.Zero) {
		return 0, e.ErrInvalidPrice
	}

	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 {
		return 0, e.ErrPricePrecision
	}

	satang := d.Mul(decimal.NewFromInt(100)).Round(0)

	return satang.IntPart(), nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

// parseImage читает один файл изображения из multipart-формы.
// Возвращает nil, если файл не приложен.
func parseImage(files []*multipart.FileHeader) (*usecase.ImageUpload, error) {
	const maxFileSize = 15 << 20

	if len(files) == 0 {
		return nil, nil
	}

	fh := files[0]
	data, mimeType, err := readFile(fh, maxFileSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewImageUpload(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}

// RESPONSE MODELS

type StockCellResponse struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Sold     int    `json:"sold"`
}

type ProductResponse struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Description string              `json:"description"`
	Price       int64               `json:"price"`
	ImageURL    string              `json:"image_url"`
	Stock       []StockCellResponse `json:"stock"`
	IsActive    bool                `json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
}

type OrderLineResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	CustomerName    string              `json:"customer_name"`
	Phone           string              `json:"phone"`
	Address         string              `json:"address"`
	IsShipping      bool                `json:"is_shipping"`
	Items           []OrderLineResponse `json:"items"`
	TotalPrice      int64               `json:"total_price"`
	PaymentProofURL string              `json:"payment_proof_url,omitempty"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toProductResponse(p *domain.Product) *ProductResponse {
	stock := make([]StockCellResponse, 0, len(p.Stock))
	for _, cell := range p.Stock {
		stock = append(stock, StockCellResponse{
			Size:     cell.Size,
			Quantity: cell.Quantity,
			Sold:     cell.Sold,
		})
	}

	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductResponses(products []domain.Product) []ProductResponse {
	result := make([]ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, *toProductResponse(&products[i]))
	}
	return result
}

func toOrderResponse(o *domain.Order) *OrderResponse {
	items := make([]OrderLineResponse, 0, len(o.Items))
	for _, line := range o.Items {
		items = append(items, OrderLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Quantity:    line.Quantity,
			Price:       line.Price,
			ImageURL:    line.ImageURL,
		})
	}

	return &OrderResponse{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		Phone:           o.Phone,
		Address:         o.Address,
		IsShipping:      o.IsShipping,
		Items:           items,
		TotalPrice:      o.TotalPrice,
		PaymentProofURL: o.PaymentProofURL,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, *toOrderResponse(&orders[i]))
	}
	return result
}
