package usecase

import (
	"time"

	"github.com/sisaket-charity/go-backend/internal/domain"
)

// ORDER USECASE

// CreateOrderReq — запрос на оформление заказа.
// Цены позиций в запросе отсутствуют намеренно: единственный источник цены —
// поле price продукта на момент транзакции.
type CreateOrderReq struct {
	CustomerName string
	Phone        string
	Address      string
	IsShipping   bool
	Items        []OrderItemReq
}

// OrderItemReq — одна запрашиваемая позиция корзины.
type OrderItemReq struct {
	ProductID int64
	Size      string
	Quantity  int
}

// SetStatusReq — запрос на смену статуса заказа.
type SetStatusReq struct {
	OrderID int64
	Status  string
}

// AttachPaymentProofReq — запрос на прикрепление слипа об оплате.
type AttachPaymentProofReq struct {
	OrderID int64
	Image   *ImageUpload
}

// ListOrdersReq — фильтр выборки заказов.
// Phone заполняется для не-администраторов: покупатель видит только свои заказы.
type ListOrdersReq struct {
	Phone string
}

// PRODUCT USECASE

// AddNewProductReq — запрос на добавление нового товара.
type AddNewProductReq struct {
	Name        string
	Type        string
	Description string
	Price       int64
	Stock       []StockCellReq
	Image       *ImageUpload
	ImageURL    string
}

// StockCellReq — ячейка остатка в запросе на создание товара.
type StockCellReq struct {
	Size     string
	Quantity int
}

// UpdateProductReq — частичное обновление товара. Nil-поля не изменяются.
type UpdateProductReq struct {
	ID          int64
	Name        *string
	Description *string
	Price       *int64
	IsActive    *bool
	Image       *ImageUpload
}

// StockUpdateMode — режим правки остатка администратором.
type StockUpdateMode string

const (
	StockModeSet StockUpdateMode = "set"
	StockModeAdd StockUpdateMode = "add"
)

// UpdateStockReq — запрос на правку остатка одного размера.
type UpdateStockReq struct {
	ProductID int64
	Size      string
	Quantity  int
	Mode      StockUpdateMode
}

// ListProductsReq — фильтр выборки каталога.
type ListProductsReq struct {
	IncludeInactive bool
}

// ImageUpload представляет изображение, загруженное через multipart/form-data.
type ImageUpload struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// AUTH USECASE

type RegisterReq struct {
	Name     string
	Phone    string
	Password string
}

type LoginReq struct {
	Name     string
	Password string
}

// AuthRes — результат входа или регистрации.
type AuthRes struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
)

// OutboxEvent — запись transactional outbox для публикации в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string // uuid
	EventType   OutboxEventType
	OrderID     int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// INFRASTRUCTURE

// UploadImageReq — запрос на загрузку одного изображения в объектное хранилище.
type UploadImageReq struct {
	Prefix string // префикс ключа объекта (products/..., payments/...)
	Image  *ImageUpload
}

type WriteRawMessageReq struct {
	OrderID int64
	Payload []byte
}

// MAPPERS

func NewCreateOrderReq(customerName, phone, address string, isShipping bool, items []OrderItemReq) *CreateOrderReq {
	return &CreateOrderReq{
		CustomerName: customerName,
		Phone:        phone,
		Address:      address,
		IsShipping:   isShipping,
		Items:        items,
	}
}

func NewSetStatusReq(orderID int64, status string) *SetStatusReq {
	return &SetStatusReq{
		OrderID: orderID,
		Status:  status,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, orderID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		OrderID:   orderID,
		Payload:   payload,
		Status:    Pending,
	}
}

func NewImageUpload(data []byte, mimeType string, size int64, name string) *ImageUpload {
	return &ImageUpload{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImageReq(prefix string, image *ImageUpload) *UploadImageReq {
	return &UploadImageReq{
		Prefix: prefix,
		Image:  image,
	}
}

func NewWriteRawMessageReq(orderID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		OrderID: orderID,
		Payload: payload,
	}
}

func NewAuthRes(token string, expiresAt time.Time, user *domain.User) *AuthRes {
	return &AuthRes{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}
}
