package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sisaket-charity/go-backend/internal/auth"
	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...interface{})            {}
func (nopLogger) Infof(format string, args ...interface{})             {}
func (nopLogger) Warnf(format string, args ...interface{})             {}
func (nopLogger) Errorf(err error, format string, args ...interface{}) {}

// fakeOrderUC отдаёт один подготовленный заказ и считает вызовы.
type fakeOrderUC struct {
	order    *domain.Order
	attached int
}

func (f *fakeOrderUC) CreateOrder(ctx context.Context, req *usecase.CreateOrderReq) (*domain.Order, error) {
	return f.order, nil
}

func (f *fakeOrderUC) SetStatus(ctx context.Context, req *usecase.SetStatusReq) (*domain.Order, error) {
	return f.order, nil
}

func (f *fakeOrderUC) AttachPaymentProof(ctx context.Context, req *usecase.AttachPaymentProofReq) (*domain.Order, error) {
	f.attached++
	return f.order, nil
}

func (f *fakeOrderUC) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return f.order, nil
}

func (f *fakeOrderUC) ListOrders(ctx context.Context, req *usecase.ListOrdersReq) ([]domain.Order, error) {
	return []domain.Order{*f.order}, nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func slipBody(t *testing.T) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "slip.png")
	require.NoError(t, err)
	_, err = fw.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func proofRequest(claims *auth.Claims, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/orders/5/payment-proof", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "5")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if claims != nil {
		ctx = context.WithValue(ctx, claimsCtxKey, claims)
	}
	return req.WithContext(ctx)
}

func TestAttachPaymentProof_ForeignOrderHidden(t *testing.T) {
	uc := &fakeOrderUC{order: &domain.Order{ID: 5, Phone: "0812345678"}}
	handler := NewOrderHandler(uc, nopLogger{})

	body, contentType := slipBody(t)
	claims := &auth.Claims{UserID: 2, Phone: "0800000000", Role: domain.RoleCustomer}

	rec := httptest.NewRecorder()
	handler.attachPaymentProof(rec, proofRequest(claims, body, contentType))

	// Чужой заказ отвечает 404, слип не прикрепляется
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, uc.attached)
}

func TestAttachPaymentProof_Owner(t *testing.T) {
	uc := &fakeOrderUC{order: &domain.Order{ID: 5, Phone: "0812345678"}}
	handler := NewOrderHandler(uc, nopLogger{})

	body, contentType := slipBody(t)
	claims := &auth.Claims{UserID: 1, Phone: "0812345678", Role: domain.RoleCustomer}

	rec := httptest.NewRecorder()
	handler.attachPaymentProof(rec, proofRequest(claims, body, contentType))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, uc.attached)
}

func TestAttachPaymentProof_AdminAnyOrder(t *testing.T) {
	uc := &fakeOrderUC{order: &domain.Order{ID: 5, Phone: "0812345678"}}
	handler := NewOrderHandler(uc, nopLogger{})

	body, contentType := slipBody(t)
	claims := &auth.Claims{UserID: 9, Phone: "0899999999", Role: domain.RoleAdmin}

	rec := httptest.NewRecorder()
	handler.attachPaymentProof(rec, proofRequest(claims, body, contentType))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, uc.attached)
}
