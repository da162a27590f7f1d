package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceToSatang(t *testing.T) {
	testCases := []struct {
		input string
		want  int64
	}{
		{"600", 60000},
		{"599.99", 59999},
		{"0.5", 50},
		{"0", 0},
		{"1000000000", 100000000000},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parsePriceToSatang(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePriceToSatang_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", e.ErrInvalidPrice},
		{"whitespace", "   ", e.ErrInvalidPrice},
		{"not a number", "abc", e.ErrInvalidPrice},
		{"negative", "-5", e.ErrInvalidPrice},
		{"too many decimals", "10.999", e.ErrPricePrecision},
		{"above limit", "1000000001", e.ErrInvalidPrice},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parsePriceToSatang(tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestToHTTPResponse(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found typed", e.NewNotFoundError("order", "42"), http.StatusNotFound},
		{"not found wrapped", fmt.Errorf("op: %w", e.NewNotFoundError("product", "7")), http.StatusNotFound},
		{"insufficient stock", e.NewInsufficientStockError("shirt", "M", 5, 2), http.StatusConflict},
		{"tx conflict", e.ErrTransactionConflict, http.StatusConflict},
		{"invalid status", e.NewInvalidStatusError("refunded"), http.StatusBadRequest},
		{"validation", e.NewValidationError("name", "is required"), http.StatusBadRequest},
		{"user exists", e.ErrUserAlreadyExists, http.StatusConflict},
		{"bad credentials", e.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unauthorized", e.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", e.ErrForbidden, http.StatusForbidden},
		{"file too large", e.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported media", e.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := ToHTTPResponse(tc.err)
			assert.Equal(t, tc.wantCode, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestToHTTPResponse_HidesInternals(t *testing.T) {
	code, msg := ToHTTPResponse(errors.New("pq: column does not exist"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, msg, "column")
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	_, msg := ToHTTPResponse(e.NewInsufficientStockError("hoodie", "XL", 10, 4))
	assert.Contains(t, msg, "XL")
	assert.Contains(t, msg, "10")
	assert.Contains(t, msg, "4")
}
