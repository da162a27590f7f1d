package domain

import (
	"errors"
	"testing"

	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, value := range []string{
		"pending_payment", "verification", "shipping", "completed", "cancelled",
	} {
		status, err := ParseStatus(value)
		require.NoError(t, err, value)
		assert.Equal(t, Status(value), status)
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	_, err := ParseStatus("refunded")
	require.Error(t, err)

	var statusErr *e.InvalidStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "refunded", statusErr.Value)
	assert.True(t, errors.Is(err, e.ErrInvalidStatus))
}

func TestNewOrder_Defaults(t *testing.T) {
	order := NewOrder("somchai", "0812345678", "123 Moo 4", true, nil, 30000)

	assert.Equal(t, StatusPendingPayment, order.Status)
	assert.True(t, order.IsShipping)
	assert.Empty(t, order.PaymentProofURL)
}
