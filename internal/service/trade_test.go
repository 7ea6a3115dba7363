package service

import (
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOrderRequest(t *testing.T) {
	cases := []struct {
		name   string
		req    *PlaceOrderRequest
		reason string
	}{
		{"missing symbol", &PlaceOrderRequest{Side: "buy", Type: "market", Quantity: 1}, "ORDER_SYMBOL_REQUIRED"},
		{"bad side", &PlaceOrderRequest{Symbol: "BTCUSDT", Side: "hold", Type: "market", Quantity: 1}, "ORDER_SIDE_INVALID"},
		{"bad type", &PlaceOrderRequest{Symbol: "BTCUSDT", Side: "buy", Type: "stop", Quantity: 1}, "ORDER_TYPE_INVALID"},
		{"zero quantity", &PlaceOrderRequest{Symbol: "BTCUSDT", Side: "buy", Type: "market"}, "ORDER_QUANTITY_INVALID"},
		{"limit without price", &PlaceOrderRequest{Symbol: "BTCUSDT", Side: "buy", Type: "limit", Quantity: 1}, "ORDER_PRICE_REQUIRED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateOrderRequest(tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.reason, kerrors.FromError(err).Reason)
			assert.Equal(t, int32(400), kerrors.FromError(err).Code)
		})
	}
}

func TestValidateOrderRequest_Valid(t *testing.T) {
	require.NoError(t, validateOrderRequest(&PlaceOrderRequest{
		Symbol: "BTCUSDT", Side: "buy", Type: "market", Quantity: 0.25,
	}))
	require.NoError(t, validateOrderRequest(&PlaceOrderRequest{
		Symbol: "ETHUSDT", Side: "sell", Type: "limit", Quantity: 2, Price: 3000,
	}))
}
