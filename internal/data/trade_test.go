package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSide_ScanValue(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantValue OrderSide
		wantErr   bool
	}{
		{name: "scan from string", input: "buy", wantValue: SideBuy},
		{name: "scan from bytes", input: []byte("sell"), wantValue: SideSell},
		{name: "scan from nil", input: nil, wantValue: ""},
		{name: "scan from invalid type", input: 123, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s OrderSide
			err := s.Scan(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, s)

			value, err := s.Value()
			require.NoError(t, err)
			assert.Equal(t, string(tt.wantValue), value)
		})
	}
}

func TestTradeStatus_ScanValue(t *testing.T) {
	var s TradeStatus
	require.NoError(t, s.Scan("filled"))
	assert.Equal(t, TradeStatusFilled, s)

	require.NoError(t, s.Scan([]byte("rejected")))
	assert.Equal(t, TradeStatusRejected, s)

	assert.Error(t, s.Scan(3.14))
}

func TestOrderType_ScanValue(t *testing.T) {
	var ot OrderType
	require.NoError(t, ot.Scan("limit"))
	assert.Equal(t, TypeLimit, ot)

	value, err := ot.Value()
	require.NoError(t, err)
	assert.Equal(t, "limit", value)
}

func TestTrade_TableName(t *testing.T) {
	assert.Equal(t, "trades", Trade{}.TableName())
	assert.Equal(t, "price_ticks", PriceTick{}.TableName())
	assert.Equal(t, "alerts", Alert{}.TableName())
	assert.Equal(t, "exchange_accounts", ExchangeAccount{}.TableName())
	assert.Equal(t, "audit_logs", AuditLog{}.TableName())
}
