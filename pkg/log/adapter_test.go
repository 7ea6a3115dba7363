package log

import (
	"testing"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedAdapter() (kratoslog.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewKratosAdapter(zap.New(core)), logs
}

func TestKratosAdapter_LiftsMsgKey(t *testing.T) {
	adapter, logs := newObservedAdapter()

	err := adapter.Log(kratoslog.LevelInfo, "msg", "order accepted", "symbol", "BTCUSDT")
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "order accepted", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "BTCUSDT", fields["symbol"])
	assert.NotContains(t, fields, "msg")
}

func TestKratosAdapter_LevelMapping(t *testing.T) {
	cases := []struct {
		kratos kratoslog.Level
		zap    zapcore.Level
	}{
		{kratoslog.LevelDebug, zapcore.DebugLevel},
		{kratoslog.LevelInfo, zapcore.InfoLevel},
		{kratoslog.LevelWarn, zapcore.WarnLevel},
		{kratoslog.LevelError, zapcore.ErrorLevel},
	}

	for _, tc := range cases {
		adapter, logs := newObservedAdapter()
		require.NoError(t, adapter.Log(tc.kratos, "msg", "x"))
		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, tc.zap, entries[0].Level)
	}
}

func TestKratosAdapter_SanitizesStringValues(t *testing.T) {
	adapter, logs := newObservedAdapter()

	require.NoError(t, adapter.Log(kratoslog.LevelInfo,
		"msg", "account linked",
		"api_key", "AKIA1234567890SECRET",
		"exchange", "binance",
	))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "AKIA************CRET", fields["api_key"])
	assert.Equal(t, "binance", fields["exchange"])
}

func TestKratosAdapter_EmptyAndOddKeyvals(t *testing.T) {
	adapter, logs := newObservedAdapter()

	require.NoError(t, adapter.Log(kratoslog.LevelInfo))
	assert.Zero(t, logs.Len())

	// A trailing key without a value is dropped, not panicked on
	require.NoError(t, adapter.Log(kratoslog.LevelInfo, "msg", "ok", "dangling"))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "dangling")
}

func TestKratosAdapter_NonStringValues(t *testing.T) {
	adapter, logs := newObservedAdapter()

	require.NoError(t, adapter.Log(kratoslog.LevelInfo,
		"msg", "tick stored",
		"price", 63250.5,
		"attempt", 3,
	))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, 63250.5, fields["price"])
	assert.EqualValues(t, 3, fields["attempt"])
}
