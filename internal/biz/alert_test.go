package biz

import (
	"context"
	"io"
	"testing"
	"time"

	"TradeSentry/internal/data"
	"TradeSentry/internal/model"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAlertRepo is a mock implementation of AlertRepo.
type MockAlertRepo struct {
	mock.Mock
}

func (m *MockAlertRepo) Create(ctx context.Context, alert *data.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepo) GetByID(ctx context.Context, id int64) (*data.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Alert), args.Error(1)
}

func (m *MockAlertRepo) List(ctx context.Context, symbol string, activeOnly bool) ([]*data.Alert, error) {
	args := m.Called(ctx, symbol, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.Alert), args.Error(1)
}

func (m *MockAlertRepo) Update(ctx context.Context, alert *data.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepo) MarkTriggered(ctx context.Context, id int64, price float64, at time.Time) error {
	args := m.Called(ctx, id, price, at)
	return args.Error(0)
}

func newTestAlertUsecase(t *testing.T) (*AlertUsecase, *MockAlertRepo, *MockPriceRepo, *MockAuditLogger) {
	t.Helper()
	alerts := new(MockAlertRepo)
	prices := new(MockPriceRepo)
	audit := new(MockAuditLogger)
	uc := NewAlertUsecase(alerts, prices, audit, log.NewStdLogger(io.Discard))
	return uc, alerts, prices, audit
}

func TestCreateAlert_Validation(t *testing.T) {
	uc, _, _, _ := newTestAlertUsecase(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params *AlertParams
		reason string
	}{
		{"missing symbol", &AlertParams{Condition: data.AlertConditionAbove, Threshold: 100}, "ALERT_SYMBOL_REQUIRED"},
		{"bad condition", &AlertParams{Symbol: "BTCUSDT", Condition: "sideways", Threshold: 100}, "ALERT_CONDITION_INVALID"},
		{"zero threshold", &AlertParams{Symbol: "BTCUSDT", Condition: data.AlertConditionBelow}, "ALERT_THRESHOLD_INVALID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.CreateAlert(ctx, tc.params)
			require.Error(t, err)
			assert.Equal(t, tc.reason, kerrors.FromError(err).Reason)
		})
	}
}

func TestCreateAlert_Success(t *testing.T) {
	uc, alerts, _, _ := newTestAlertUsecase(t)
	ctx := context.Background()

	alerts.On("Create", mock.Anything, mock.AnythingOfType("*data.Alert")).Return(nil).Once()

	alert, err := uc.CreateAlert(ctx, &AlertParams{
		Symbol:    "BTCUSDT",
		Condition: data.AlertConditionAbove,
		Threshold: 60000,
	})

	require.NoError(t, err)
	assert.True(t, alert.Active)
	assert.Equal(t, data.AlertConditionAbove, alert.Condition)
	alerts.AssertExpectations(t)
}

func TestEvaluateAlerts_FiresMatching(t *testing.T) {
	uc, alerts, prices, audit := newTestAlertUsecase(t)
	ctx := context.Background()

	active := []*data.Alert{
		{ID: 1, Symbol: "BTCUSDT", Condition: data.AlertConditionAbove, Threshold: 50000, Active: true},
		{ID: 2, Symbol: "BTCUSDT", Condition: data.AlertConditionBelow, Threshold: 40000, Active: true},
		{ID: 3, Symbol: "ETHUSDT", Condition: data.AlertConditionAbove, Threshold: 4000, Active: true},
	}
	alerts.On("List", mock.Anything, "", true).Return(active, nil).Once()

	// BTC at 51000 fires alert 1 only, ETH at 3000 fires nothing.
	prices.On("Latest", mock.Anything, "BTCUSDT").Return(&data.PriceTick{Symbol: "BTCUSDT", Price: 51000}, nil).Once()
	prices.On("Latest", mock.Anything, "ETHUSDT").Return(&data.PriceTick{Symbol: "ETHUSDT", Price: 3000}, nil).Once()

	alerts.On("MarkTriggered", mock.Anything, int64(1), 51000.0, mock.AnythingOfType("time.Time")).Return(nil).Once()
	audit.On("LogAlertTriggered", mock.Anything, mock.MatchedBy(func(e *model.AlertTriggeredEvent) bool {
		return e.AlertID == 1 && e.Price == 51000
	})).Once()

	fired, err := uc.EvaluateAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	alerts.AssertExpectations(t)
	prices.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestEvaluateAlerts_PriceLookupOncePerSymbol(t *testing.T) {
	uc, alerts, prices, _ := newTestAlertUsecase(t)
	ctx := context.Background()

	active := []*data.Alert{
		{ID: 1, Symbol: "BTCUSDT", Condition: data.AlertConditionAbove, Threshold: 90000, Active: true},
		{ID: 2, Symbol: "BTCUSDT", Condition: data.AlertConditionAbove, Threshold: 95000, Active: true},
	}
	alerts.On("List", mock.Anything, "", true).Return(active, nil).Once()
	prices.On("Latest", mock.Anything, "BTCUSDT").Return(&data.PriceTick{Symbol: "BTCUSDT", Price: 50000}, nil).Once()

	fired, err := uc.EvaluateAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
	prices.AssertNumberOfCalls(t, "Latest", 1)
}

func TestEvaluateAlerts_MissingPriceSkipsSymbol(t *testing.T) {
	uc, alerts, prices, _ := newTestAlertUsecase(t)
	ctx := context.Background()

	active := []*data.Alert{
		{ID: 1, Symbol: "NEWUSDT", Condition: data.AlertConditionAbove, Threshold: 1, Active: true},
	}
	alerts.On("List", mock.Anything, "", true).Return(active, nil).Once()
	prices.On("Latest", mock.Anything, "NEWUSDT").Return(nil, assert.AnError).Once()

	fired, err := uc.EvaluateAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
	alerts.AssertNotCalled(t, "MarkTriggered")
}

func TestReactivateAlert(t *testing.T) {
	uc, alerts, _, _ := newTestAlertUsecase(t)
	ctx := context.Background()

	triggered := time.Now()
	alerts.On("GetByID", mock.Anything, int64(5)).Return(&data.Alert{
		ID: 5, Symbol: "BTCUSDT", Condition: data.AlertConditionAbove,
		Threshold: 50000, Active: false, TriggeredAt: &triggered,
	}, nil).Once()
	alerts.On("Update", mock.Anything, mock.MatchedBy(func(a *data.Alert) bool {
		return a.Active && a.TriggeredAt == nil
	})).Return(nil).Once()

	alert, err := uc.ReactivateAlert(ctx, 5)
	require.NoError(t, err)
	assert.True(t, alert.Active)
	assert.Nil(t, alert.TriggeredAt)
}
