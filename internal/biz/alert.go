package biz

import (
	"context"
	"time"

	"TradeSentry/internal/data"
	"TradeSentry/internal/model"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// AlertParams carries the fields needed to create a price alert.
type AlertParams struct {
	Symbol    string
	Condition data.AlertCondition
	Threshold float64
}

// AlertUsecase manages price alerts and runs the periodic evaluation
// sweep that fires them.
type AlertUsecase struct {
	alerts AlertRepo
	prices PriceRepo
	audit  AuditLogger
	logger *log.Helper
}

// NewAlertUsecase creates the alert usecase.
func NewAlertUsecase(alerts AlertRepo, prices PriceRepo, audit AuditLogger, logger log.Logger) *AlertUsecase {
	return &AlertUsecase{
		alerts: alerts,
		prices: prices,
		audit:  audit,
		logger: log.NewHelper(logger),
	}
}

// CreateAlert validates and stores a new active alert.
func (uc *AlertUsecase) CreateAlert(ctx context.Context, params *AlertParams) (*data.Alert, error) {
	if params.Symbol == "" {
		return nil, kerrors.New(400, "ALERT_SYMBOL_REQUIRED", "symbol is required")
	}
	if params.Condition != data.AlertConditionAbove && params.Condition != data.AlertConditionBelow {
		return nil, kerrors.New(400, "ALERT_CONDITION_INVALID", "condition must be above or below")
	}
	if params.Threshold <= 0 {
		return nil, kerrors.New(400, "ALERT_THRESHOLD_INVALID", "threshold must be positive")
	}

	alert := &data.Alert{
		Symbol:    params.Symbol,
		Condition: params.Condition,
		Threshold: params.Threshold,
		Active:    true,
	}
	if err := uc.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	uc.logger.Infow("msg", "alert created", "type", "alert",
		"alert_id", alert.ID, "symbol", alert.Symbol,
		"condition", alert.Condition, "threshold", alert.Threshold)
	return alert, nil
}

// GetAlert fetches a single alert by id.
func (uc *AlertUsecase) GetAlert(ctx context.Context, id int64) (*data.Alert, error) {
	return uc.alerts.GetByID(ctx, id)
}

// ListAlerts returns alerts, optionally filtered by symbol and active state.
func (uc *AlertUsecase) ListAlerts(ctx context.Context, symbol string, activeOnly bool) ([]*data.Alert, error) {
	return uc.alerts.List(ctx, symbol, activeOnly)
}

// DeleteAlert removes an alert.
func (uc *AlertUsecase) DeleteAlert(ctx context.Context, id int64) error {
	return uc.alerts.Delete(ctx, id)
}

// ReactivateAlert re-arms a previously triggered alert.
func (uc *AlertUsecase) ReactivateAlert(ctx context.Context, id int64) (*data.Alert, error) {
	alert, err := uc.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	alert.Active = true
	alert.TriggeredAt = nil
	if err := uc.alerts.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// EvaluateAlerts checks every active alert against the latest stored
// price for its symbol and fires the ones whose condition holds.
// Called from the minute cron sweep. Returns the number of alerts fired.
func (uc *AlertUsecase) EvaluateAlerts(ctx context.Context) (int, error) {
	alerts, err := uc.alerts.List(ctx, "", true)
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	// Latest prices per symbol, fetched once per sweep.
	latest := make(map[string]*data.PriceTick)
	fired := 0
	for _, alert := range alerts {
		tick, ok := latest[alert.Symbol]
		if !ok {
			tick, err = uc.prices.Latest(ctx, alert.Symbol)
			if err != nil {
				uc.logger.Warnw("msg", "no price available for alert evaluation",
					"symbol", alert.Symbol, "alert_id", alert.ID, "error", err)
				latest[alert.Symbol] = nil
				continue
			}
			latest[alert.Symbol] = tick
		}
		if tick == nil || !alert.Matches(tick.Price) {
			continue
		}

		now := time.Now().UTC()
		if err := uc.alerts.MarkTriggered(ctx, alert.ID, tick.Price, now); err != nil {
			uc.logger.Errorw("msg", "failed to mark alert triggered",
				"alert_id", alert.ID, "error", err)
			continue
		}
		fired++
		uc.logger.Infow("msg", "alert triggered", "type", "alert",
			"alert_id", alert.ID, "symbol", alert.Symbol,
			"condition", alert.Condition, "threshold", alert.Threshold,
			"price", tick.Price)
		uc.audit.LogAlertTriggered(ctx, &model.AlertTriggeredEvent{
			AlertID:     alert.ID,
			Symbol:      alert.Symbol,
			Condition:   string(alert.Condition),
			Threshold:   alert.Threshold,
			Price:       tick.Price,
			TriggeredAt: now,
		})
	}
	return fired, nil
}
