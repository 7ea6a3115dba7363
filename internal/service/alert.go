package service

import (
	"context"
	"time"

	"TradeSentry/internal/biz"
	"TradeSentry/internal/data"

	"github.com/go-kratos/kratos/v2/log"
)

// CreateAlertRequest is the alert creation payload.
type CreateAlertRequest struct {
	Symbol    string  `json:"symbol"`
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
}

// AlertReply is the wire representation of an alert.
type AlertReply struct {
	ID          int64   `json:"id"`
	Symbol      string  `json:"symbol"`
	Condition   string  `json:"condition"`
	Threshold   float64 `json:"threshold"`
	Active      bool    `json:"active"`
	TriggeredAt string  `json:"triggered_at,omitempty"`
	LastPrice   float64 `json:"last_price,omitempty"`
}

// ListAlertsReply holds the alert listing.
type ListAlertsReply struct {
	Alerts []*AlertReply `json:"alerts"`
	Total  int           `json:"total"`
}

// AlertService manages price alerts.
type AlertService struct {
	uc     *biz.AlertUsecase
	logger *log.Helper
}

// NewAlertService creates a new AlertService instance.
func NewAlertService(uc *biz.AlertUsecase, logger log.Logger) *AlertService {
	return &AlertService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// CreateAlert registers a new price alert.
func (s *AlertService) CreateAlert(ctx context.Context, req *CreateAlertRequest) (*AlertReply, error) {
	s.logger.Infow("msg", "CreateAlert called", "type", "alert",
		"symbol", req.Symbol, "condition", req.Condition, "threshold", req.Threshold)

	alert, err := s.uc.CreateAlert(ctx, &biz.AlertParams{
		Symbol:    req.Symbol,
		Condition: data.AlertCondition(req.Condition),
		Threshold: req.Threshold,
	})
	if err != nil {
		return nil, err
	}
	return alertReply(alert), nil
}

// GetAlert returns one alert by id.
func (s *AlertService) GetAlert(ctx context.Context, id int64) (*AlertReply, error) {
	alert, err := s.uc.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	return alertReply(alert), nil
}

// ListAlerts returns alerts, optionally filtered.
func (s *AlertService) ListAlerts(ctx context.Context, symbol string, activeOnly bool) (*ListAlertsReply, error) {
	alerts, err := s.uc.ListAlerts(ctx, symbol, activeOnly)
	if err != nil {
		return nil, err
	}
	replies := make([]*AlertReply, 0, len(alerts))
	for _, alert := range alerts {
		replies = append(replies, alertReply(alert))
	}
	return &ListAlertsReply{Alerts: replies, Total: len(replies)}, nil
}

// DeleteAlert removes an alert.
func (s *AlertService) DeleteAlert(ctx context.Context, id int64) error {
	if err := s.uc.DeleteAlert(ctx, id); err != nil {
		s.logger.Errorw("msg", "failed to delete alert", "alert_id", id, "error", err)
		return err
	}
	return nil
}

// ReactivateAlert re-arms a triggered alert.
func (s *AlertService) ReactivateAlert(ctx context.Context, id int64) (*AlertReply, error) {
	alert, err := s.uc.ReactivateAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	return alertReply(alert), nil
}

func alertReply(alert *data.Alert) *AlertReply {
	reply := &AlertReply{
		ID:        alert.ID,
		Symbol:    alert.Symbol,
		Condition: string(alert.Condition),
		Threshold: alert.Threshold,
		Active:    alert.Active,
		LastPrice: alert.LastPrice,
	}
	if alert.TriggeredAt != nil {
		reply.TriggeredAt = alert.TriggeredAt.UTC().Format(time.RFC3339)
	}
	return reply
}
