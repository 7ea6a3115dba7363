// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models.
package biz

import (
	"context"
	"time"

	"TradeSentry/internal/data"
	"TradeSentry/internal/model"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewGuardStore,
	NewGuardRegistry,
	NewIdempotencyCoordinator,
	NewTradeUsecase,
	NewMarketUsecase,
	NewAlertUsecase,
	NewAccountUsecase,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(TradeRepo), new(*data.TradeRepo)),
	wire.Bind(new(PriceRepo), new(*data.PriceRepo)),
	wire.Bind(new(AlertRepo), new(*data.AlertRepo)),
	wire.Bind(new(AccountRepo), new(*data.AccountRepo)),
	wire.Bind(new(MarketGateway), new(*data.MarketClient)),
	wire.Bind(new(AuditLogger), new(*data.AuditLoggerImpl)),
)

// TradeRepo persists executed trades. Implemented in the data layer.
type TradeRepo interface {
	Create(ctx context.Context, trade *data.Trade) error
	GetByID(ctx context.Context, id int64) (*data.Trade, error)
	GetByOrderID(ctx context.Context, orderID string) (*data.Trade, error)
	List(ctx context.Context, symbol string, offset, limit int) ([]*data.Trade, int64, error)
	UpdateStatus(ctx context.Context, orderID string, status data.TradeStatus, filledPrice float64) error
}

// PriceRepo persists observed price ticks.
type PriceRepo interface {
	SaveTick(ctx context.Context, tick *data.PriceTick) error
	History(ctx context.Context, symbol string, limit int) ([]*data.PriceTick, error)
	Latest(ctx context.Context, symbol string) (*data.PriceTick, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertRepo persists price alerts.
type AlertRepo interface {
	Create(ctx context.Context, alert *data.Alert) error
	GetByID(ctx context.Context, id int64) (*data.Alert, error)
	List(ctx context.Context, symbol string, activeOnly bool) ([]*data.Alert, error)
	Update(ctx context.Context, alert *data.Alert) error
	Delete(ctx context.Context, id int64) error
	MarkTriggered(ctx context.Context, id int64, price float64, at time.Time) error
}

// AccountRepo persists exchange accounts.
type AccountRepo interface {
	Create(ctx context.Context, account *data.ExchangeAccount) error
	GetByID(ctx context.Context, id int64) (*data.ExchangeAccount, error)
	GetByName(ctx context.Context, name string) (*data.ExchangeAccount, error)
	List(ctx context.Context, activeOnly bool) ([]*data.ExchangeAccount, error)
	Update(ctx context.Context, account *data.ExchangeAccount) error
	Delete(ctx context.Context, id int64) error
}

// MarketGateway is the external exchange API surface the usecases call.
// Every call through this interface goes through a resilience pipeline.
type MarketGateway interface {
	GetTicker(ctx context.Context, symbol string) (*data.TickerResponse, error)
	PlaceOrder(ctx context.Context, req *data.OrderRequest) (*data.OrderResponse, error)
}

// AuditLogger records domain events asynchronously.
type AuditLogger interface {
	LogOrderPlaced(ctx context.Context, event *model.OrderPlacedEvent)
	LogOrderRejected(ctx context.Context, symbol, reason string)
	LogAlertTriggered(ctx context.Context, event *model.AlertTriggeredEvent)
	LogGuardTransition(ctx context.Context, event *model.GuardStateChangedEvent)
	LogBreakerReset(ctx context.Context, guard string)
	LogAccountEvent(ctx context.Context, action string, accountID int64, name string)
}
