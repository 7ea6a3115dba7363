package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradeSentry/internal/data"
	"TradeSentry/internal/model"
	"TradeSentry/pkg/resilience"

	"github.com/go-kratos/kratos/v2/log"
)

// PlaceOrderParams carries a validated order request into the usecase.
type PlaceOrderParams struct {
	AccountID      int64
	Symbol         string
	Side           string
	Type           string
	Quantity       float64
	Price          float64
	IdempotencyKey string
}

// TradeUsecase places orders through the full protection chain and keeps
// the trade history.
type TradeUsecase struct {
	repo        TradeRepo
	market      MarketGateway
	guards      *resilience.Registry
	coordinator *resilience.Coordinator
	audit       AuditLogger
	logger      *log.Helper
}

// NewTradeUsecase creates the trade usecase.
func NewTradeUsecase(
	repo TradeRepo,
	market MarketGateway,
	guards *resilience.Registry,
	coordinator *resilience.Coordinator,
	audit AuditLogger,
	logger log.Logger,
) *TradeUsecase {
	return &TradeUsecase{
		repo:        repo,
		market:      market,
		guards:      guards,
		coordinator: coordinator,
		audit:       audit,
		logger:      log.NewHelper(logger),
	}
}

// PlaceOrder submits an order to the exchange. The call runs inside the
// idempotency coordinator when the client supplied a key, so retransmitted
// requests replay the stored trade instead of re-executing. The exchange
// call itself is wrapped by the exchange-orders pipeline: rate limiter,
// then breaker, then retry.
func (uc *TradeUsecase) PlaceOrder(ctx context.Context, params *PlaceOrderParams) (*data.Trade, error) {
	if params.IdempotencyKey == "" {
		return uc.placeOrder(ctx, params)
	}

	result, err := uc.coordinator.Execute(ctx, "place-order", params.IdempotencyKey,
		func(ctx context.Context) (interface{}, error) {
			return uc.placeOrder(ctx, params)
		})
	if err != nil {
		return nil, err
	}

	var trade data.Trade
	if err := json.Unmarshal(result, &trade); err != nil {
		return nil, fmt.Errorf("failed to decode coordinated result: %w", err)
	}
	return &trade, nil
}

// placeOrder runs the unprotected order flow: pipeline-guarded exchange
// call, then persistence, then audit.
func (uc *TradeUsecase) placeOrder(ctx context.Context, params *PlaceOrderParams) (*data.Trade, error) {
	pipeline := uc.guards.Pipeline(GuardExchangeOrders)

	result, err := pipeline.Do(ctx, func(ctx context.Context) (interface{}, error) {
		return uc.market.PlaceOrder(ctx, &data.OrderRequest{
			Symbol:   params.Symbol,
			Side:     params.Side,
			Type:     params.Type,
			Quantity: params.Quantity,
			Price:    params.Price,
		})
	})
	if err != nil {
		uc.audit.LogOrderRejected(ctx, params.Symbol, err.Error())
		uc.logger.Warnw("msg", "order rejected",
			"symbol", params.Symbol,
			"side", params.Side,
			"error", err)
		return nil, err
	}

	order := result.(*data.OrderResponse)

	trade := &data.Trade{
		OrderID:        order.OrderID,
		IdempotencyKey: params.IdempotencyKey,
		AccountID:      params.AccountID,
		Symbol:         order.Symbol,
		Side:           data.OrderSide(params.Side),
		Type:           data.OrderType(params.Type),
		Quantity:       params.Quantity,
		Price:          params.Price,
		FilledPrice:    order.FilledPrice,
		Status:         tradeStatusFromExchange(order.Status),
	}

	if err := uc.repo.Create(ctx, trade); err != nil {
		// The order is live on the exchange; losing the row is worse than
		// returning an error, so surface it loudly.
		uc.logger.Errorw("msg", "order placed but trade persistence failed",
			"order_id", order.OrderID,
			"error", err)
		return nil, err
	}

	uc.audit.LogOrderPlaced(ctx, &model.OrderPlacedEvent{
		OrderID:   trade.OrderID,
		AccountID: trade.AccountID,
		Symbol:    trade.Symbol,
		Side:      params.Side,
		Quantity:  trade.Quantity,
		Price:     trade.FilledPrice,
		PlacedAt:  time.Now(),
	})

	return trade, nil
}

// GetTrade loads a trade by ID.
func (uc *TradeUsecase) GetTrade(ctx context.Context, id int64) (*data.Trade, error) {
	return uc.repo.GetByID(ctx, id)
}

// ListTrades returns trades with pagination.
func (uc *TradeUsecase) ListTrades(ctx context.Context, symbol string, offset, limit int) ([]*data.Trade, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.repo.List(ctx, symbol, offset, limit)
}

// tradeStatusFromExchange maps exchange order status strings onto the
// trades table enum.
func tradeStatusFromExchange(status string) data.TradeStatus {
	switch status {
	case "filled":
		return data.TradeStatusFilled
	case "rejected":
		return data.TradeStatusRejected
	case "canceled":
		return data.TradeStatusCanceled
	default:
		return data.TradeStatusPending
	}
}
