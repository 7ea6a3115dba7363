package service

import (
	"context"
	"time"

	"TradeSentry/internal/biz"
	"TradeSentry/internal/data"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// PlaceOrderRequest is the order submission payload.
type PlaceOrderRequest struct {
	AccountID      int64   `json:"account_id"`
	Symbol         string  `json:"symbol"`
	Side           string  `json:"side"`
	Type           string  `json:"type"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price,omitempty"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// TradeReply is the wire representation of a trade.
type TradeReply struct {
	ID          int64   `json:"id"`
	OrderID     string  `json:"order_id"`
	AccountID   int64   `json:"account_id"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Type        string  `json:"type"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	FilledPrice float64 `json:"filled_price"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// ListTradesReply is the paginated trade listing.
type ListTradesReply struct {
	Trades []*TradeReply `json:"trades"`
	Total  int64         `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// TradeService handles order placement and trade history.
type TradeService struct {
	uc     *biz.TradeUsecase
	logger *log.Helper
}

// NewTradeService creates a new TradeService instance.
func NewTradeService(uc *biz.TradeUsecase, logger log.Logger) *TradeService {
	return &TradeService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// PlaceOrder submits an order through the protection chain.
func (s *TradeService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*TradeReply, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}
	s.logger.Infow("msg", "PlaceOrder called", "type", "order",
		"symbol", req.Symbol, "side", req.Side, "quantity", req.Quantity,
		"idempotent", req.IdempotencyKey != "")

	trade, err := s.uc.PlaceOrder(ctx, &biz.PlaceOrderParams{
		AccountID:      req.AccountID,
		Symbol:         req.Symbol,
		Side:           req.Side,
		Type:           req.Type,
		Quantity:       req.Quantity,
		Price:          req.Price,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		s.logger.Errorw("msg", "failed to place order", "symbol", req.Symbol, "error", err)
		return nil, err
	}
	return tradeReply(trade), nil
}

// GetTrade returns a single trade by id.
func (s *TradeService) GetTrade(ctx context.Context, id int64) (*TradeReply, error) {
	trade, err := s.uc.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	return tradeReply(trade), nil
}

// ListTrades returns trade history with pagination.
func (s *TradeService) ListTrades(ctx context.Context, symbol string, offset, limit int) (*ListTradesReply, error) {
	trades, total, err := s.uc.ListTrades(ctx, symbol, offset, limit)
	if err != nil {
		return nil, err
	}
	replies := make([]*TradeReply, 0, len(trades))
	for _, trade := range trades {
		replies = append(replies, tradeReply(trade))
	}
	return &ListTradesReply{
		Trades: replies,
		Total:  total,
		Offset: offset,
		Limit:  len(replies),
	}, nil
}

func validateOrderRequest(req *PlaceOrderRequest) error {
	if req.Symbol == "" {
		return kerrors.New(400, "ORDER_SYMBOL_REQUIRED", "symbol is required")
	}
	if req.Side != string(data.SideBuy) && req.Side != string(data.SideSell) {
		return kerrors.New(400, "ORDER_SIDE_INVALID", "side must be buy or sell")
	}
	if req.Type != string(data.TypeMarket) && req.Type != string(data.TypeLimit) {
		return kerrors.New(400, "ORDER_TYPE_INVALID", "type must be market or limit")
	}
	if req.Quantity <= 0 {
		return kerrors.New(400, "ORDER_QUANTITY_INVALID", "quantity must be positive")
	}
	if req.Type == string(data.TypeLimit) && req.Price <= 0 {
		return kerrors.New(400, "ORDER_PRICE_REQUIRED", "limit orders need a positive price")
	}
	return nil
}

func tradeReply(trade *data.Trade) *TradeReply {
	return &TradeReply{
		ID:          trade.ID,
		OrderID:     trade.OrderID,
		AccountID:   trade.AccountID,
		Symbol:      trade.Symbol,
		Side:        string(trade.Side),
		Type:        string(trade.Type),
		Quantity:    trade.Quantity,
		Price:       trade.Price,
		FilledPrice: trade.FilledPrice,
		Status:      string(trade.Status),
		CreatedAt:   trade.CreatedAt.UTC().Format(time.RFC3339),
	}
}
