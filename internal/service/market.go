package service

import (
	"context"
	"time"

	"TradeSentry/internal/biz"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// QuoteReply is the wire representation of a quote.
type QuoteReply struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	ObservedAt string  `json:"observed_at"`
}

// TickReply is one historical price observation.
type TickReply struct {
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	ObservedAt string  `json:"observed_at"`
}

// HistoryReply is the tick history for one symbol, newest first.
type HistoryReply struct {
	Symbol string       `json:"symbol"`
	Ticks  []*TickReply `json:"ticks"`
}

// MarketService serves quotes and price history.
type MarketService struct {
	uc     *biz.MarketUsecase
	logger *log.Helper
}

// NewMarketService creates a new MarketService instance.
func NewMarketService(uc *biz.MarketUsecase, logger log.Logger) *MarketService {
	return &MarketService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// GetQuote returns the current quote for a symbol.
func (s *MarketService) GetQuote(ctx context.Context, symbol string) (*QuoteReply, error) {
	if symbol == "" {
		return nil, kerrors.New(400, "QUOTE_SYMBOL_REQUIRED", "symbol is required")
	}

	quote, err := s.uc.GetQuote(ctx, symbol)
	if err != nil {
		s.logger.Errorw("msg", "failed to get quote", "symbol", symbol, "error", err)
		return nil, err
	}
	return &QuoteReply{
		Symbol:     quote.Symbol,
		Price:      quote.Price,
		Volume:     quote.Volume,
		ObservedAt: quote.ObservedAt.UTC().Format(time.RFC3339),
	}, nil
}

// GetHistory returns stored ticks for a symbol.
func (s *MarketService) GetHistory(ctx context.Context, symbol string, limit int) (*HistoryReply, error) {
	if symbol == "" {
		return nil, kerrors.New(400, "QUOTE_SYMBOL_REQUIRED", "symbol is required")
	}

	ticks, err := s.uc.History(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	replies := make([]*TickReply, 0, len(ticks))
	for _, tick := range ticks {
		replies = append(replies, &TickReply{
			Price:      tick.Price,
			Volume:     tick.Volume,
			ObservedAt: tick.ObservedAt.UTC().Format(time.RFC3339),
		})
	}
	return &HistoryReply{Symbol: symbol, Ticks: replies}, nil
}
