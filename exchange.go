package tradedesk

import "context"

// ExchangeFeed provides historical and streaming base-period candles.
type ExchangeFeed interface {
	ExchangeName() string

	Candles(ctx context.Context, filter *CandleFilter) ([]*Candle, error)

	CandlesTicker(
		ctx context.Context,
		filter *CandleFilter,
	) (<-chan *CandleTick, <-chan error)
}

// ExchangeTrader submits orders for execution.
type ExchangeTrader interface {
	SubmitOrder(ctx context.Context, order *Order) error
}
