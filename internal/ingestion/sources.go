package ingestion

import (
	"context"

	"coin-tracker/internal/domain"
)

// PriceFeed is the upstream exchange feed consumed by the ingestion
// components.
type PriceFeed interface {
	// TickerPrice returns the current quote price for a symbol.
	TickerPrice(ctx context.Context, symbol string) (float64, error)

	// Klines returns all candles for a symbol/interval with close time
	// in [startMs, endMs]. Pagination and rate limiting against the
	// upstream API are the feed's responsibility; callers see a single
	// logical fetch for the whole window.
	Klines(ctx context.Context, symbol, interval string, startMs, endMs int64) ([]*domain.Candle, error)
}
