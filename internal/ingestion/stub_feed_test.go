package ingestion

import (
	"context"
	"sync"

	"coin-tracker/internal/domain"
)

// stubFeed is an in-memory PriceFeed for tests.
type stubFeed struct {
	mu        sync.Mutex
	prices    map[string]float64
	priceErrs map[string]error
	candles   []*domain.Candle
	klinesErr error
	calls     int
}

func (f *stubFeed) TickerPrice(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if err, ok := f.priceErrs[symbol]; ok {
		return 0, err
	}
	return f.prices[symbol], nil
}

func (f *stubFeed) Klines(_ context.Context, symbol, interval string, startMs, endMs int64) ([]*domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.klinesErr != nil {
		return nil, f.klinesErr
	}

	var out []*domain.Candle
	for _, c := range f.candles {
		if c.Symbol == symbol && c.Interval == interval && c.CloseTimeMs >= startMs && c.CloseTimeMs <= endMs {
			out = append(out, c)
		}
	}
	return out, nil
}

// minuteCandles builds n one-minute candles starting at startMs with
// close prices rising from basePrice by one per minute.
func minuteCandles(symbol string, startMs int64, n int, basePrice float64) []*domain.Candle {
	candles := make([]*domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		openTime := startMs + int64(i)*60000
		price := basePrice + float64(i)
		candles = append(candles, &domain.Candle{
			Symbol:      symbol,
			Interval:    "1m",
			OpenTimeMs:  openTime,
			CloseTimeMs: openTime + 59999,
			Open:        price,
			High:        price + 0.5,
			Low:         price - 0.5,
			Close:       price,
			Volume:      10.0,
		})
	}
	return candles
}
