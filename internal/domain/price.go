package domain

import "time"

// PriceRecord is one observed or derived price point.
// Corresponds to the price_records table.
type PriceRecord struct {
	UniqueID    string    // deterministic hash of (symbol, interval, timestamp_ms)
	Symbol      string    // trading pair, e.g. "BTCUSDT"
	Interval    string    // sampling granularity tag, e.g. "1m"
	Price       float64   // close price for the interval (historical) or quote price (live)
	TimestampMs int64     // Unix timestamp in milliseconds, UTC
	CreatedAt   time.Time // row creation time, set by storage
}

// Supported sampling intervals.
const (
	Interval1Min  = "1m"
	Interval5Min  = "5m"
	Interval1Hour = "1h"
)

// DefaultInterval is the single granularity the tracker samples at.
const DefaultInterval = Interval1Min
