package domain

// Candle is a fixed-interval aggregate of trades for one time bucket,
// as returned by the upstream exchange feed. Only the close time and
// close price feed the stored series; the remaining fields are carried
// for completeness of the feed contract.
type Candle struct {
	Symbol      string  // trading pair
	Interval    string  // kline interval, e.g. "1m"
	OpenTimeMs  int64   // bucket start (Unix ms)
	CloseTimeMs int64   // bucket end (Unix ms)
	Open        float64 // opening price
	High        float64 // highest price
	Low         float64 // lowest price
	Close       float64 // closing price
	Volume      float64 // traded volume
}
