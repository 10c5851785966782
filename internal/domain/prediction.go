package domain

import "time"

// PricePrediction is one forecast output. Predictions are snapshots:
// created once, never mutated, never deleted by this system.
// Corresponds to the price_predictions table.
type PricePrediction struct {
	UniqueID              string    // deterministic hash of (symbol, interval, target_timestamp_ms)
	Symbol                string    // trading pair the forecast refers to
	Interval              string    // granularity of the input series
	PredictedPrice        float64   // extrapolated price at the target timestamp
	ErrorMargin           float64   // dispersion estimate of the input series, >= 0
	PredictionTimestampMs int64     // when the forecast was computed (Unix ms, UTC)
	TargetTimestampMs     int64     // future point the forecast refers to (Unix ms, UTC)
	CreatedAt             time.Time // row creation time, set by storage
}
