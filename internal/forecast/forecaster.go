// Package forecast fits a linear trend over recently stored prices and
// extrapolates it a short horizon into the future.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/idhash"
	"coin-tracker/internal/observability"
	"coin-tracker/internal/storage"
)

// ErrNoData is returned when a symbol has no stored prices in the
// forecast window. It is a representable outcome, not a failure; check
// with errors.Is.
var ErrNoData = errors.New("no price data in forecast window")

// Default configuration values.
const (
	DefaultWindow        = 24 * time.Hour
	DefaultMarginSamples = 60
)

// Forecaster reads a trailing window of price records, fits an ordinary
// least squares trend, and persists one point prediction per call.
type Forecaster struct {
	prices        storage.PriceRecordStore
	predictions   storage.PredictionStore
	window        time.Duration
	marginSamples int
	interval      string
	logger        *log.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

// ForecasterOptions contains configuration for creating a Forecaster.
type ForecasterOptions struct {
	PriceStore      storage.PriceRecordStore
	PredictionStore storage.PredictionStore
	Window          time.Duration // trailing input window, default 24h
	MarginSamples   int           // max samples for the error margin, default 60
	Interval        string        // granularity of the input series
	Logger          *log.Logger
	Metrics         *observability.Metrics
	Now             func() time.Time // clock hook for tests
}

// NewForecaster creates a new Forecaster.
func NewForecaster(opts ForecasterOptions) *Forecaster {
	window := opts.Window
	if window == 0 {
		window = DefaultWindow
	}

	marginSamples := opts.MarginSamples
	if marginSamples == 0 {
		marginSamples = DefaultMarginSamples
	}

	interval := opts.Interval
	if interval == "" {
		interval = domain.DefaultInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Forecaster{
		prices:        opts.PriceStore,
		predictions:   opts.PredictionStore,
		window:        window,
		marginSamples: marginSamples,
		interval:      interval,
		logger:        logger,
		metrics:       opts.Metrics,
		now:           now,
	}
}

// Predict fits a trend over the trailing window and extrapolates it to
// now + horizon. The prediction is persisted before it is returned.
//
// A window with a single sample yields a flat-line prediction at that
// price with a zero error margin, matching the zero-slope line a least
// squares fit produces on one point.
func (f *Forecaster) Predict(ctx context.Context, symbol string, horizon time.Duration) (*domain.PricePrediction, error) {
	now := f.now().UTC()
	windowStart := now.Add(-f.window)

	records, err := f.prices.GetByTimeRange(ctx, symbol, f.interval,
		windowStart.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query price window for %s: %w", symbol, err)
	}

	if len(records) == 0 {
		if f.metrics != nil {
			f.metrics.ForecastNoData.Inc()
		}
		return nil, ErrNoData
	}

	// Elapsed seconds since window start against price.
	xs := make([]float64, len(records))
	ys := make([]float64, len(records))
	for i, r := range records {
		xs[i] = float64(r.TimestampMs-windowStart.UnixMilli()) / 1000.0
		ys[i] = r.Price
	}

	slope, intercept := linearFit(xs, ys)

	targetElapsed := float64(now.UnixMilli()-windowStart.UnixMilli())/1000.0 + horizon.Seconds()
	predicted := intercept + slope*targetElapsed

	marginStart := len(ys) - f.marginSamples
	if marginStart < 0 {
		marginStart = 0
	}
	margin := stddev(ys[marginStart:])

	target := now.Add(horizon)
	prediction := &domain.PricePrediction{
		UniqueID:              idhash.ComputePredictionID(symbol, f.interval, target.UnixMilli()),
		Symbol:                symbol,
		Interval:              f.interval,
		PredictedPrice:        predicted,
		ErrorMargin:           margin,
		PredictionTimestampMs: now.UnixMilli(),
		TargetTimestampMs:     target.UnixMilli(),
	}

	if err := f.predictions.Insert(ctx, prediction); err != nil {
		return nil, fmt.Errorf("store prediction for %s: %w", symbol, err)
	}

	if f.metrics != nil {
		f.metrics.ForecastsComputed.WithLabelValues(symbol).Inc()
	}

	f.logger.Printf("Forecast for %s: %.8g at %s (margin %.8g, %d samples)",
		symbol, predicted, target.Format(time.RFC3339), margin, len(records))

	return prediction, nil
}
