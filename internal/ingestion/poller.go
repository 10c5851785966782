package ingestion

import (
	"context"
	"errors"
	"log"
	"time"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/idhash"
	"coin-tracker/internal/observability"
	"coin-tracker/internal/storage"
)

// DefaultCadence is the default time between poll cycle starts.
const DefaultCadence = 60 * time.Second

// Poller fetches the current price for each tracked symbol on a fixed
// cadence and appends one record per symbol per cycle. A failure for
// one symbol never halts the others or the loop; the only intended
// shutdown path is context cancellation.
type Poller struct {
	feed     PriceFeed
	store    storage.PriceRecordStore
	symbols  []string
	interval string
	cadence  time.Duration
	logger   *log.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// PollerOptions contains configuration for creating a Poller.
type PollerOptions struct {
	Feed     PriceFeed
	Store    storage.PriceRecordStore
	Symbols  []string
	Interval string        // granularity tag for stored records
	Cadence  time.Duration // time between cycle starts
	Logger   *log.Logger
	Metrics  *observability.Metrics
	Now      func() time.Time // clock hook for tests
}

// NewPoller creates a new live price poller.
func NewPoller(opts PollerOptions) *Poller {
	cadence := opts.Cadence
	if cadence == 0 {
		cadence = DefaultCadence
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

	return &Poller{
		feed:     opts.Feed,
		store:    opts.Store,
		symbols:  opts.Symbols,
		interval: interval,
		cadence:  cadence,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// Run polls until the context is cancelled. The cadence is measured
// between cycle starts; a cycle slower than the cadence delays the next
// tick, missed ticks are dropped rather than replayed.
func (p *Poller) Run(ctx context.Context) error {
	if len(p.symbols) == 0 {
		return errors.New("no symbols to poll")
	}

	p.logger.Printf("Starting live poller: symbols=%v cadence=%v", p.symbols, p.cadence)

	// First cycle immediately, then on the ticker.
	p.pollCycle(ctx)

	ticker := time.NewTicker(p.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Println("Stopping coin tracker...")
			return ctx.Err()
		case <-ticker.C:
			p.pollCycle(ctx)
		}
	}
}

// pollCycle fetches and stores every tracked symbol sequentially.
func (p *Poller) pollCycle(ctx context.Context) {
	for _, symbol := range p.symbols {
		if ctx.Err() != nil {
			return
		}
		p.pollSymbol(ctx, symbol)
	}

	if p.metrics != nil {
		p.metrics.PollCycles.Inc()
	}
}

// pollSymbol fetches one symbol and inserts one record. A fetch either
// fully succeeds and is inserted, or fails and nothing is written for
// that symbol this cycle.
func (p *Poller) pollSymbol(ctx context.Context, symbol string) {
	price, err := p.feed.TickerPrice(ctx, symbol)
	if err != nil {
		p.logger.Printf("Error fetching price for %s: %v", symbol, err)
		if p.metrics != nil {
			p.metrics.FetchErrors.WithLabelValues(symbol).Inc()
		}
		return
	}

	ts := p.now().UTC().UnixMilli()
	record := &domain.PriceRecord{
		UniqueID:    idhash.ComputePriceID(symbol, p.interval, ts),
		Symbol:      symbol,
		Interval:    p.interval,
		Price:       price,
		TimestampMs: ts,
	}

	if err := p.store.InsertOne(ctx, record); err != nil {
		p.logger.Printf("Error storing price for %s: %v", symbol, err)
		if p.metrics != nil {
			p.metrics.StorageErrors.Inc()
		}
		return
	}

	p.logger.Printf("%s: %v", symbol, price)

	if p.metrics != nil {
		p.metrics.PricesFetched.WithLabelValues(symbol).Inc()
		p.metrics.RecordsInserted.Inc()
		p.metrics.LastSuccessfulPoll.SetToCurrentTime()
	}
}
