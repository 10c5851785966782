package storage

import (
	"context"

	"coin-tracker/internal/domain"
)

// PriceRecordStore provides access to price_records storage.
//
// All inserts are insert-or-ignore: a record whose unique key already
// exists is silently skipped, never an error and never an update.
// Re-running any insert call with the same input converges to the same
// stored state, which makes every ingestion path safe to retry.
type PriceRecordStore interface {
	// InsertOne adds a single record. A key conflict is a no-op.
	InsertOne(ctx context.Context, r *domain.PriceRecord) error

	// InsertBulk adds multiple records and returns the count of newly
	// inserted rows; existing keys are skipped. Writes are chunked into
	// bounded batches, each batch atomic. The call as a whole is not one
	// transaction: a failure may leave earlier batches committed, which
	// is safe because the full call can simply be retried.
	InsertBulk(ctx context.Context, records []*domain.PriceRecord) (int, error)

	// GetByTimeRange retrieves records for a symbol/interval with
	// timestamp in [start, end] milliseconds (inclusive), ordered by
	// timestamp ASC. An empty range yields an empty result, not an error.
	GetByTimeRange(ctx context.Context, symbol, interval string, start, end int64) ([]*domain.PriceRecord, error)

	// GetBySymbol retrieves all records for a symbol/interval, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol, interval string) ([]*domain.PriceRecord, error)
}

// PredictionStore provides access to price_predictions storage.
type PredictionStore interface {
	// Insert adds a prediction. A key conflict is a no-op.
	Insert(ctx context.Context, p *domain.PricePrediction) error

	// GetBySymbol retrieves all predictions for a symbol, ordered by target timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.PricePrediction, error)
}
