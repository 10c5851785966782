package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/storage"
)

// PredictionStore implements storage.PredictionStore using PostgreSQL.
type PredictionStore struct {
	pool *Pool
}

// NewPredictionStore creates a new PredictionStore.
func NewPredictionStore(pool *Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Insert adds a prediction. A key conflict is a no-op: predictions are
// immutable snapshots, a recomputed forecast for an already-predicted
// target never overwrites the stored one.
func (s *PredictionStore) Insert(ctx context.Context, p *domain.PricePrediction) error {
	if p == nil || p.UniqueID == "" || p.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_predictions (
			unique_id, symbol, interval, predicted_price, error_margin,
			prediction_timestamp_ms, target_timestamp_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (unique_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		p.UniqueID,
		p.Symbol,
		p.Interval,
		p.PredictedPrice,
		p.ErrorMargin,
		p.PredictionTimestampMs,
		p.TargetTimestampMs,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// GetBySymbol retrieves all predictions for a symbol, ordered by target timestamp ASC.
func (s *PredictionStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.PricePrediction, error) {
	query := `
		SELECT unique_id, symbol, interval, predicted_price, error_margin,
		       prediction_timestamp_ms, target_timestamp_ms, created_at
		FROM price_predictions
		WHERE symbol = $1
		ORDER BY target_timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get predictions by symbol: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// scanPredictions scans multiple rows into a slice of PricePrediction.
func scanPredictions(rows pgx.Rows) ([]*domain.PricePrediction, error) {
	var predictions []*domain.PricePrediction

	for rows.Next() {
		var p domain.PricePrediction

		err := rows.Scan(
			&p.UniqueID,
			&p.Symbol,
			&p.Interval,
			&p.PredictedPrice,
			&p.ErrorMargin,
			&p.PredictionTimestampMs,
			&p.TargetTimestampMs,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}

		predictions = append(predictions, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction rows: %w", err)
	}

	return predictions, nil
}
