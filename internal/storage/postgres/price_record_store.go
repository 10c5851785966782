package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/storage"
)

// insertBatchSize bounds the number of rows per insert transaction, to
// keep transaction size and peak memory bounded on large backfills.
const insertBatchSize = 100

// PriceRecordStore implements storage.PriceRecordStore using PostgreSQL.
// Conflict handling relies on ON CONFLICT DO NOTHING against the
// unique_id primary key, so duplicate-skipping is a property of the
// statement, not of error recovery.
type PriceRecordStore struct {
	pool *Pool
}

// NewPriceRecordStore creates a new PriceRecordStore.
func NewPriceRecordStore(pool *Pool) *PriceRecordStore {
	return &PriceRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceRecordStore = (*PriceRecordStore)(nil)

const insertPriceRecordQuery = `
	INSERT INTO price_records (unique_id, symbol, interval, price, timestamp_ms)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (unique_id) DO NOTHING
`

// InsertOne adds a single record. A key conflict is a no-op.
func (s *PriceRecordStore) InsertOne(ctx context.Context, r *domain.PriceRecord) error {
	if r == nil || r.UniqueID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertPriceRecordQuery,
		r.UniqueID,
		r.Symbol,
		r.Interval,
		r.Price,
		r.TimestampMs,
	)
	if err != nil {
		return fmt.Errorf("insert price record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records and returns the count of newly inserted
// rows. Existing keys are skipped. Writes are chunked into transactions of
// at most insertBatchSize rows; each chunk is atomic. A failure after some
// chunks committed is safe: retrying the whole call skips what is already
// stored.
func (s *PriceRecordStore) InsertBulk(ctx context.Context, records []*domain.PriceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	for i := 0; i < len(records); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(records) {
			end = len(records)
		}

		n, err := s.insertBatch(ctx, records[i:end])
		inserted += n
		if err != nil {
			return inserted, fmt.Errorf("insert batch at offset %d: %w", i, err)
		}
	}

	return inserted, nil
}

// insertBatch inserts one chunk in a single transaction and returns how
// many rows were actually written.
func (s *PriceRecordStore) insertBatch(ctx context.Context, batch []*domain.PriceRecord) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, r := range batch {
		if r == nil || r.UniqueID == "" || r.Symbol == "" {
			return 0, storage.ErrInvalidInput
		}

		tag, err := tx.Exec(ctx, insertPriceRecordQuery,
			r.UniqueID,
			r.Symbol,
			r.Interval,
			r.Price,
			r.TimestampMs,
		)
		if err != nil {
			return 0, fmt.Errorf("insert price record in batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return inserted, nil
}

// GetByTimeRange retrieves records for a symbol/interval within
// [start, end] milliseconds (inclusive), ordered by timestamp ASC.
func (s *PriceRecordStore) GetByTimeRange(ctx context.Context, symbol, interval string, start, end int64) ([]*domain.PriceRecord, error) {
	query := `
		SELECT unique_id, symbol, interval, price, timestamp_ms, created_at
		FROM price_records
		WHERE symbol = $1 AND interval = $2 AND timestamp_ms >= $3 AND timestamp_ms <= $4
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, interval, start, end)
	if err != nil {
		return nil, fmt.Errorf("get price records by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// GetBySymbol retrieves all records for a symbol/interval, ordered by timestamp ASC.
func (s *PriceRecordStore) GetBySymbol(ctx context.Context, symbol, interval string) ([]*domain.PriceRecord, error) {
	query := `
		SELECT unique_id, symbol, interval, price, timestamp_ms, created_at
		FROM price_records
		WHERE symbol = $1 AND interval = $2
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("get price records by symbol: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// scanPriceRecords scans multiple rows into a slice of PriceRecord.
func scanPriceRecords(rows pgx.Rows) ([]*domain.PriceRecord, error) {
	var records []*domain.PriceRecord

	for rows.Next() {
		var r domain.PriceRecord

		err := rows.Scan(
			&r.UniqueID,
			&r.Symbol,
			&r.Interval,
			&r.Price,
			&r.TimestampMs,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price record row: %w", err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price record rows: %w", err)
	}

	return records, nil
}
