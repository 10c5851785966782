package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/storage"
)

// PriceRecordStore is an in-memory implementation of storage.PriceRecordStore.
// It mirrors the Postgres semantics exactly: inserts are insert-or-ignore
// keyed by (symbol, interval, timestamp_ms), reads return copies.
type PriceRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceRecord
}

// NewPriceRecordStore creates a new in-memory price record store.
func NewPriceRecordStore() *PriceRecordStore {
	return &PriceRecordStore{
		data: make(map[string]*domain.PriceRecord),
	}
}

// Compile-time interface check.
var _ storage.PriceRecordStore = (*PriceRecordStore)(nil)

// recordKey generates the unique key for a price record.
func recordKey(symbol, interval string, timestampMs int64) string {
	return fmt.Sprintf("%s|%s|%d", symbol, interval, timestampMs)
}

// InsertOne adds a single record. A key conflict is a no-op.
func (s *PriceRecordStore) InsertOne(_ context.Context, r *domain.PriceRecord) error {
	if r == nil || r.UniqueID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(r.Symbol, r.Interval, r.TimestampMs)
	if _, exists := s.data[key]; exists {
		return nil
	}

	recordCopy := *r
	recordCopy.CreatedAt = time.Now().UTC()
	s.data[key] = &recordCopy
	return nil
}

// InsertBulk adds multiple records and returns the count of newly
// inserted rows. Existing keys and intra-batch repeats are skipped.
func (s *PriceRecordStore) InsertBulk(_ context.Context, records []*domain.PriceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, r := range records {
		if r == nil || r.UniqueID == "" || r.Symbol == "" {
			return inserted, storage.ErrInvalidInput
		}

		key := recordKey(r.Symbol, r.Interval, r.TimestampMs)
		if _, exists := s.data[key]; exists {
			continue
		}

		recordCopy := *r
		recordCopy.CreatedAt = time.Now().UTC()
		s.data[key] = &recordCopy
		inserted++
	}

	return inserted, nil
}

// GetByTimeRange retrieves records for a symbol/interval within
// [start, end] (inclusive), ordered by timestamp ASC.
func (s *PriceRecordStore) GetByTimeRange(_ context.Context, symbol, interval string, start, end int64) ([]*domain.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceRecord
	for _, r := range s.data {
		if r.Symbol == symbol && r.Interval == interval && r.TimestampMs >= start && r.TimestampMs <= end {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// GetBySymbol retrieves all records for a symbol/interval, ordered by timestamp ASC.
func (s *PriceRecordStore) GetBySymbol(_ context.Context, symbol, interval string) ([]*domain.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceRecord
	for _, r := range s.data {
		if r.Symbol == symbol && r.Interval == interval {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}
