package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/idhash"
	"coin-tracker/internal/storage"
)

func makeRecord(symbol, interval string, timestampMs int64, price float64) *domain.PriceRecord {
	return &domain.PriceRecord{
		UniqueID:    idhash.ComputePriceID(symbol, interval, timestampMs),
		Symbol:      symbol,
		Interval:    interval,
		Price:       price,
		TimestampMs: timestampMs,
	}
}

func TestPriceRecordStore_InsertBulkAndGet(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	records := []*domain.PriceRecord{
		makeRecord("BTCUSDT", "1m", 1000, 100.0),
		makeRecord("BTCUSDT", "1m", 2000, 101.0),
	}

	inserted, err := store.InsertBulk(ctx, records)
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted, got %d", inserted)
	}

	result, err := store.GetBySymbol(ctx, "BTCUSDT", "1m")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 records, got %d", len(result))
	}
}

func TestPriceRecordStore_InsertOneIdempotent(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	r := makeRecord("BTCUSDT", "1m", 1000, 100.0)
	if err := store.InsertOne(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// Re-inserting the same key must be a silent no-op, never an error,
	// and must not alter the stored row.
	dup := makeRecord("BTCUSDT", "1m", 1000, 999.0)
	if err := store.InsertOne(ctx, dup); err != nil {
		t.Fatalf("Duplicate insert should be a no-op, got error: %v", err)
	}

	result, _ := store.GetBySymbol(ctx, "BTCUSDT", "1m")
	if len(result) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result))
	}
	if result[0].Price != 100.0 {
		t.Errorf("Duplicate insert must not overwrite: price = %v, want 100.0", result[0].Price)
	}
}

func TestPriceRecordStore_InsertBulkCountsOnlyNew(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	// Pre-insert 50 records.
	var existing []*domain.PriceRecord
	for i := int64(0); i < 50; i++ {
		existing = append(existing, makeRecord("BTCUSDT", "1m", 60000*i, 100.0+float64(i)))
	}
	if _, err := store.InsertBulk(ctx, existing); err != nil {
		t.Fatalf("Seed insert failed: %v", err)
	}

	// Bulk insert 150 candidates of which the first 50 already exist.
	var candidates []*domain.PriceRecord
	for i := int64(0); i < 150; i++ {
		candidates = append(candidates, makeRecord("BTCUSDT", "1m", 60000*i, 100.0+float64(i)))
	}

	inserted, err := store.InsertBulk(ctx, candidates)
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if inserted != 100 {
		t.Errorf("Expected 100 newly inserted, got %d", inserted)
	}

	result, err := store.GetByTimeRange(ctx, "BTCUSDT", "1m", 0, 60000*149)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 150 {
		t.Errorf("Expected 150 records total, got %d", len(result))
	}
}

func TestPriceRecordStore_GetByTimeRange(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	records := []*domain.PriceRecord{
		makeRecord("BTCUSDT", "1m", 1000, 100.0),
		makeRecord("BTCUSDT", "1m", 2000, 101.0),
		makeRecord("BTCUSDT", "1m", 3000, 102.0),
		makeRecord("ETHUSDT", "1m", 2500, 50.0), // different symbol
		makeRecord("BTCUSDT", "5m", 2000, 99.0), // different interval
	}
	if _, err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "BTCUSDT", "1m", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	// Bounds are inclusive on both ends.
	if len(result) != 2 {
		t.Fatalf("Expected 2 records in range, got %d", len(result))
	}
	if result[0].TimestampMs != 1000 || result[1].TimestampMs != 2000 {
		t.Errorf("Unexpected timestamps: %d, %d", result[0].TimestampMs, result[1].TimestampMs)
	}
}

func TestPriceRecordStore_EmptyRange(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	result, err := store.GetByTimeRange(ctx, "BTCUSDT", "1m", 0, 1000)
	if err != nil {
		t.Fatalf("Empty range should not error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Expected empty result, got %d records", len(result))
	}
}

func TestPriceRecordStore_OrderByTimestamp(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	records := []*domain.PriceRecord{
		makeRecord("BTCUSDT", "1m", 3000, 102.0),
		makeRecord("BTCUSDT", "1m", 1000, 100.0),
		makeRecord("BTCUSDT", "1m", 2000, 101.0),
	}
	if _, err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, _ := store.GetBySymbol(ctx, "BTCUSDT", "1m")
	for i := 1; i < len(result); i++ {
		if result[i].TimestampMs < result[i-1].TimestampMs {
			t.Errorf("Records not sorted: %d before %d", result[i-1].TimestampMs, result[i].TimestampMs)
		}
	}
}

func TestPriceRecordStore_NoDuplicateKeys(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	// Insert the same series twice and once more via InsertOne.
	var records []*domain.PriceRecord
	for i := int64(0); i < 10; i++ {
		records = append(records, makeRecord("BTCUSDT", "1m", 1000*i, 100.0))
	}
	if _, err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if _, err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("Second InsertBulk failed: %v", err)
	}
	for _, r := range records {
		if err := store.InsertOne(ctx, r); err != nil {
			t.Fatalf("InsertOne failed: %v", err)
		}
	}

	result, _ := store.GetBySymbol(ctx, "BTCUSDT", "1m")
	seen := make(map[string]bool)
	for _, r := range result {
		key := fmt.Sprintf("%s|%s|%d", r.Symbol, r.Interval, r.TimestampMs)
		if seen[key] {
			t.Errorf("Duplicate (symbol, interval, timestamp) triple: %s", key)
		}
		seen[key] = true
	}
	if len(result) != 10 {
		t.Errorf("Expected 10 records, got %d", len(result))
	}
}

func TestPriceRecordStore_InvalidInput(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	err := store.InsertOne(ctx, &domain.PriceRecord{Symbol: ""})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	_, err = store.InsertBulk(ctx, []*domain.PriceRecord{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil record, got %v", err)
	}
}
