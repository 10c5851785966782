package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/storage"
)

// PredictionStore is an in-memory implementation of storage.PredictionStore.
type PredictionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePrediction // keyed by unique_id
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{
		data: make(map[string]*domain.PricePrediction),
	}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Insert adds a prediction. A key conflict is a no-op.
func (s *PredictionStore) Insert(_ context.Context, p *domain.PricePrediction) error {
	if p == nil || p.UniqueID == "" || p.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.UniqueID]; exists {
		return nil
	}

	predictionCopy := *p
	predictionCopy.CreatedAt = time.Now().UTC()
	s.data[p.UniqueID] = &predictionCopy
	return nil
}

// GetBySymbol retrieves all predictions for a symbol, ordered by target timestamp ASC.
func (s *PredictionStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.PricePrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePrediction
	for _, p := range s.data {
		if p.Symbol == symbol {
			predictionCopy := *p
			result = append(result, &predictionCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TargetTimestampMs < result[j].TargetTimestampMs
	})

	return result, nil
}
