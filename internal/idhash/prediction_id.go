package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePredictionID computes a deterministic unique_id for a prediction using SHA256.
// Formula: SHA256(symbol|interval|target_timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputePredictionID(symbol, interval string, targetTimestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", symbol, interval, targetTimestampMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
