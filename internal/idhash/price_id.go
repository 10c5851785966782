package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePriceID computes a deterministic unique_id for a price record using SHA256.
// Formula: SHA256(symbol|interval|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputePriceID(symbol, interval string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", symbol, interval, timestampMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
