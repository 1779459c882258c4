// Package cache stores search responses between runs. Entries are written
// once and expire; there is no invalidation path, a stale entry simply ages
// out.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is the read/write surface the search client needs.
type Cache interface {
	Get(key string) ([]byte, bool)
	// Set stores a value. A zero ttl means the cache's own default.
	Set(key string, value []byte, ttl time.Duration) error
}

// Key derives a namespaced cache key from its parts (typically the search
// query and result count). Hashing keeps arbitrary query text safe to use as
// a filename.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "attestor:v1:" + hex.EncodeToString(hash[:])
}
