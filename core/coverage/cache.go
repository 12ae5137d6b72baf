package coverage

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a decoded report stays valid.
const cacheTTL = 7 * 24 * time.Hour

// checkCacheHit attempts to retrieve and validate a cached report
func checkCacheHit(store contract.CacheStore, key string) *schema.CoverageReport {
	if store == nil {
		return nil
	}
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion && time.Since(time.Unix(ts, 0)) <= cacheTTL {
		var report schema.CoverageReport
		if err := json.Unmarshal(data, &report); err == nil {
			return &report // Cache hit
		}
	}

	return nil // Cache miss (stale or version mismatch)
}

// storeReport writes a decoded report to the cache, ignoring cache failures
func storeReport(store contract.CacheStore, key string, report schema.CoverageReport) {
	if store == nil {
		return
	}
	if data, err := json.Marshal(report); err == nil {
		_ = store.Set(key, data, currentCacheVersion, time.Now().Unix())
	}
}

// generateCacheKey derives a key from everything that affects decoding
func generateCacheKey(format schema.CoverageFormat, modulePath string, content []byte) string {
	sum := sha256.Sum256(content)
	key := fmt.Sprintf("%s:%s:%x", format, modulePath, sum)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
